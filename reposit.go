/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package reposit opens a database from configuration, creates the tables of
// registered entities and hands out repositories bound to it.
//
//	store, err := reposit.Open(ctx, cfg, reposit.WithModels(
//		database.NewModelAdapter((*User)(nil), 1),
//	))
//	users, err := reposit.For[User](store)
package reposit

import (
	"context"
	"fmt"

	"github.com/tomoncle/reposit/database"
	"github.com/tomoncle/reposit/repository"
	"github.com/uptrace/bun"
)

type options struct {
	models []database.SQLModel
	logger database.Logger
}

// Option configures Open.
type Option func(*options)

// WithModels registers entities whose tables are created on Open when
// bootstrap.create_tables is set.
func WithModels(models ...database.SQLModel) Option {
	return func(o *options) { o.models = append(o.models, models...) }
}

// WithLogger replaces the database layer logger for this store.
func WithLogger(logger database.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Store owns one database connection and the entities registered on it.
type Store struct {
	factory  *database.BaseDatabaseFactory
	registry database.ModelRegistry
}

// Open connects using cfg, after environment overrides, and bootstraps the
// tables of the registered models.
func Open(ctx context.Context, cfg *database.Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	factory := database.NewDatabaseFactory()
	factory.SetLogger(o.logger)
	manager, err := factory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	registry := database.NewModelRegistry()
	registry.Register(o.models...)
	if err := factory.InitializeDatabase(ctx, cfg.BootstrapConfig, registry); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	manager.GetDB().RegisterModel(registry.Instances()...)
	return &Store{factory: factory, registry: registry}, nil
}

// DB returns the Bun database, or nil once the store is closed.
func (s *Store) DB() *bun.DB {
	return s.factory.GetDB()
}

func (s *Store) Close() error {
	return s.factory.Close()
}

func (s *Store) Health(ctx context.Context) *database.HealthStatus {
	return s.factory.GetHealthStatus(ctx)
}

func (s *Store) Stats() *database.DBStats {
	return s.factory.GetStats()
}

// Models returns the registered entities in creation order.
func (s *Store) Models() []database.SQLModel {
	return s.registry.Models()
}

// For returns a repository for T bound to the store's database. A nil or
// closed store yields a configuration error.
func For[T any](s *Store, opts ...repository.Option[T]) (repository.Repository[T], error) {
	var db bun.IDB
	if s != nil {
		if d := s.DB(); d != nil {
			db = d
		}
	}
	return repository.NewRepository[T](db, opts...)
}

// MustFor is For that panics on error, for package-level wiring.
func MustFor[T any](s *Store, opts ...repository.Option[T]) repository.Repository[T] {
	repo, err := For[T](s, opts...)
	if err != nil {
		panic(err)
	}
	return repo
}
