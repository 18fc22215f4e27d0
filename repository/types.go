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

package repository

import (
	"context"

	"github.com/tomoncle/reposit/types"
	"github.com/uptrace/bun"
)

// Attributes maps column names, or Go field names, to values.
type Attributes map[string]interface{}

// Factory returns a fresh, empty entity instance.
type Factory[T any] func() *T

// CrudRepository defines lookup and write operations for one entity type.
type CrudRepository[T any] interface {
	// Find returns the record for id, or nil without error when none exists.
	Find(ctx context.Context, id Key) (*T, error)

	// FindOrFail is Find that returns ErrNotFound instead of nil.
	FindOrFail(ctx context.Context, id Key) (*T, error)

	// Store builds a new entity from attributes and inserts it.
	Store(ctx context.Context, attributes Attributes) (*T, error)

	// Create inserts prepared entities in one statement.
	Create(ctx context.Context, entity ...*T) error

	// Update loads the record for id, applies attributes and saves it.
	Update(ctx context.Context, id Key, attributes Attributes) (*T, error)

	// UpdateEntity applies attributes to entity in place and saves it.
	UpdateEntity(ctx context.Context, entity *T, attributes Attributes) (*T, error)

	// Delete loads the record for id and deletes it.
	Delete(ctx context.Context, id Key) error

	// DeleteEntity deletes entity by primary key.
	DeleteEntity(ctx context.Context, entity *T) error
}

// ListRepository defines filtered listing.
type ListRepository[T any] interface {
	Index(ctx context.Context, filters []types.Filter, sorts []types.Sort) ([]*T, error)
	PaginatedIndex(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// FinderRepository defines attribute-based lookups.
type FinderRepository[T any] interface {
	By(attribute string, value interface{}) *Query[T]
	Scope(query *bun.SelectQuery) *Query[T]
	SearchBy(ctx context.Context, attribute string, value interface{}, scope ...*bun.SelectQuery) ([]*T, error)
	FindBy(ctx context.Context, attribute string, value interface{}) (*T, error)
	FindOrFailBy(ctx context.Context, attribute string, value interface{}) (*T, error)
	Dispatch(ctx context.Context, method string, args ...interface{}) (*Result[T], error)
}

// Repository combines CRUD, listing and finders for one entity type and
// exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	ListRepository[T]
	FinderRepository[T]

	// IDField returns the column an untyped identifier is matched against.
	IDField(id interface{}) string
	TableName() string
	PrimaryKeyName() string
	UUIDKeyName() string
	NewModel() *T
	QueryBuilder() *bun.SelectQuery
	WithTx(tx bun.Tx) Repository[T]
}

// Option configures a repository at construction.
type Option[T any] func(*baseRepositoryImpl[T])

// WithFactory sets how new entity instances are created.
func WithFactory[T any](factory Factory[T]) Option[T] {
	return func(r *baseRepositoryImpl[T]) { r.factory = factory }
}
