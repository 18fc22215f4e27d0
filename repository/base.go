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
	"reflect"

	"github.com/pkg/errors"
	"github.com/tomoncle/reposit/database"
	"github.com/tomoncle/reposit/model"
	"github.com/tomoncle/reposit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db      bun.IDB
	table   *schema.Table
	pk      *schema.Field
	uuidKey *schema.Field
	factory Factory[T]
	logger  database.Logger
}

// NewRepository binds a repository to entity type T. T must be a Bun model
// struct with a single primary key whose pointer implements
// model.Identifiable, usually by embedding model.Model. Any violation is
// reported as a *ConfigurationError.
func NewRepository[T any](db bun.IDB, opts ...Option[T]) (Repository[T], error) {
	entity := reflect.TypeFor[T]().String()
	if db == nil {
		return nil, &ConfigurationError{Entity: entity, Reason: "database is nil"}
	}
	table, err := model.Table[T](db)
	if err != nil {
		return nil, &ConfigurationError{Entity: entity, Reason: err.Error()}
	}
	if len(table.PKs) != 1 {
		return nil, &ConfigurationError{Entity: entity, Reason: "exactly one primary key is required"}
	}

	r := &baseRepositoryImpl[T]{
		db:      db,
		table:   table,
		pk:      table.PKs[0],
		factory: func() *T { return new(T) },
		logger:  database.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		return nil, &ConfigurationError{Entity: entity, Reason: "factory is nil"}
	}
	sample := r.factory()
	if sample == nil {
		return nil, &ConfigurationError{Entity: entity, Reason: "factory returned nil"}
	}
	identifiable, ok := any(sample).(model.Identifiable)
	if !ok {
		return nil, &ConfigurationError{Entity: entity, Reason: "*" + entity + " does not implement model.Identifiable"}
	}
	field, ok := table.FieldMap[identifiable.UUIDKeyName()]
	if !ok {
		return nil, &ConfigurationError{Entity: entity, Reason: "uuid key column " + identifiable.UUIDKeyName() + " is not mapped"}
	}
	r.uuidKey = field
	return r, nil
}

func (r *baseRepositoryImpl[T]) TableName() string { return r.table.Name }

func (r *baseRepositoryImpl[T]) PrimaryKeyName() string { return r.pk.Name }

func (r *baseRepositoryImpl[T]) UUIDKeyName() string { return r.uuidKey.Name }

func (r *baseRepositoryImpl[T]) NewModel() *T { return r.factory() }

func (r *baseRepositoryImpl[T]) QueryBuilder() *bun.SelectQuery {
	return r.db.NewSelect().Model((*T)(nil))
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	clone := *r
	clone.db = tx
	return &clone
}

func (r *baseRepositoryImpl[T]) IDField(id interface{}) string {
	return r.keyField(ParseKey(id))
}

func (r *baseRepositoryImpl[T]) keyField(id Key) string {
	if id.Kind() == UUIDKeyKind {
		return r.uuidKey.Name
	}
	return r.pk.Name
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, id Key) (*T, error) {
	return r.keyQuery(id).First(ctx)
}

func (r *baseRepositoryImpl[T]) FindOrFail(ctx context.Context, id Key) (*T, error) {
	return r.keyQuery(id).FirstOrFail(ctx)
}

func (r *baseRepositoryImpl[T]) keyQuery(id Key) *Query[T] {
	return r.newQuery().Where(r.keyField(id), id.Value())
}

func (r *baseRepositoryImpl[T]) Store(ctx context.Context, attributes Attributes) (*T, error) {
	entity := r.factory()
	if err := r.fill(entity, attributes, false); err != nil {
		return nil, err
	}
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, writeError("insert", r.table.Name, err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := make([]*T, len(entity))
	copy(entities, entity)
	if _, err := r.db.NewInsert().Model(&entities).Exec(ctx); err != nil {
		return writeError("insert", r.table.Name, err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, id Key, attributes Attributes) (*T, error) {
	entity, err := r.FindOrFail(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.save(ctx, entity, attributes)
}

func (r *baseRepositoryImpl[T]) UpdateEntity(ctx context.Context, entity *T, attributes Attributes) (*T, error) {
	if entity == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "entity is nil")
	}
	return r.save(ctx, entity, attributes)
}

func (r *baseRepositoryImpl[T]) save(ctx context.Context, entity *T, attributes Attributes) (*T, error) {
	if err := r.fill(entity, attributes, true); err != nil {
		return nil, err
	}
	res, err := r.db.NewUpdate().
		Model(entity).
		ExcludeColumn(r.uuidKey.Name).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, writeError("update", r.table.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, errors.Wrapf(ErrNotFound, "update %s", r.table.Name)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id Key) error {
	entity, err := r.FindOrFail(ctx, id)
	if err != nil {
		return err
	}
	return r.DeleteEntity(ctx, entity)
}

func (r *baseRepositoryImpl[T]) DeleteEntity(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.Wrap(ErrInvalidArgument, "entity is nil")
	}
	res, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return writeError("delete", r.table.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "delete %s", r.table.Name)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Index(ctx context.Context, filters []types.Filter, sorts []types.Sort) ([]*T, error) {
	return r.listQuery(filters, sorts).All(ctx)
}

func (r *baseRepositoryImpl[T]) PaginatedIndex(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	q := r.listQuery(page.GetFilters(), page.GetSorts())
	if q.err != nil {
		return nil, q.err
	}
	pagination := types.NewDefaultPagination[T](page.GetPage(), page.GetPageSize())
	total, err := r.listQuery(page.GetFilters(), nil).Count(ctx)
	if err != nil {
		return nil, err
	}
	pagination.SetTotal(total)
	if total == 0 {
		return pagination, nil
	}

	q.query = q.query.Offset(page.GetOffset()).Limit(page.GetPageSize())
	items, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Items = items
	return pagination, nil
}

// listQuery folds every filter into a single query, ANDed, then applies sorts.
func (r *baseRepositoryImpl[T]) listQuery(filters []types.Filter, sorts []types.Sort) *Query[T] {
	q := r.newQuery()
	for _, f := range filters {
		q = q.Where(f.Field, f.Value)
	}
	for _, s := range sorts {
		q = q.OrderBy(s.Field, s.Direction)
	}
	return q
}
