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
	"database/sql"

	"github.com/pkg/errors"
	"github.com/tomoncle/reposit/types"
	"github.com/uptrace/bun"
)

// Query is a typed, chainable finder over one entity type. Attribute names
// are resolved against the entity's columns; the first unknown name is kept
// and returned by the terminal call.
//
//	user, err := users.By("email", "a@b.c").First(ctx)
type Query[T any] struct {
	repo  *baseRepositoryImpl[T]
	query *bun.SelectQuery
	err   error
}

func (r *baseRepositoryImpl[T]) newQuery() *Query[T] {
	return &Query[T]{repo: r, query: r.QueryBuilder()}
}

// By starts a query matching attribute against value.
func (r *baseRepositoryImpl[T]) By(attribute string, value interface{}) *Query[T] {
	return r.newQuery().Where(attribute, value)
}

// Scope starts a query from a caller-built select, e.g. one carrying joins
// or extra conditions. A nil scope is the same as QueryBuilder().
func (r *baseRepositoryImpl[T]) Scope(query *bun.SelectQuery) *Query[T] {
	if query == nil {
		return r.newQuery()
	}
	return &Query[T]{repo: r, query: query}
}

// Where adds an equality condition; a nil value matches NULL.
func (q *Query[T]) Where(attribute string, value interface{}) *Query[T] {
	if q.err != nil {
		return q
	}
	col, err := q.repo.column(attribute)
	if err != nil {
		q.err = err
		return q
	}
	if value == nil {
		q.query = q.query.Where("? IS NULL", bun.Ident(col))
	} else {
		q.query = q.query.Where("? = ?", bun.Ident(col), value)
	}
	return q
}

func (q *Query[T]) OrderBy(attribute string, direction types.SortDirection) *Query[T] {
	if q.err != nil {
		return q
	}
	if !direction.IsValid() {
		q.err = errors.Wrapf(ErrInvalidArgument, "sort direction %d", direction)
		return q
	}
	col, err := q.repo.column(attribute)
	if err != nil {
		q.err = err
		return q
	}
	q.query = q.query.OrderExpr("? "+direction.Name(), bun.Ident(col))
	return q
}

// First returns the first matching record, or nil without error.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	entity := q.repo.factory()
	if err := q.query.Limit(1).Scan(ctx, entity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "select %s", q.repo.table.Name)
	}
	return entity, nil
}

// FirstOrFail is First that returns ErrNotFound instead of nil.
func (q *Query[T]) FirstOrFail(ctx context.Context) (*T, error) {
	entity, err := q.First(ctx)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.Wrapf(ErrNotFound, "%s", q.repo.table.Name)
	}
	return entity, nil
}

// All returns every matching record; no match is an empty slice.
func (q *Query[T]) All(ctx context.Context) ([]*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	entities := make([]*T, 0)
	if err := q.query.Scan(ctx, &entities); err != nil {
		return nil, errors.Wrapf(err, "select %s", q.repo.table.Name)
	}
	return entities, nil
}

func (q *Query[T]) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	n, err := q.query.Count(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", q.repo.table.Name)
	}
	return n, nil
}
