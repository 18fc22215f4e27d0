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
	"strings"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// MethodKind is the finder family a dynamic method name belongs to.
type MethodKind int

const (
	SearchByMethod MethodKind = iota + 1
	FindByMethod
	FindOrFailByMethod
)

func (k MethodKind) String() string {
	switch k {
	case SearchByMethod:
		return "searchBy"
	case FindByMethod:
		return "findBy"
	case FindOrFailByMethod:
		return "findOrFailBy"
	default:
		return "unknown"
	}
}

// The prefixes are mutually exclusive, so the order does not matter.
var methodPrefixes = []MethodKind{SearchByMethod, FindOrFailByMethod, FindByMethod}

// Method is a parsed dynamic finder name such as "findByEmail".
type Method struct {
	Kind      MethodKind
	Attribute string
}

// ParseMethod splits name into finder family and attribute. The attribute is
// left as written; it is resolved to a column when the finder runs.
func ParseMethod(name string) (Method, error) {
	for _, kind := range methodPrefixes {
		prefix := kind.String()
		if attr, ok := strings.CutPrefix(name, prefix); ok && attr != "" {
			return Method{Kind: kind, Attribute: attr}, nil
		}
	}
	return Method{}, errors.Wrapf(ErrUnsupportedOperation, "method %q", name)
}

// Result carries what a dispatched finder returned: Many for searchBy, One
// otherwise.
type Result[T any] struct {
	Method Method
	One    *T
	Many   []*T
}

func (r *baseRepositoryImpl[T]) SearchBy(ctx context.Context, attribute string, value interface{}, scope ...*bun.SelectQuery) ([]*T, error) {
	var base *bun.SelectQuery
	if len(scope) > 0 {
		base = scope[0]
	}
	return r.Scope(base).Where(attribute, value).All(ctx)
}

func (r *baseRepositoryImpl[T]) FindBy(ctx context.Context, attribute string, value interface{}) (*T, error) {
	return r.By(attribute, value).First(ctx)
}

func (r *baseRepositoryImpl[T]) FindOrFailBy(ctx context.Context, attribute string, value interface{}) (*T, error) {
	return r.By(attribute, value).FirstOrFail(ctx)
}

// Dispatch runs a finder named at runtime. Supported names are
// searchBy<Attr>(value[, scope *bun.SelectQuery]), findBy<Attr>(value) and
// findOrFailBy<Attr>(value). Any other name fails with ErrUnsupportedOperation.
func (r *baseRepositoryImpl[T]) Dispatch(ctx context.Context, method string, args ...interface{}) (*Result[T], error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s requires a value", method)
	}
	maxArgs := 1
	if m.Kind == SearchByMethod {
		maxArgs = 2
	}
	if len(args) > maxArgs {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s takes at most %d arguments, got %d", method, maxArgs, len(args))
	}
	r.logger.Debug("Dispatching finder", "method", method, "kind", m.Kind.String(), "attribute", m.Attribute)

	result := &Result[T]{Method: m}
	switch m.Kind {
	case SearchByMethod:
		var scope *bun.SelectQuery
		if len(args) == 2 && args[1] != nil {
			s, ok := args[1].(*bun.SelectQuery)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidArgument, "%s scope must be *bun.SelectQuery, got %T", method, args[1])
			}
			scope = s
		}
		result.Many, err = r.SearchBy(ctx, m.Attribute, args[0], scope)
	case FindByMethod:
		result.One, err = r.FindBy(ctx, m.Attribute, args[0])
	case FindOrFailByMethod:
		result.One, err = r.FindOrFailBy(ctx, m.Attribute, args[0])
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
