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
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/tomoncle/reposit/model"
	"github.com/uptrace/bun/schema"
)

// field resolves an attribute name to a mapped column. The name may be the
// column itself, the Go field name, or any casing whose snake_case form is
// the column ("FirstName", "firstName" and "first_name" all match).
func (r *baseRepositoryImpl[T]) field(attribute string) (*schema.Field, error) {
	if f, ok := r.table.FieldMap[attribute]; ok {
		return f, nil
	}
	for _, f := range r.table.Fields {
		if f.GoName == attribute {
			return f, nil
		}
	}
	if f, ok := r.table.FieldMap[strcase.ToSnake(attribute)]; ok {
		return f, nil
	}
	return nil, errors.Wrapf(ErrUnknownAttribute, "%q on %s", attribute, r.table.Name)
}

func (r *baseRepositoryImpl[T]) column(attribute string) (string, error) {
	f, err := r.field(attribute)
	if err != nil {
		return "", err
	}
	return f.Name, nil
}

// fill copies attributes onto entity. Keys are applied in sorted order so the
// first failure reported is stable. When existing is set the primary key and
// the UUID key cannot be changed.
func (r *baseRepositoryImpl[T]) fill(entity *T, attributes Attributes, existing bool) error {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	strct := reflect.ValueOf(entity).Elem()
	for _, name := range names {
		f, err := r.field(name)
		if err != nil {
			return err
		}
		value := attributes[name]
		if f == r.uuidKey {
			if existing {
				return errors.Wrapf(ErrImmutableAttribute, "%s.%s", r.table.Name, f.Name)
			}
			s, ok := value.(string)
			if !ok || !model.IsUUID(s) {
				return errors.Wrapf(ErrInvalidAttribute, "%s.%s: %v is not a uuid", r.table.Name, f.Name, value)
			}
			// stored in the lower-case form ParseKey looks up
			value = uuid.MustParse(s).String()
		}
		if f == r.pk && existing {
			return errors.Wrapf(ErrImmutableAttribute, "%s.%s", r.table.Name, f.Name)
		}
		if err := assign(fieldByIndex(strct, f.Index), value); err != nil {
			return errors.Wrapf(ErrInvalidAttribute, "%s.%s: %v", r.table.Name, f.Name, err)
		}
	}
	return nil
}

// fieldByIndex is reflect.Value.FieldByIndex that allocates nil embedded
// pointers on the way down.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

func assign(dst reflect.Value, value interface{}) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(value)
	if dst.Kind() == reflect.Pointer && src.Kind() != reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	switch {
	case isString(src.Kind()) && isString(dst.Kind()),
		src.Kind() == reflect.Bool && dst.Kind() == reflect.Bool:
		dst.Set(src.Convert(dst.Type()))
		return nil
	case isNumber(src.Kind()) && isNumber(dst.Kind()):
		if isFloat(src.Kind()) && !isFloat(dst.Kind()) && src.Float() != math.Trunc(src.Float()) {
			return fmt.Errorf("%v has a fractional part", value)
		}
		if isUnsigned(dst.Kind()) && !isUnsigned(src.Kind()) && src.Convert(reflect.TypeOf(float64(0))).Float() < 0 {
			return fmt.Errorf("%v is negative", value)
		}
		converted := src.Convert(dst.Type())
		if !converted.Convert(src.Type()).Equal(src) {
			return fmt.Errorf("%v overflows %s", value, dst.Type())
		}
		dst.Set(converted)
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, dst.Type())
}

func isString(k reflect.Kind) bool { return k == reflect.String }

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

func isUnsigned(k reflect.Kind) bool { return k >= reflect.Uint && k <= reflect.Uintptr }

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
