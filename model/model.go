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

package model

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// DefaultUUIDKeyName is the column holding the secondary UUID key.
const DefaultUUIDKeyName = "uuid"

// Identifiable is implemented by entities carrying a UUID lookup key next to
// their primary key.
type Identifiable interface {
	UUIDKeyName() string
	GetUUID() string
	SetUUID(string)
}

// Model is embedded by entities to get a surrogate primary key, a UUID
// assigned once on insert, and timestamps:
//
//	type User struct {
//		bun.BaseModel `bun:"table:users"`
//		model.Model
//		Email string `bun:"email,notnull,unique"`
//	}
type Model struct {
	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UUID      string    `bun:"uuid,notnull,unique" json:"uuid"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var (
	_ Identifiable              = (*Model)(nil)
	_ bun.BeforeAppendModelHook = (*Model)(nil)
)

func (m *Model) UUIDKeyName() string { return DefaultUUIDKeyName }

func (m *Model) GetUUID() string { return m.UUID }

func (m *Model) SetUUID(id string) { m.UUID = id }

// BeforeAppendModel assigns the UUID and timestamps before an INSERT and
// refreshes UpdatedAt before an UPDATE. An existing UUID is never replaced.
func (m *Model) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now()
	switch query.(type) {
	case *bun.InsertQuery:
		AssignUUID(m)
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
	case *bun.UpdateQuery:
		m.UpdatedAt = now
	}
	return nil
}

// AssignUUID sets a fresh version 4 UUID on e unless it already has one. An
// existing UUID is normalised to lower case. Entities that implement
// Identifiable without embedding Model call it from their own
// BeforeAppendModel hook.
func AssignUUID(e Identifiable) {
	current := e.GetUUID()
	if current == "" {
		e.SetUUID(uuid.NewString())
		return
	}
	if IsUUID(current) {
		e.SetUUID(uuid.MustParse(current).String())
	}
}

// IsUUID reports whether s is in the canonical 8-4-4-4-12 hexadecimal form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Table returns Bun's table metadata for entity type T. T must be a struct.
func Table[T any](db bun.IDB) (*schema.Table, error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type %s is not a struct", typ)
	}
	return db.Dialect().Tables().Get(typ), nil
}

// TableName returns the table backing entity type T without needing an instance.
func TableName[T any](db bun.IDB) (string, error) {
	table, err := Table[T](db)
	if err != nil {
		return "", err
	}
	return table.Name, nil
}

// PrimaryKeyName returns the single primary key column of entity type T.
func PrimaryKeyName[T any](db bun.IDB) (string, error) {
	table, err := Table[T](db)
	if err != nil {
		return "", err
	}
	if len(table.PKs) != 1 {
		return "", fmt.Errorf("entity type %s must have exactly one primary key, has %d", table.Type, len(table.PKs))
	}
	return table.PKs[0].Name, nil
}
