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

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// ForeignKey describes a column referencing another table.
type ForeignKey struct {
	Column          string
	ReferenceTable  string
	ReferenceColumn string
	OnDelete        string // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string
}

// ForeignKeyDeclarer is implemented by models whose tables carry foreign keys.
type ForeignKeyDeclarer interface {
	ForeignKeys() []ForeignKey
}

// TableOptions tunes CreateTables.
type TableOptions struct {
	ForeignKeys bool
}

var referentialActions = map[string]struct{}{
	"CASCADE": {}, "RESTRICT": {}, "SET NULL": {}, "SET DEFAULT": {}, "NO ACTION": {},
}

// CreateTables issues CREATE TABLE IF NOT EXISTS for every model in order.
// Existing tables are left untouched.
func CreateTables(ctx context.Context, db bun.IDB, opts TableOptions, models ...SQLModel) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	for _, m := range models {
		instance := m.Instance()
		q := db.NewCreateTable().Model(instance).IfNotExists()
		if fkd, ok := instance.(ForeignKeyDeclarer); ok && opts.ForeignKeys {
			for _, fk := range fkd.ForeignKeys() {
				clause, args, err := fk.clause()
				if err != nil {
					return fmt.Errorf("invalid foreign key on %T: %w", instance, err)
				}
				q = q.ForeignKey(clause, args...)
			}
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", instance, err)
		}
	}
	return nil
}

func (fk ForeignKey) clause() (string, []interface{}, error) {
	if fk.Column == "" || fk.ReferenceTable == "" {
		return "", nil, fmt.Errorf("column and reference table are required")
	}
	refColumn := fk.ReferenceColumn
	if refColumn == "" {
		refColumn = "id"
	}
	var b strings.Builder
	b.WriteString("(?) REFERENCES ? (?)")
	for _, action := range []struct{ event, value string }{{"DELETE", fk.OnDelete}, {"UPDATE", fk.OnUpdate}} {
		if action.value == "" {
			continue
		}
		v := strings.ToUpper(strings.TrimSpace(action.value))
		if _, ok := referentialActions[v]; !ok {
			return "", nil, fmt.Errorf("unsupported ON %s action %q", action.event, action.value)
		}
		b.WriteString(" ON " + action.event + " " + v)
	}
	return b.String(), []interface{}{bun.Ident(fk.Column), bun.Ident(fk.ReferenceTable), bun.Ident(refColumn)}, nil
}
