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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type account struct {
	bun.BaseModel `bun:"table:accounts"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type ledgerEntry struct {
	bun.BaseModel `bun:"table:ledger_entries"`

	ID        int64 `bun:"id,pk,autoincrement"`
	AccountID int64 `bun:"account_id,notnull"`
}

func (*ledgerEntry) ForeignKeys() []ForeignKey {
	return []ForeignKey{{Column: "account_id", ReferenceTable: "accounts", OnDelete: "restrict"}}
}

func sqliteConfig(t *testing.T) *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", filepath.Base(t.Name()))
	cfg.HealthCheckInterval = 0
	return cfg
}

func connect(t *testing.T) AbstractDatabaseManager {
	t.Helper()
	m := NewDatabaseManager(sqliteConfig(t))
	require.NoError(t, m.Connect(context.Background()))
	t.Cleanup(func() { _ = m.Disconnect() })
	return m
}

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		err  error
		is   bool
		kind SQLError
	}{
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{&mysql.MySQLError{Number: 1451, Message: "Cannot delete"}, true, ForeignKeyViolationErr},
		{&mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), true, ForeignKeyViolationErr},
		{errors.New(`pq: update or delete on table "users" violates foreign key constraint "fk"`), true, ForeignKeyViolationErr},
		{errors.New("UNIQUE constraint failed: users.email"), true, DuplicateKeyErr},
		{errors.New("NOT NULL constraint failed: users.email"), true, NotNullViolationErr},
		{errors.New("no such table: users"), true, NoTableErr},
		{fmt.Errorf("wrapped: %w", errors.New("CHECK constraint failed: age")), true, CheckConstraintViolationErr},
		{errors.New("connection refused"), false, UnknownErr},
		{nil, false, UnknownErr},
	}
	for _, c := range cases {
		is, kind := IsSqlError(c.err)
		assert.Equal(t, c.is, is, "%v", c.err)
		assert.Equal(t, c.kind, kind, "%v", c.err)
	}
	assert.True(t, ForeignKeyViolationErr.IsConstraintViolation())
	assert.False(t, NoTableErr.IsConstraintViolation())
	assert.Equal(t, "foreign_key_violation", ForeignKeyViolationErr.String())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  type: postgres
  host: db.internal
  port: 5432
  dbname: app
  reconnect_interval: 7s
bootstrap:
  create_tables: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	assert.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5432, cfg.ConnectionConfig.Port)
	assert.Equal(t, 7*time.Second, cfg.ConnectionConfig.ReconnectInterval)
	assert.Equal(t, 100, cfg.ConnectionConfig.MaxOpenConns, "defaults survive")
	assert.True(t, cfg.BootstrapConfig.CreateTables)
	assert.True(t, cfg.BootstrapConfig.ForeignKeys)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFactoryAppliesEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "override.local")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_RECONNECT_INTERVAL", "2s")

	cfg := DefaultConnectionConfig()
	cfg.Type = "postgres"
	cfg.Host = "config.local"
	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "override.local", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.ReconnectInterval)
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "oracle"
	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported database type")

	_, err = NewDatabaseFactory().CreateFromConfig(nil)
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(""))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x?mode=memory", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "app.db", sqliteDSN("app"))
	assert.Equal(t, "app.db", sqliteDSN("app.db"))
}

func TestManagerHealthAndStats(t *testing.T) {
	m := connect(t)
	ctx := context.Background()

	require.NoError(t, m.Ping(ctx))
	status := m.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, m.GetStats().MaxOpenConns)

	before := m.GetDB()
	require.NoError(t, m.Reconnect(ctx))
	require.NoError(t, m.Ping(ctx))
	assert.Same(t, before, m.GetDB())

	require.NoError(t, m.Disconnect())
	assert.Nil(t, m.GetDB())
	assert.False(t, m.HealthCheck(ctx).Healthy)
	assert.Error(t, m.Ping(ctx))
}

func TestCreateTablesWithForeignKeys(t *testing.T) {
	m := connect(t)
	ctx := context.Background()
	db := m.GetDB()

	registry := NewModelRegistry()
	registry.Register(NewModelAdapter(&ledgerEntry{}, 2), NewModelAdapter(&account{}, 1))
	require.NoError(t, CreateTables(ctx, db, TableOptions{ForeignKeys: true}, registry.Models()...))
	// idempotent
	require.NoError(t, CreateTables(ctx, db, TableOptions{ForeignKeys: true}, registry.Models()...))

	acc := &account{Name: "main"}
	_, err := db.NewInsert().Model(acc).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&ledgerEntry{AccountID: acc.ID}).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewDelete().Model((*account)(nil)).Where("id = ?", acc.ID).Exec(ctx)
	require.Error(t, err)
	is, kind := IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, ForeignKeyViolationErr, kind)

	_, err = db.NewInsert().Model(&ledgerEntry{AccountID: acc.ID + 100}).Exec(ctx)
	assert.Error(t, err)
}

func TestForeignKeyClauseValidation(t *testing.T) {
	_, _, err := ForeignKey{Column: "a"}.clause()
	assert.Error(t, err)
	_, _, err = ForeignKey{Column: "a", ReferenceTable: "b", OnDelete: "DROP"}.clause()
	assert.Error(t, err)
	clause, args, err := ForeignKey{Column: "a", ReferenceTable: "b", OnDelete: "cascade", OnUpdate: "no action"}.clause()
	require.NoError(t, err)
	assert.Equal(t, "(?) REFERENCES ? (?) ON DELETE CASCADE ON UPDATE NO ACTION", clause)
	assert.Len(t, args, 3)
}

func TestRegistryOrdering(t *testing.T) {
	r := NewModelRegistry()
	a, b, c := &account{}, &ledgerEntry{}, &account{}
	r.Register(NewModelAdapter(b, 5), NewModelAdapter(a, 1), NewModelAdapter(c, 1))
	assert.Equal(t, []interface{}{a, c, b}, r.Instances())
}

func TestQueryLogHook(t *testing.T) {
	m := connect(t)
	buf := &bytes.Buffer{}
	m.GetDB().AddQueryHook(NewQueryLogHook(buf))

	var n int
	require.NoError(t, m.GetDB().NewSelect().ColumnExpr("1").Scan(context.Background(), &n))
	assert.Contains(t, buf.String(), "SELECT 1")
	assert.Contains(t, buf.String(), "[BUN]")

	buf.Reset()
	t.Setenv(QueryLogEnv, "0")
	require.NoError(t, m.GetDB().NewSelect().ColumnExpr("1").Scan(context.Background(), &n))
	assert.Empty(t, buf.String())
}
