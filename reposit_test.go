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

package reposit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/reposit/database"
	"github.com/tomoncle/reposit/model"
	"github.com/tomoncle/reposit/repository"
	"github.com/uptrace/bun"
)

type SystemConfig struct {
	bun.BaseModel `bun:"table:system_config,alias:sc"`
	model.Model

	ConfigKey   string `bun:"config_key,notnull,unique" json:"config_key"`
	ConfigValue string `bun:"config_value" json:"config_value"`
	ConfigType  string `bun:"config_type,notnull,default:'string'" json:"config_type"`
}

func sqliteConfig(t *testing.T) *database.Config {
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = "file:" + t.Name() + "?mode=memory&cache=shared"
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.BootstrapConfig.CreateTables = true
	return cfg
}

func TestOpenAndQuery(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, sqliteConfig(t), WithModels(database.NewModelAdapter((*SystemConfig)(nil), 1)))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Len(t, store.Models(), 1)
	assert.True(t, store.Health(ctx).Healthy)
	assert.Equal(t, 1, store.Stats().MaxOpenConns)

	configs := MustFor[SystemConfig](store)
	created, err := configs.Store(ctx, repository.Attributes{"config_key": "site.name", "config_value": "reposit", "config_type": "string"})
	require.NoError(t, err)

	found, err := configs.Dispatch(ctx, "findByConfigKey", "site.name")
	require.NoError(t, err)
	require.NotNil(t, found.One)
	assert.Equal(t, created.UUID, found.One.UUID)
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, nil)
	assert.Error(t, err)

	cfg := sqliteConfig(t)
	cfg.ConnectionConfig.Type = "oracle"
	_, err = Open(ctx, cfg)
	assert.Error(t, err)
}

func TestForWithoutDatabase(t *testing.T) {
	_, err := For[SystemConfig](nil)
	assert.ErrorIs(t, err, repository.ErrConfiguration)

	store, err := Open(context.Background(), sqliteConfig(t))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.Nil(t, store.DB())

	_, err = For[SystemConfig](store)
	assert.ErrorIs(t, err, repository.ErrConfiguration)
	assert.Panics(t, func() { MustFor[SystemConfig](store) })
}

func TestRepositoriesSurviveReconnect(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	cfg.ConnectionConfig.DBName = filepath.Join(t.TempDir(), "reposit.db")
	store, err := Open(ctx, cfg, WithModels(database.NewModelAdapter((*SystemConfig)(nil), 1)))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	configs := MustFor[SystemConfig](store)
	_, err = configs.Store(ctx, repository.Attributes{"config_key": "a", "config_value": "1"})
	require.NoError(t, err)

	require.NoError(t, store.factory.GetManager().Reconnect(ctx))
	assert.True(t, store.Health(ctx).Healthy)

	res, err := configs.Dispatch(ctx, "findByConfigKey", "a")
	require.NoError(t, err)
	require.NotNil(t, res.One)
	assert.Equal(t, "1", res.One.ConfigValue)
}
