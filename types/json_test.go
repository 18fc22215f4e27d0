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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonObject(t *testing.T) {
	v, err := JsonObject{"theme": "dark"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"theme":"dark"}`, v)

	var nilObj JsonObject
	v, err = nilObj.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var o JsonObject
	require.NoError(t, o.Scan([]byte(`{"a":1}`)))
	assert.Equal(t, float64(1), o["a"])
	require.NoError(t, o.Scan(`{"b":"x"}`))
	assert.Equal(t, JsonObject{"b": "x"}, o)
	require.NoError(t, o.Scan(nil))
	assert.NotNil(t, o)
	assert.Empty(t, o)
	assert.Error(t, o.Scan(42))
}

func TestJsonArray(t *testing.T) {
	v, err := JsonArray{{"id": "a"}}.Value()
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, v)

	var a JsonArray
	require.NoError(t, a.Scan(`[{"id":"a"},{"id":"b"}]`))
	require.Len(t, a, 2)
	assert.Equal(t, "b", a[1]["id"])
	require.NoError(t, a.Scan(""))
	assert.Empty(t, a)
}
