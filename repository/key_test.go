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
	"math"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	id := uuid.MustParse("9b2f6c1e-3a4d-4e5f-8a9b-0c1d2e3f4a5b")

	cases := []struct {
		in    interface{}
		kind  KeyKind
		value interface{}
	}{
		{42, PrimaryKeyKind, 42},
		{int64(7), PrimaryKeyKind, int64(7)},
		{"42", PrimaryKeyKind, "42"},
		{"9b2f6c1e3a4d4e5f8a9b0c1d2e3f4a5b", PrimaryKeyKind, "9b2f6c1e3a4d4e5f8a9b0c1d2e3f4a5b"},
		{"9B2F6C1E-3A4D-4E5F-8A9B-0C1D2E3F4A5B", UUIDKeyKind, id.String()},
		{id, UUIDKeyKind, id.String()},
		{PK("abc"), PrimaryKeyKind, "abc"},
		{UUIDKey(id), UUIDKeyKind, id.String()},
	}
	for _, c := range cases {
		k := ParseKey(c.in)
		assert.Equal(t, c.kind, k.Kind(), "%v", c.in)
		assert.Equal(t, c.value, k.Value(), "%v", c.in)
	}
	assert.Equal(t, "uuid:"+id.String(), UUIDKey(id).String())
	assert.Equal(t, "primary:3", PK(3).String())
}

func TestAssign(t *testing.T) {
	var (
		i   int
		u8  uint8
		s   string
		p   *int
		b   bool
		f32 float32
	)
	set := func(dst interface{}, v interface{}) error {
		return assign(reflect.ValueOf(dst).Elem(), v)
	}

	require.NoError(t, set(&i, int64(12)))
	assert.Equal(t, 12, i)
	require.NoError(t, set(&i, 3.0))
	assert.Equal(t, 3, i)
	assert.Error(t, set(&i, 3.5))
	assert.Error(t, set(&i, math.Inf(1)))
	assert.Error(t, set(&u8, 300))
	assert.Error(t, set(&u8, -1))
	require.NoError(t, set(&u8, 255))
	assert.Equal(t, uint8(255), u8)

	require.NoError(t, set(&f32, 2))
	assert.Equal(t, float32(2), f32)

	assert.Error(t, set(&s, 65))
	require.NoError(t, set(&s, "x"))
	assert.Equal(t, "x", s)

	require.NoError(t, set(&p, 9))
	require.NotNil(t, p)
	assert.Equal(t, 9, *p)
	require.NoError(t, set(&p, nil))
	assert.Nil(t, p)

	require.NoError(t, set(&b, true))
	assert.True(t, b)
	assert.Error(t, set(&b, "true"))
}
