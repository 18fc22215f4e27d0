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
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/reposit/model"
)

// KeyKind tells which column a Key is matched against.
type KeyKind int

const (
	PrimaryKeyKind KeyKind = iota
	UUIDKeyKind
)

func (k KeyKind) String() string {
	if k == UUIDKeyKind {
		return "uuid"
	}
	return "primary"
}

// Key identifies one record either by primary key or by UUID.
type Key struct {
	kind  KeyKind
	value interface{}
}

// PK returns a primary key identifier.
func PK(value interface{}) Key {
	return Key{kind: PrimaryKeyKind, value: value}
}

// UUIDKey returns a UUID identifier.
func UUIDKey(id uuid.UUID) Key {
	return Key{kind: UUIDKeyKind, value: id.String()}
}

// ParseKey classifies an untyped identifier, e.g. one taken from a URL.
// A uuid.UUID or a UUID-shaped string is a UUID key; anything else is a
// primary key.
func ParseKey(id interface{}) Key {
	switch v := id.(type) {
	case Key:
		return v
	case uuid.UUID:
		return UUIDKey(v)
	case string:
		if model.IsUUID(v) {
			return Key{kind: UUIDKeyKind, value: strings.ToLower(v)}
		}
	}
	return PK(id)
}

func (k Key) Kind() KeyKind { return k.kind }

func (k Key) Value() interface{} { return k.value }

func (k Key) String() string {
	return fmt.Sprintf("%s:%v", k.kind, k.value)
}
