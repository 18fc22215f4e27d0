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
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// JsonObject is an entity attribute stored as a JSON object in a text column.
// A plain map[string]interface{} is assignable to it, so it can be set
// through repository Attributes.
type JsonObject map[string]interface{}

// JsonArray is an entity attribute stored as a JSON array of objects.
type JsonArray []JsonObject

// Value implements driver.Valuer for JsonObject.
func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalText(j)
}

// Scan implements sql.Scanner for JsonObject. NULL scans to an empty object.
func (j *JsonObject) Scan(value interface{}) error {
	*j = make(JsonObject)
	return unmarshalColumn(value, j)
}

// Value implements driver.Valuer for JsonArray.
func (j JsonArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalText(j)
}

// Scan implements sql.Scanner for JsonArray. NULL scans to an empty array.
func (j *JsonArray) Scan(value interface{}) error {
	*j = make(JsonArray, 0)
	return unmarshalColumn(value, j)
}

func marshalText(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// unmarshalColumn accepts both []byte and string, as drivers differ in what
// they return for text columns.
func unmarshalColumn(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into a JSON column", value)
	}
}
