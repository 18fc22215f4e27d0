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

import "strings"

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
)

// BaseEnum represents a basic enum contract used by value types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Name() string
}

// SortDirection orders a listing column.
type SortDirection int

const (
	Asc SortDirection = iota
	Desc
)

var _ BaseEnum = Asc

func (d SortDirection) IsValid() bool { return d == Asc || d == Desc }

func (d SortDirection) Number() int {
	if !d.IsValid() {
		return IllegalValue
	}
	return int(d)
}

// Name returns the SQL keyword, ASC or DESC.
func (d SortDirection) Name() string {
	switch d {
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	default:
		return IllegalName
	}
}

func (d SortDirection) String() string { return d.Name() }

// ParseSortDirection accepts "asc"/"desc" in any case; anything else is invalid.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC", "":
		return Asc
	case "DESC":
		return Desc
	default:
		return SortDirection(IllegalValue)
	}
}
