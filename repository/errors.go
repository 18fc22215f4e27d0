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

	"github.com/pkg/errors"
	"github.com/tomoncle/reposit/database"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("repository misconfigured")
	// ErrNotFound is returned when a required record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPersistenceRejected is matched by every *PersistenceError.
	ErrPersistenceRejected = errors.New("persistence rejected")
	// ErrUnsupportedOperation is returned for method names Dispatch cannot resolve.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrUnknownAttribute     = errors.New("unknown attribute")
	ErrInvalidAttribute     = errors.New("invalid attribute value")
	ErrImmutableAttribute   = errors.New("attribute is immutable")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// ConfigurationError reports a repository that cannot be bound to its entity type.
type ConfigurationError struct {
	Entity string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("repository for %s: %s", e.Entity, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// PersistenceError is a write the database refused, e.g. a constraint violation.
type PersistenceError struct {
	Op    string
	Table string
	Kind  database.SQLError
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s rejected (%s): %v", e.Op, e.Table, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceRejected
}

// writeError classifies a failed INSERT/UPDATE/DELETE. Constraint violations
// become *PersistenceError; other failures are wrapped and returned as is.
func writeError(op, table string, err error) error {
	if is, kind := database.IsSqlError(err); is && kind.IsConstraintViolation() {
		return &PersistenceError{Op: op, Table: table, Kind: kind, Err: err}
	}
	return errors.Wrapf(err, "%s %s", op, table)
}
