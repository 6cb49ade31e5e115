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
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		is    bool
		class SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", sql.ErrNoRows, true, NoRowsErr},
		{"no rows affected", fmt.Errorf("update device: %w", ErrNoRowsAffected), true, NoRowsErr},
		{"postgres duplicate", &pq.Error{Code: "23505"}, true, DuplicateKeyErr},
		{"postgres foreign key", fmt.Errorf("wrapped: %w", &pq.Error{Code: "23503"}), true, ForeignKeyViolationErr},
		{"postgres unmapped", &pq.Error{Code: "57014"}, true, UnknownErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, DuplicateKeyErr},
		{"mysql parent row", &mysql.MySQLError{Number: 1451}, true, ForeignKeyViolationErr},
		{"mysql unknown column", &mysql.MySQLError{Number: 1054}, true, NoColumnErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: category.category_id (1555)"), true, DuplicateKeyErr},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), true, ForeignKeyViolationErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: zone.zone_name"), true, NotNullViolationErr},
		{"sqlite no table", errors.New("SQL logic error: no such table: device (1)"), true, NoTableErr},
		{"unrelated", errors.New("connection reset by peer"), false, UnknownErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is, class := IsSqlError(tc.err)
			assert.Equal(t, tc.is, is)
			assert.Equal(t, tc.class, class, "got %s", class)
		})
	}
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "foreign_key_violation", ForeignKeyViolationErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}
