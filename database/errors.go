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
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrNoRowsAffected is returned by the store when an update matches no row.
// Updates never fall back to an insert.
var ErrNoRowsAffected = errors.New("database: no rows affected")

// SQLError classifies a driver failure independently of the dialect.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "exist_index",
	ExistColumnErr:              "exist_column",
	NoTableErr:                  "no_table",
	ExistTableErr:               "exist_table",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_constraint_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
}

func (e SQLError) String() string {
	if name, ok := sqlErrorNames[e]; ok {
		return name
	}
	return sqlErrorNames[UnknownErr]
}

var pqErrorCodes = map[pq.ErrorCode]SQLError{
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23505": DuplicateKeyErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42701": ExistColumnErr,
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42804": InvalidTypeCastErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
}

var mysqlErrorNumbers = map[uint16]SQLError{
	1048: NotNullViolationErr,
	1054: NoColumnErr,
	1060: ExistColumnErr,
	1061: ExistIndexErr,
	1062: DuplicateKeyErr,
	1091: NoIndexErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	1265: DataTruncatedErr,
	3819: CheckConstraintViolationErr,
}

// messageRule matches lower-cased driver messages, which is all SQLite and
// wrapped errors give us. A rule matches when any phrase occurs, or when
// every word of one of the combinations occurs. Rules are tried in order.
type messageRule struct {
	class   SQLError
	phrases []string
	combos  [][]string
}

var messageRules = []messageRule{
	{class: NoColumnErr, phrases: []string{"sqlstate 42703", "undefined column", "no such column"}},
	{class: NoIndexErr, phrases: []string{"sqlstate 42704", "no such index"}, combos: [][]string{{"does not exist", "index"}}},
	{class: NoTableErr, phrases: []string{"sqlstate 42p01", "undefined table", "no such table"}},
	{class: ExistIndexErr, combos: [][]string{{"already exists", "index"}}},
	{class: ExistTableErr, combos: [][]string{{"already exists", "table"}, {"already exists", "relation"}}},
	{class: DuplicateKeyErr, phrases: []string{"sqlstate 23505", "duplicate key value", "duplicate entry", "unique constraint failed"}},
	{class: NotNullViolationErr, phrases: []string{"sqlstate 23502", "not-null constraint", "not null constraint failed"}},
	{class: ForeignKeyViolationErr, phrases: []string{"sqlstate 23503", "foreign key violation", "foreign key constraint failed", "foreign key constraint fails"}},
	{class: CheckConstraintViolationErr, phrases: []string{"sqlstate 23514", "check constraint"}},
	{class: DataTruncatedErr, phrases: []string{"sqlstate 22001", "string data right truncation", "data truncated"}},
	{class: InvalidTypeCastErr, phrases: []string{"sqlstate 42804", "datatype mismatch"}},
}

func (r messageRule) matches(msg string) bool {
	for _, p := range r.phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	for _, combo := range r.combos {
		all := true
		for _, word := range combo {
			if !strings.Contains(msg, word) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// IsSqlError reports whether err is a recognised store failure and its class.
// It only inspects err; the repositories return store errors unchanged.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNoRowsAffected) {
		return true, NoRowsErr
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return true, pqErrorCodes[pqErr.Code]
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return true, mysqlErrorNumbers[mysqlErr.Number]
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		if rule.matches(msg) {
			return true, rule.class
		}
	}
	return false, UnknownErr
}
