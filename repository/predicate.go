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
	"github.com/tomoncle/connectedoffice/types"
	"github.com/uptrace/bun"
)

// Predicate selects entities for Find. Apply narrows the SELECT sent to the
// store; Match is then evaluated against every loaded row.
type Predicate[T any] interface {
	Apply(q *bun.SelectQuery) *bun.SelectQuery
	Match(entity *T) bool
}

type matchPredicate[T any] struct {
	fn func(*T) bool
}

// Match builds a predicate evaluated in process over every row of the table.
// A nil fn yields a nil predicate.
func Match[T any](fn func(*T) bool) Predicate[T] {
	if fn == nil {
		return nil
	}
	return &matchPredicate[T]{fn: fn}
}

func (p *matchPredicate[T]) Apply(q *bun.SelectQuery) *bun.SelectQuery { return q }

func (p *matchPredicate[T]) Match(entity *T) bool { return p.fn(entity) }

type wherePredicate[T any] struct {
	filter *types.QueryFilter
}

// Where builds a predicate evaluated by the store. An empty filter matches
// every row; a malformed one fails when Find runs.
func Where[T any](filter *types.QueryFilter) Predicate[T] {
	return &wherePredicate[T]{filter: filter}
}

// WhereExpr is Where with an inline clause, e.g. WhereExpr[models.Device]("is_active = ?", true).
func WhereExpr[T any](query string, args ...interface{}) Predicate[T] {
	return Where[T](types.NewQueryFilter(query, args...))
}

func (p *wherePredicate[T]) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if p.filter.IsEmpty() {
		return q
	}
	return q.Where(p.filter.Schema, p.filter.Args...)
}

func (p *wherePredicate[T]) Match(*T) bool { return true }

type andPredicate[T any] []Predicate[T]

// And matches entities satisfying every non-nil predicate.
func And[T any](preds ...Predicate[T]) Predicate[T] {
	all := make(andPredicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			all = append(all, p)
		}
	}
	return all
}

func (p andPredicate[T]) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, pred := range p {
		q = pred.Apply(q)
	}
	return q
}

func (p andPredicate[T]) Match(entity *T) bool {
	for _, pred := range p {
		if !pred.Match(entity) {
			return false
		}
	}
	return true
}
