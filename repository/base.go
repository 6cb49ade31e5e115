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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomoncle/connectedoffice/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any, K comparable] struct {
	db        bun.IDB
	relations []string
}

// NewRepository returns a generic repository over db, which may be a
// *bun.DB, a bun.Conn or a bun.Tx.
func NewRepository[T any, K comparable, PT interface {
	*T
	Entity[K]
}](db bun.IDB) Repository[T, K] {
	return newBaseRepository[T, K](db)
}

// newBaseRepository joins the named relations when reading by GetAll and GetById.
func newBaseRepository[T any, K comparable](db bun.IDB, relations ...string) *baseRepositoryImpl[T, K] {
	return &baseRepositoryImpl[T, K]{db: db, relations: relations}
}

func (r *baseRepositoryImpl[T, K]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T, K]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T, K]) table() *schema.Table {
	return r.db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
}

func (r *baseRepositoryImpl[T, K]) withRelations(q *bun.SelectQuery) *bun.SelectQuery {
	for _, name := range r.relations {
		q = q.Relation(name)
	}
	return q
}

func (r *baseRepositoryImpl[T, K]) GetById(ctx context.Context, id K) (*T, error) {
	table := r.table()
	if len(table.PKs) != 1 {
		return nil, fmt.Errorf("repository: table %s has %d primary keys, want 1", table.Name, len(table.PKs))
	}
	entity := new(T)
	err := r.withRelations(r.db.NewSelect().Model(entity)).
		Where("?TableAlias.? = ?", bun.Ident(table.PKs[0].Name), id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		database.GetLogger().Debug("entity not found", "table", table.Name, "id", id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, K]) GetAll(ctx context.Context) ([]*T, error) {
	var entities []*T
	if err := r.withRelations(r.db.NewSelect().Model(&entities)).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T, K]) Find(ctx context.Context, predicate Predicate[T]) ([]*T, error) {
	if predicate == nil {
		return nil, ErrNilPredicate
	}
	var entities []*T
	if err := predicate.Apply(r.db.NewSelect().Model(&entities)).Scan(ctx); err != nil {
		return nil, err
	}
	matched := entities[:0]
	for _, entity := range entities {
		if predicate.Match(entity) {
			matched = append(matched, entity)
		}
	}
	database.GetLogger().Debug("find", "table", r.table().Name, "loaded", len(entities), "matched", len(matched))
	return matched, nil
}

func (r *baseRepositoryImpl[T, K]) Add(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}
	_, err := r.db.NewInsert().Model(entity).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T, K]) AddRange(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	rows, err := nonNil(entities)
	if err != nil {
		return err
	}
	if _, err = r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return err
	}
	database.GetLogger().Debug("add range", "table", r.table().Name, "rows", len(rows))
	return nil
}

func (r *baseRepositoryImpl[T, K]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}
	res, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNoRowsAffected
	}
	return nil
}

func (r *baseRepositoryImpl[T, K]) Remove(ctx context.Context, entity *T) error {
	if entity == nil {
		return ErrNilEntity
	}
	_, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T, K]) RemoveRange(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	rows, err := nonNil(entities)
	if err != nil {
		return err
	}
	res, err := r.db.NewDelete().Model(&rows).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		database.GetLogger().Debug("remove range", "table", r.table().Name, "requested", len(rows), "deleted", n)
	}
	return nil
}

// nonNil copies entities so Bun never sees the caller's slice, and rejects nil rows.
func nonNil[T any](entities []*T) ([]*T, error) {
	rows := make([]*T, len(entities))
	for i, entity := range entities {
		if entity == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilEntity, i)
		}
		rows[i] = entity
	}
	return rows, nil
}
