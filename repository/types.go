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
	"errors"

	"github.com/google/uuid"
	"github.com/tomoncle/connectedoffice/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var (
	ErrNilPredicate = errors.New("repository: predicate is nil")
	ErrNilEntity    = errors.New("repository: entity is nil")
)

// Entity is implemented by models addressable by a single primary key.
type Entity[K comparable] interface {
	GetID() K
}

// Reader defines the read side of a repository.
type Reader[T any, K comparable] interface {
	// GetById returns the entity with the given id, or nil when no row matches.
	GetById(ctx context.Context, id K) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	// Find returns the entities satisfying the predicate at call time.
	Find(ctx context.Context, predicate Predicate[T]) ([]*T, error)
}

// Writer defines the write side of a repository. Every call is committed
// before it returns.
type Writer[T any] interface {
	Add(ctx context.Context, entity *T) error

	// AddRange inserts all entities in one statement. An empty slice is a no-op.
	AddRange(ctx context.Context, entities []*T) error

	// Update overwrites the row with the entity's primary key. It fails with
	// database.ErrNoRowsAffected when no such row exists.
	Update(ctx context.Context, entity *T) error

	Remove(ctx context.Context, entity *T) error

	RemoveRange(ctx context.Context, entities []*T) error
}

// Repository combines the read and write sides and exposes the underlying
// Bun session for queries the contract does not cover.
type Repository[T any, K comparable] interface {
	Reader[T, K]
	Writer[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
}

// DeviceRepository returns devices with their Category and Zone loaded
// from GetAll and GetById.
type DeviceRepository interface {
	Repository[models.Device, uuid.UUID]

	GetCategories(ctx context.Context) ([]*models.Category, error)

	GetZones(ctx context.Context) ([]*models.Zone, error)
}

type CategoryRepository interface {
	Repository[models.Category, uuid.UUID]
}

type ZoneRepository interface {
	Repository[models.Zone, uuid.UUID]
}
