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

	"github.com/google/uuid"
	"github.com/tomoncle/connectedoffice/models"
	"github.com/uptrace/bun"
)

type deviceRepositoryImpl struct {
	*baseRepositoryImpl[models.Device, uuid.UUID]
	categories Repository[models.Category, uuid.UUID]
	zones      Repository[models.Zone, uuid.UUID]
}

// NewDeviceRepository returns a DeviceRepository over db. Find does not load
// relations; only GetAll and GetById join Category and Zone.
func NewDeviceRepository(db bun.IDB) DeviceRepository {
	return &deviceRepositoryImpl{
		baseRepositoryImpl: newBaseRepository[models.Device, uuid.UUID](db, "Category", "Zone"),
		categories:         NewRepository[models.Category, uuid.UUID](db),
		zones:              NewRepository[models.Zone, uuid.UUID](db),
	}
}

func (r *deviceRepositoryImpl) GetCategories(ctx context.Context) ([]*models.Category, error) {
	return r.categories.GetAll(ctx)
}

func (r *deviceRepositoryImpl) GetZones(ctx context.Context) ([]*models.Zone, error) {
	return r.zones.GetAll(ctx)
}
