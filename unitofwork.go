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

// Package connectedoffice wires the connected office repositories to a store
// session.
package connectedoffice

import (
	"errors"
	"sync"

	"github.com/tomoncle/connectedoffice/database"
	"github.com/tomoncle/connectedoffice/repository"
	"github.com/uptrace/bun"
)

var ErrDatabaseNotInitialized = errors.New("connectedoffice: database not initialized")

// UnitOfWork hands out the repositories bound to one store session. Each
// repository is created on first use and reused afterwards. A UnitOfWork is
// meant for a single request and is not safe for concurrent use.
type UnitOfWork struct {
	db bun.IDB

	devicesOnce    sync.Once
	devices        repository.DeviceRepository
	categoriesOnce sync.Once
	categories     repository.CategoryRepository
	zonesOnce      sync.Once
	zones          repository.ZoneRepository
}

// NewUnitOfWork binds the repositories to db, a *bun.DB or an open bun.Tx.
func NewUnitOfWork(db bun.IDB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Default binds a UnitOfWork to the global database set up by database.InitDB.
func Default() (*UnitOfWork, error) {
	db := database.GetDB()
	if db == nil {
		return nil, ErrDatabaseNotInitialized
	}
	return NewUnitOfWork(db), nil
}

func (u *UnitOfWork) Devices() repository.DeviceRepository {
	u.devicesOnce.Do(func() { u.devices = repository.NewDeviceRepository(u.db) })
	return u.devices
}

func (u *UnitOfWork) Categories() repository.CategoryRepository {
	u.categoriesOnce.Do(func() { u.categories = repository.NewCategoryRepository(u.db) })
	return u.categories
}

func (u *UnitOfWork) Zones() repository.ZoneRepository {
	u.zonesOnce.Do(func() { u.zones = repository.NewZoneRepository(u.db) })
	return u.zones
}
