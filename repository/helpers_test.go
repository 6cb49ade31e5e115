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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/connectedoffice/database"
	"github.com/tomoncle/connectedoffice/models"
	"github.com/uptrace/bun"
)

// openStore returns a migrated in-memory SQLite store with foreign keys on.
func openStore(t *testing.T) *bun.DB {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = ":memory:"
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.ConnectionConfig.EnableQueryLog = false
	cfg.ConnectionConfig.SlowQueryTime = 0
	cfg.DataMigrateConfig.ForeignKeyFile = ""
	cfg.DataInitConfig.AutoInitOnMigration = false

	ctx := context.Background()
	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })
	require.NoError(t, manager.RunMigrations(ctx))
	return manager.GetDB()
}

var created = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newCategory(name string) *models.Category {
	return &models.Category{CategoryName: name, CategoryDescription: name + " devices", DateCreated: created}
}

func newZone(name string) *models.Zone {
	return &models.Zone{ZoneName: name, ZoneDescription: name + " area", DateCreated: created}
}

func newDevice(name string, category *models.Category, zone *models.Zone) *models.Device {
	d := &models.Device{DeviceName: name, Status: models.DeviceStatusOnline, IsActive: true, DateCreated: created}
	if category != nil {
		d.CategoryID = category.CategoryID
	}
	if zone != nil {
		d.ZoneID = zone.ZoneID
	}
	return d
}

func requireSameCategory(t *testing.T, want, got *models.Category) {
	t.Helper()
	require.NotNil(t, got)
	require.Equal(t, want.CategoryID, got.CategoryID)
	require.Equal(t, want.CategoryName, got.CategoryName)
	require.Equal(t, want.CategoryDescription, got.CategoryDescription)
	require.True(t, want.DateCreated.Equal(got.DateCreated), "date created: want %v, got %v", want.DateCreated, got.DateCreated)
}

func deviceNames(devices []*models.Device) []string {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.DeviceName)
	}
	return names
}
