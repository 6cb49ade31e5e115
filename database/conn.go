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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalManager AbstractDatabaseManager
	globalConfig  *Config
)

// Open connects a new manager for cfg after applying the environment
// overrides, and migrates when asked to. The manager is closed again if any
// step fails.
func Open(ctx context.Context, cfg *Config, migrate bool) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, errors.New("database configuration cannot be empty")
	}
	ApplyEnvOverrides(&cfg.ConnectionConfig)
	cfg.LogConfig.apply()
	if _, err := lookupDriver(cfg.ConnectionConfig.Type); err != nil {
		return nil, err
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(GetLogger())
	if err := manager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate {
		if err := manager.RunMigrations(ctx); err != nil {
			_ = manager.Disconnect()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	return manager, nil
}

// InitDB opens the global store, migrating when
// DataMigrateConfig.EnableMigrateOnStartup is set.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, errors.New("database configuration cannot be empty")
	}
	return InitDatabaseWithOptions(cfg, cfg.DataMigrateConfig.EnableMigrateOnStartup)
}

func InitDBFromFile(path string) (*bun.DB, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return InitDB(cfg)
}

// InitDatabaseWithOptions opens the global store. A store opened earlier is
// closed once the new one is ready.
func InitDatabaseWithOptions(cfg *Config, runMigrations bool) (*bun.DB, error) {
	manager, err := Open(context.Background(), cfg, runMigrations)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	globalMu.Lock()
	previous := globalManager
	globalManager, globalConfig = manager, cfg
	globalMu.Unlock()

	if previous != nil {
		_ = previous.Disconnect()
	}
	GetLogger().Info("Database initialization completed", "type", cfg.ConnectionConfig.Type)
	return manager.GetDB(), nil
}

// CloseDB closes the global store and forgets it.
func CloseDB() error {
	globalMu.Lock()
	manager := globalManager
	globalManager, globalConfig = nil, nil
	globalMu.Unlock()

	if manager == nil {
		return nil
	}
	return manager.Disconnect()
}

// GetDB returns the current handle of the global store. It changes when the
// manager reconnects, so callers should not keep it across requests.
func GetDB() *bun.DB {
	if manager := GetDatabaseManager(); manager != nil {
		return manager.GetDB()
	}
	return nil
}

func GetConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

func GetDatabaseManager() AbstractDatabaseManager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

func GetHealthStatus(ctx context.Context) *HealthStatus {
	if manager := GetDatabaseManager(); manager != nil {
		return manager.HealthCheck(ctx)
	}
	return &HealthStatus{LastError: "Database not initialized"}
}

func GetDatabaseStats() sql.DBStats {
	if manager := GetDatabaseManager(); manager != nil {
		return manager.GetStats()
	}
	return sql.DBStats{}
}

// RunMigrations migrates the global store.
func RunMigrations() error {
	manager := GetDatabaseManager()
	if manager == nil {
		return errNotConnected
	}
	return manager.RunMigrations(context.Background())
}

// InitData seeds the global store from the configured SQL directory.
func InitData() error {
	manager := GetDatabaseManager()
	if manager == nil {
		return errNotConnected
	}
	return manager.InitData(context.Background())
}
