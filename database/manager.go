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
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

var errNotConnected = errors.New("database not connected")

type defaultDatabaseManager struct {
	cfg    *Config
	conn   *ConnectionConfig
	logger Logger

	mu     sync.RWMutex
	db     *bun.DB
	status HealthStatus
	// consecutive failed reconnects since the last healthy check
	failures int

	monitorOnce sync.Once
	stopOnce    sync.Once
	stop        chan struct{}
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// If cfg is nil, DefaultConfig is used.
func NewDatabaseManager(cfg *Config) AbstractDatabaseManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &defaultDatabaseManager{
		cfg:  cfg,
		conn: &cfg.ConnectionConfig,
		stop: make(chan struct{}),
	}
}

func (dm *defaultDatabaseManager) log() Logger {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if dm.logger == nil {
		return GetLogger()
	}
	return dm.logger
}

// Connect opens the pool and verifies it with a ping. Calling Connect on a
// connected manager is a no-op.
func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.db != nil {
		return nil
	}

	db, err := dm.open(ctx)
	if err != nil {
		dm.status.LastError = err.Error()
		return err
	}
	dm.db = db
	dm.failures = 0
	dm.status = HealthStatus{Healthy: true, Connected: true, LastCheckTime: time.Now()}

	if dm.conn.HealthCheckInterval > 0 {
		dm.monitorOnce.Do(func() { go dm.monitor() })
	}
	if dm.logger != nil {
		dm.logger.Info("Database connected", "type", dm.conn.Type, "host", dm.conn.Host, "dbname", dm.conn.DBName)
	}
	return nil
}

func (dm *defaultDatabaseManager) open(ctx context.Context) (*bun.DB, error) {
	drv, err := lookupDriver(dm.conn.Type)
	if err != nil {
		return nil, err
	}
	if dm.conn.ConnectTimeout <= 0 {
		dm.conn.ConnectTimeout = 30 * time.Second
	}

	sqlDB, err := drv.open(dm.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", dm.conn.Type, err)
	}
	configurePool(sqlDB, dm.conn, drv.sqlite)
	db := bun.NewDB(sqlDB, drv.dialect())
	db.RegisterModel(RegisteredModelInstances()...)

	pingCtx, cancel := context.WithTimeout(ctx, dm.conn.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}
	if drv.sqlite {
		if _, err := db.ExecContext(pingCtx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	if dm.conn.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true), bundebug.FromEnv("BUNDEBUG")))
	}
	if dm.conn.SlowQueryTime > 0 {
		logger := dm.logger
		if logger == nil {
			logger = GetLogger()
		}
		db.AddQueryHook(NewSlowQueryHook(dm.conn.SlowQueryTime, logger))
	}
	return db, nil
}

// configurePool applies the pool limits. SQLite gets a single connection that
// never expires: pragmas are per connection and an in-memory database lives
// only as long as its connection.
func configurePool(db *sql.DB, cfg *ConnectionConfig, sqlite bool) {
	if sqlite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// Disconnect closes the pool and stops the background health check for good.
func (dm *defaultDatabaseManager) Disconnect() error {
	dm.stopOnce.Do(func() { close(dm.stop) })
	return dm.closeDB()
}

func (dm *defaultDatabaseManager) closeDB() error {
	dm.mu.Lock()
	db := dm.db
	dm.db = nil
	dm.status.Connected = false
	dm.status.Healthy = false
	dm.mu.Unlock()

	if db == nil {
		return nil
	}
	err := db.Close()
	if err != nil {
		dm.log().Error("Failed to close database connection", "error", err)
	} else {
		dm.log().Info("Database connection closed")
	}
	return err
}

// Reconnect replaces the pool with a fresh one.
func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.log().Info("Reconnecting to the database", "type", dm.conn.Type)
	if err := dm.closeDB(); err != nil {
		dm.log().Warn("Error closing the previous connection", "error", err)
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return errNotConnected
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	if db := dm.GetDB(); db != nil {
		return db.DB
	}
	return nil
}

// HealthCheck pings the store and records the outcome.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	db := dm.GetDB()
	status := HealthStatus{LastCheckTime: time.Now()}
	if db == nil {
		status.LastError = "Database not initialized"
		return &status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := db.PingContext(pingCtx)
	cancel()
	status.ResponseTime = time.Since(status.LastCheckTime)
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}
	stats := db.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	dm.mu.Lock()
	dm.status = status
	if status.Healthy {
		dm.failures = 0
	}
	dm.mu.Unlock()
	return &status
}

func (dm *defaultDatabaseManager) monitor() {
	ticker := time.NewTicker(dm.conn.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-dm.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		healthy := dm.HealthCheck(ctx).Healthy
		cancel()
		if !healthy && dm.conn.EnableReconnect {
			dm.tryReconnect()
		}
	}
}

// tryReconnect makes one reconnect attempt after ReconnectInterval. After
// MaxReconnectTries failures in a row the monitor stops reconnecting until
// Connect or Reconnect succeeds from outside.
func (dm *defaultDatabaseManager) tryReconnect() {
	dm.mu.Lock()
	if dm.failures >= dm.conn.MaxReconnectTries {
		dm.mu.Unlock()
		dm.log().Error("Max reconnect attempts reached, monitor stopped reconnecting; call Reconnect to retry", "tries", dm.conn.MaxReconnectTries)
		return
	}
	dm.failures++
	attempt := dm.failures
	dm.mu.Unlock()

	select {
	case <-dm.stop:
		return
	case <-time.After(dm.conn.ReconnectInterval):
	}

	ctx, cancel := context.WithTimeout(context.Background(), dm.conn.ConnectTimeout)
	defer cancel()
	if err := dm.Reconnect(ctx); err != nil {
		dm.log().Error("Reconnect failed", "error", err, "try", attempt)
		return
	}
	dm.mu.Lock()
	dm.failures = 0
	dm.mu.Unlock()
	dm.log().Info("Reconnect succeeded", "try", attempt)
}

func (dm *defaultDatabaseManager) GetStats() sql.DBStats {
	if db := dm.GetDB(); db != nil {
		return db.Stats()
	}
	return sql.DBStats{}
}

func (dm *defaultDatabaseManager) migrations() (*MigrationManager, error) {
	db := dm.GetDB()
	if db == nil {
		return nil, errNotConnected
	}
	return NewMigrationManager(db, dm.log(), dm.cfg), nil
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	mm, err := dm.migrations()
	if err != nil {
		return err
	}
	return mm.RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) InitData(ctx context.Context) error {
	mm, err := dm.migrations()
	if err != nil {
		return err
	}
	return mm.InitData(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
