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
	"fmt"
	"os"
	"reflect"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Migration is a row of the schema_migrations table.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc runs inside the transaction that also records the migration.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// MigrationManager applies the versioned steps that build the schema and,
// when configured, seed it.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	cfg    *Config
}

// NewMigrationManager uses the global logger and DefaultConfig for nil arguments.
func NewMigrationManager(db *bun.DB, logger Logger, cfg *Config) *MigrationManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{db: db, logger: logger, cfg: cfg}
}

func (mm *MigrationManager) steps() []MigrationItem {
	steps := []MigrationItem{{
		Version:     "001",
		Name:        "create_base_tables",
		Description: "Create the registered tables with their foreign keys",
		Up:          mm.createBaseTables,
	}}
	if mm.cfg.DataInitConfig.AutoInitOnMigration {
		steps = append(steps, MigrationItem{
			Version:     "002",
			Name:        "seed_initial_data",
			Description: "Run the SQL seed files",
			Up:          mm.seedInitialData,
		})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })
	return steps
}

// RunMigrations applies every step not yet recorded, in version order.
// Query hooks stay quiet unless BUNDEBUG_MIGRATION is set.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return errNotConnected
	}
	if _, verbose := os.LookupEnv("BUNDEBUG_MIGRATION"); !verbose {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	applied, err := mm.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	for _, step := range mm.steps() {
		if done[step.Version] {
			continue
		}
		if err := mm.apply(ctx, step); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", step.Version, err)
		}
		mm.logger.Info("Migration applied", "version", step.Version, "name", step.Name)
	}
	return nil
}

func (mm *MigrationManager) apply(ctx context.Context, step MigrationItem) error {
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := step.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     step.Version,
			Name:        step.Name,
			AppliedAt:   time.Now().UTC(),
			Description: step.Description,
		}).Exec(ctx)
		return err
	})
}

// GetAppliedMigrations returns the recorded steps by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var applied []Migration
	err := mm.db.NewSelect().Model(&applied).Order("version ASC").Scan(ctx)
	return applied, err
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	var fks *ForeignKeyManager
	if mm.cfg.DataMigrateConfig.EnableForeignKey {
		fks = NewConfigurableForeignKeyManager(mm.logger, mm.cfg.DataMigrateConfig.ForeignKeyFile).ForeignKeyManager
		if errs := fks.ValidateConstraints(); len(errs) > 0 {
			for _, err := range errs {
				mm.logger.Error("Invalid foreign key constraint", "error", err)
			}
			return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
		}
	}

	for _, model := range RegisteredModelInstances() {
		q := db.NewCreateTable().Model(model).IfNotExists()
		if fks != nil {
			q = fks.ApplyToCreateTable(q, tableName(db, model))
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
		mm.logger.Debug("Table ready", "table", tableName(db, model))
	}
	return nil
}

// InitData runs the SQL seed files without recording a migration.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return errNotConnected
	}
	return mm.seedInitialData(ctx, mm.db)
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	seeds := NewSQLInitManager(db, mm.cfg.DataInitConfig.Environment, mm.logger)
	if root := mm.cfg.DataInitConfig.Filepath; root != "" {
		seeds.SetSQLRootPath(root)
	}
	if err := seeds.ExecuteInitialization(ctx); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

func tableName(db bun.IDB, model interface{}) string {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return db.Dialect().Tables().Get(t).Name
}
