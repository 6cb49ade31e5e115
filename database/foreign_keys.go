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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

var (
	declaredForeignKeys   []ForeignKeyConstraint
	declaredForeignKeysMu sync.RWMutex
)

// ForeignKeyConstraint references ReferenceTable.ReferenceColumn from
// Table.Column. OnDelete and OnUpdate take CASCADE, RESTRICT, SET NULL or
// NO ACTION; empty leaves the store default.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete,omitempty"`
	OnUpdate        string `yaml:"on_update,omitempty"`
	ConstraintName  string `yaml:"constraint_name,omitempty"`
}

// RegisteredForeignKey declares a constraint in code; models call it from init.
func RegisteredForeignKey(fk ForeignKeyConstraint) {
	declaredForeignKeysMu.Lock()
	declaredForeignKeys = append(declaredForeignKeys, fk)
	declaredForeignKeysMu.Unlock()
}

func getForeignKeyConstraints() []ForeignKeyConstraint {
	declaredForeignKeysMu.RLock()
	defer declaredForeignKeysMu.RUnlock()
	return append([]ForeignKeyConstraint(nil), declaredForeignKeys...)
}

func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName == "" {
		return "fk_" + fk.Table + "_" + fk.Column
	}
	return fk.ConstraintName
}

// Apply adds the constraint to q as a table constraint. SQLite cannot add
// foreign keys after creation, so they are always declared here.
func (fk *ForeignKeyConstraint) Apply(q *bun.CreateTableQuery) *bun.CreateTableQuery {
	var clause strings.Builder
	clause.WriteString("(?) REFERENCES ? (?)")
	for _, action := range [...]struct{ on, rule string }{{"DELETE", fk.OnDelete}, {"UPDATE", fk.OnUpdate}} {
		if action.rule != "" {
			fmt.Fprintf(&clause, " ON %s %s", action.on, strings.ToUpper(action.rule))
		}
	}
	return q.ForeignKey(clause.String(), bun.Ident(fk.Column), bun.Ident(fk.ReferenceTable), bun.Ident(fk.ReferenceColumn))
}

func (fk *ForeignKeyConstraint) validate() []error {
	var errs []error
	for _, field := range [...]struct{ name, value string }{
		{"table", fk.Table},
		{"column", fk.Column},
		{"reference table", fk.ReferenceTable},
		{"reference column", fk.ReferenceColumn},
	} {
		if field.value == "" {
			errs = append(errs, fmt.Errorf("%s: %s is empty", fk.GenerateConstraintName(), field.name))
		}
	}
	for _, rule := range [...]struct{ on, value string }{{"delete", fk.OnDelete}, {"update", fk.OnUpdate}} {
		if !isReferentialAction(rule.value) {
			errs = append(errs, fmt.Errorf("%s: invalid on %s action %q", fk.GenerateConstraintName(), rule.on, rule.value))
		}
	}
	return errs
}

func isReferentialAction(action string) bool {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "", "CASCADE", "RESTRICT", "SET NULL", "NO ACTION":
		return true
	}
	return false
}

// ForeignKeyManager holds the constraints declared when tables are created.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager uses the constraints declared with RegisteredForeignKey.
func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	return &ForeignKeyManager{constraints: getForeignKeyConstraints(), logger: logger}
}

func (fkm *ForeignKeyManager) GetConstraintsByTable(table string) []ForeignKeyConstraint {
	var found []ForeignKeyConstraint
	for _, fk := range fkm.constraints {
		if strings.EqualFold(fk.Table, table) {
			found = append(found, fk)
		}
	}
	return found
}

// ApplyToCreateTable declares every constraint of table on q.
func (fkm *ForeignKeyManager) ApplyToCreateTable(q *bun.CreateTableQuery, table string) *bun.CreateTableQuery {
	for _, fk := range fkm.GetConstraintsByTable(table) {
		q = fk.Apply(q)
		if fkm.logger != nil {
			fkm.logger.Debug("Foreign key declared", "constraint", fk.GenerateConstraintName())
		}
	}
	return q
}

func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// ValidateConstraints returns one error per problem found.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error
	for i := range fkm.constraints {
		errs = append(errs, fkm.constraints[i].validate()...)
	}
	return errs
}

// ForeignKeyConfig is the YAML document holding foreign key constraints.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraint `yaml:"foreign_keys"`
}

// ConfigurableForeignKeyManager reads its constraints from a YAML file and
// falls back to the code-declared ones when the file cannot be used.
type ConfigurableForeignKeyManager struct {
	*ForeignKeyManager
	configPath string
}

func NewConfigurableForeignKeyManager(logger Logger, configPath string) *ConfigurableForeignKeyManager {
	cfm := &ConfigurableForeignKeyManager{ForeignKeyManager: NewForeignKeyManager(logger), configPath: configPath}
	if configPath == "" {
		return cfm
	}
	if err := cfm.ReloadConfig(); err != nil && logger != nil {
		logger.Debug("Using code-declared foreign keys", "config_path", configPath, "error", err)
	}
	return cfm
}

var errNoForeignKeyFile = errors.New("foreign key config file not set")

// ReloadConfig replaces the constraints with the content of the config file.
func (cfm *ConfigurableForeignKeyManager) ReloadConfig() error {
	if cfm.configPath == "" {
		return errNoForeignKeyFile
	}
	data, err := os.ReadFile(cfm.configPath)
	if err != nil {
		return fmt.Errorf("failed to read foreign key config: %w", err)
	}
	var doc ForeignKeyConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse foreign key config: %w", err)
	}
	cfm.constraints = doc.ForeignKeys
	return nil
}

// ExportToConfig writes the current constraints to outputPath, creating
// parent directories as needed.
func (cfm *ConfigurableForeignKeyManager) ExportToConfig(outputPath string) error {
	data, err := yaml.Marshal(&ForeignKeyConfig{ForeignKeys: cfm.constraints})
	if err != nil {
		return fmt.Errorf("failed to serialize foreign key config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func (cfm *ConfigurableForeignKeyManager) GetConfigPath() string {
	return cfm.configPath
}
