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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/uptrace/bun"
)

const (
	commonSeedDir  = "common"
	unorderedFile  = 999
	seedTimeFormat = "2006-01-02 15:04:05"
)

var seedOrderPrefix = regexp.MustCompile(`^(\d+)_`)

// SQLInitManager executes the SQL seed files of a fresh installation, e.g.
// the category and zone lookup rows.
//
// Layout under the root path:
//
//	common/NNN_name.sql
//	environments/<env>/NNN_name.sql
type SQLInitManager struct {
	db          bun.IDB
	environment string
	root        string
	logger      Logger
}

type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
	ModTime     time.Time
}

func NewSQLInitManager(db bun.IDB, environment string, logger Logger) *SQLInitManager {
	if environment == "" {
		environment = "prod"
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &SQLInitManager{db: db, environment: environment, root: "configs/sql", logger: logger}
}

func (s *SQLInitManager) SetSQLRootPath(path string) {
	s.root = path
}

// ExecuteInitialization runs the seed files in order. Each file runs in its
// own transaction and the first failing file stops the run.
func (s *SQLInitManager) ExecuteInitialization(ctx context.Context) error {
	files, err := s.GetSQLFiles()
	if err != nil {
		return fmt.Errorf("failed to get SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL seed files", "path", s.root, "environment", s.environment)
		return nil
	}

	for _, file := range files {
		start := time.Now()
		rows, err := s.executeFile(ctx, file.Path)
		if err != nil {
			s.logger.Error("SQL file execution failed", "file", file.Path, "error", err)
			return fmt.Errorf("SQL file execution failed %s: %w", file.Path, err)
		}
		s.logger.Info("SQL file executed", "file", file.Path, "rows_affected", rows, "duration", time.Since(start).String())
	}
	s.logger.Info("SQL initialization completed", "files", len(files), "environment", s.environment)
	return nil
}

// GetSQLFiles lists the common files and then the environment files, each
// group ordered by numeric prefix and name.
func (s *SQLInitManager) GetSQLFiles() ([]SQLFileInfo, error) {
	common, err := listSeedDir(filepath.Join(s.root, commonSeedDir), commonSeedDir)
	if err != nil {
		return nil, err
	}
	env, err := listSeedDir(filepath.Join(s.root, "environments", s.environment), s.environment)
	if err != nil {
		return nil, err
	}
	return append(common, env...), nil
}

func listSeedDir(dir, group string) ([]SQLFileInfo, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s SQL files: %w", group, err)
	}

	var files []SQLFileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, SQLFileInfo{
			Path:        filepath.Join(dir, entry.Name()),
			Name:        entry.Name(),
			Order:       parseFileOrder(entry.Name()),
			Environment: group,
			ModTime:     info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order == files[j].Order {
			return files[i].Name < files[j].Name
		}
		return files[i].Order < files[j].Order
	})
	return files, nil
}

func parseFileOrder(name string) int {
	m := seedOrderPrefix.FindStringSubmatch(name)
	if m == nil {
		return unorderedFile
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return unorderedFile
	}
	return n
}

func (s *SQLInitManager) executeFile(ctx context.Context, path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}
	content, err := s.replaceEnvVariables(string(raw))
	if err != nil {
		return 0, err
	}
	statements := splitSQLStatements(content)
	if len(statements) == 0 {
		return 0, nil
	}

	var total int64
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			res, err := tx.ExecContext(ctx, stmt)
			if err != nil {
				return fmt.Errorf("statement %q: %w", stmt, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				total += n
			}
		}
		return nil
	})
	return total, err
}

// replaceEnvVariables renders {{.NAME}} with environment variables.
// ENVIRONMENT and TIMESTAMP are always set; unknown names render empty.
func (s *SQLInitManager) replaceEnvVariables(content string) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}
	tmpl, err := template.New("seed").Option("missingkey=zero").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	vars := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	vars["ENVIRONMENT"] = s.environment
	vars["TIMESTAMP"] = time.Now().Format(seedTimeFormat)

	var out strings.Builder
	if err := tmpl.Execute(&out, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return out.String(), nil
}

// splitSQLStatements ends a statement at a line ending with ";". Blank lines
// and "--" comment lines are dropped.
func splitSQLStatements(content string) []string {
	var (
		statements []string
		parts      []string
	)
	flush := func() {
		if len(parts) > 0 {
			statements = append(statements, strings.Join(parts, " "))
			parts = parts[:0]
		}
	}

	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		parts = append(parts, line)
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()
	return statements
}
