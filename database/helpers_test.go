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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widgetKind struct {
	bun.BaseModel `bun:"table:widget_kind"`

	ID   int64  `bun:"id,pk"`
	Name string `bun:"name,notnull"`
}

type widget struct {
	bun.BaseModel `bun:"table:widget"`

	ID     int64  `bun:"id,pk"`
	Label  string `bun:"label"`
	KindID int64  `bun:"kind_id,nullzero"`
}

func init() {
	RegisteredModel(NewModelAdapter((*widget)(nil), 2))
	RegisteredModel(NewModelAdapter((*widgetKind)(nil), 1))
	RegisteredForeignKey(ForeignKeyConstraint{
		Table:           "widget",
		Column:          "kind_id",
		ReferenceTable:  "widget_kind",
		ReferenceColumn: "id",
		OnDelete:        "CASCADE",
	})
}

func memoryConfig() *Config {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = ":memory:"
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.ConnectionConfig.SlowQueryTime = 0
	cfg.DataInitConfig.AutoInitOnMigration = false
	return cfg
}

func connect(t *testing.T, cfg *Config) AbstractDatabaseManager {
	t.Helper()
	manager := NewDatabaseManager(cfg)
	manager.SetLogger(&recordingLogger{})
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })
	return manager
}

type logLine struct {
	level  string
	msg    string
	fields []interface{}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) record(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) SetLevel(LogLevel) {}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) { l.record("debug", msg, fields) }

func (l *recordingLogger) Info(msg string, fields ...interface{}) { l.record("info", msg, fields) }

func (l *recordingLogger) Warn(msg string, fields ...interface{}) { l.record("warn", msg, fields) }

func (l *recordingLogger) Error(msg string, fields ...interface{}) { l.record("error", msg, fields) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if line.level == level {
			n++
		}
	}
	return n
}

func (l *recordingLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprint(l.lines)
}
