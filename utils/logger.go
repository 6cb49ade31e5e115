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

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const (
	defaultTimestampFormat = "2006-01-02 15:04:05.000"
	defaultNameWidth       = 10
)

// console holds every named logger. All of them write through one sink so
// the output can be swapped at runtime.
var console = &loggerRegistry{
	level:   ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info")),
	json:    isJSONFormat(EnvDefaultString("CONSOLE_LOG_FORMAT", "text")),
	out:     os.Stdout,
	loggers: map[string]*logrus.Logger{},
}

type loggerRegistry struct {
	mu      sync.RWMutex
	level   logrus.Level
	json    bool
	out     io.Writer
	loggers map[string]*logrus.Logger
}

func (r *loggerRegistry) formatter(name string) logrus.Formatter {
	if r.json {
		return &JSONLogFormatter{LoggerName: name}
	}
	return &Log4jColorFormatter{LoggerName: name, NameWidth: defaultNameWidth}
}

func (r *loggerRegistry) writer() io.Writer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.out
}

// Levels and Fire make the registry the logrus hook shared by all loggers.
func (r *loggerRegistry) Levels() []logrus.Level { return logrus.AllLevels }

func (r *loggerRegistry) Fire(e *logrus.Entry) error {
	line, err := e.Logger.Formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = r.writer().Write(line)
	return err
}

func isJSONFormat(format string) bool {
	return strings.EqualFold(strings.TrimSpace(format), "json")
}

// NewLogger returns the logger registered under name, creating it on first use.
func NewLogger(name string) *logrus.Logger {
	console.mu.Lock()
	defer console.mu.Unlock()
	if l, ok := console.loggers[name]; ok {
		return l
	}

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(console.level)
	l.SetReportCaller(true)
	l.SetFormatter(console.formatter(name))
	l.AddHook(console)
	console.loggers[name] = l
	return l
}

// RegisterLogger makes l reachable by name for SetLoggerLevel and ConfigureLogLevel.
func RegisterLogger(name string, l *logrus.Logger) {
	console.mu.Lock()
	console.loggers[name] = l
	console.mu.Unlock()
}

// SetConsoleOutput redirects every logger. A nil writer discards output.
func SetConsoleOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	console.mu.Lock()
	console.out = w
	console.mu.Unlock()
}

// ConfigureConsoleLogFormat switches all loggers between "text" and "json".
func ConfigureConsoleLogFormat(format string) {
	console.mu.Lock()
	defer console.mu.Unlock()
	console.json = isJSONFormat(format)
	for name, l := range console.loggers {
		l.SetFormatter(console.formatter(name))
	}
}

// ConfigureLogLevel sets the level of all loggers, including those created later.
func ConfigureLogLevel(level string) {
	console.mu.Lock()
	defer console.mu.Unlock()
	console.level = ParseLogLevel(level)
	for _, l := range console.loggers {
		l.SetLevel(console.level)
	}
}

// SetLoggerLevel reports false when no logger is registered under name.
func SetLoggerLevel(name string, level string) bool {
	console.mu.RLock()
	l, ok := console.loggers[name]
	console.mu.RUnlock()
	if ok {
		l.SetLevel(ParseLogLevel(level))
	}
	return ok
}

// ParseLogLevel falls back to info for unknown names.
func ParseLogLevel(s string) logrus.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warn" {
		s = "warning"
	}
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Log4jColorFormatter renders
// "<time> <LEVEL> <pid> - <name> <dir/file:line> : <message> k=v ...".
type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format(timestampFormat(f.TimestampFormat)))
	b.WriteByte(' ')
	b.WriteString(levelColor(entry.Level).wrap(fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))))
	b.WriteByte(' ')
	b.WriteString(ansiMagenta.wrap(fmt.Sprintf("%-6d", os.Getpid())))
	b.WriteString(" - ")
	b.WriteString(ansiCyan.wrap(f.paddedName()))
	if entry.Caller != nil {
		b.WriteByte(' ')
		b.WriteString(ansiFaint.wrap(callerLine(entry)))
	}
	b.WriteByte(' ')
	b.WriteString(ansiFaint.wrap(":"))
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *Log4jColorFormatter) paddedName() string {
	if f.NameWidth <= 0 {
		return f.LoggerName
	}
	name := []rune(f.LoggerName)
	if len(name) > f.NameWidth {
		name = name[:f.NameWidth]
	}
	return fmt.Sprintf("%*s", f.NameWidth, string(name))
}

// JSONLogFormatter writes one JSON object per line.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

type jsonRecord struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Model   string                 `json:"model"`
	Caller  string                 `json:"caller,omitempty"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonRecord{
		Time:    entry.Time.Format(timestampFormat(f.TimestampFormat)),
		Level:   entry.Level.String(),
		Model:   f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = callerLine(entry)
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			// errors marshal as {} otherwise
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(line, '\n'), nil
}

func timestampFormat(format string) string {
	if format == "" {
		return defaultTimestampFormat
	}
	return format
}

// callerLine renders the caller as "<dir>/<file>:<line>".
func callerLine(entry *logrus.Entry) string {
	dir, file := filepath.Split(filepath.Clean(entry.Caller.File))
	if parent := filepath.Base(dir); parent != "." && parent != string(filepath.Separator) {
		file = parent + "/" + file
	}
	return file + ":" + strconv.Itoa(entry.Caller.Line)
}

type ansiCode string

const (
	ansiFaint   ansiCode = "\x1b[2m"
	ansiRed     ansiCode = "\x1b[31m"
	ansiGreen   ansiCode = "\x1b[32m"
	ansiYellow  ansiCode = "\x1b[33m"
	ansiBlue    ansiCode = "\x1b[34m"
	ansiMagenta ansiCode = "\x1b[35m"
	ansiCyan    ansiCode = "\x1b[36m"
)

func (c ansiCode) wrap(s string) string { return string(c) + s + "\x1b[0m" }

func levelColor(level logrus.Level) ansiCode {
	switch {
	case level <= logrus.ErrorLevel:
		return ansiRed
	case level == logrus.WarnLevel:
		return ansiYellow
	case level == logrus.InfoLevel:
		return ansiGreen
	case level == logrus.DebugLevel:
		return ansiBlue
	}
	return ansiMagenta
}

func EnvDefaultString(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// EnvDefaultBool ignores values strconv.ParseBool rejects.
func EnvDefaultBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

// EnvDefaultDuration reads a duration such as "5s"; a bare integer is seconds.
func EnvDefaultDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
