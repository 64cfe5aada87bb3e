package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autosort/internal/config"
	"autosort/internal/logging"
	"autosort/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (logPath string, read func() string, logger interface {
	Info(string, ...any)
	Debug(string, ...any)
	Warn(string, ...any)
}) {
	t.Helper()
	logPath = filepath.Join(t.TempDir(), "test.log")
	l, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	read = func() string {
		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(data)
	}
	return logPath, read, l
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	_, read, logger := newFileLogger(t, "console", "info")
	logger.Info("file moved", "component", "scheduler", "path", "/tmp/a b.txt", "rule", "Images")

	out := read()
	if !strings.Contains(out, "INFO") {
		t.Fatalf("expected level label, got %q", out)
	}
	if !strings.Contains(out, "scheduler: file moved") {
		t.Fatalf("expected component prefix, got %q", out)
	}
	if !strings.Contains(out, `path="/tmp/a b.txt"`) {
		t.Fatalf("expected quoted path, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes in file output, got %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	_, read, logger := newFileLogger(t, "console", "debug")
	logger.Debug("with caller")
	if out := read(); !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("expected caller information, got %q", out)
	}
}

func TestJSONLoggerEmitsErrorKind(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cause := services.Wrap(services.ErrSourceMissing, "history", "undo", "", nil)
	logger.Warn("undo refused", logging.Args(logging.Error(cause))...)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("level = %v", entry["level"])
	}
	if entry[logging.FieldErrorKind] != "source_missing" {
		t.Fatalf("error_kind = %v", entry[logging.FieldErrorKind])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts field in %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigWritesDatedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(logging.CurrentLogPath(cfg.Paths.LogDir, time.Now())); err != nil {
		t.Fatalf("expected dated log file: %v", err)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.WarnWithContext(logger, "watch error", "watch_error", logging.String(logging.FieldImpact, "events may be missed"))

	data, _ := os.ReadFile(logPath)
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "watch_error" {
		t.Fatalf("event_type = %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if entry[logging.FieldImpact] != "events may be missed" {
		t.Fatalf("impact overwritten: %v", entry[logging.FieldImpact])
	}
}

func TestWithContextAddsIdentifiers(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := services.WithPendingID(context.Background(), "p-1")
	ctx = services.WithRequestID(ctx, "r-9")
	logging.WithContext(ctx, base).Info("staged")

	data, _ := os.ReadFile(logPath)
	out := string(data)
	if !strings.Contains(out, "pending_id=p-1") || !strings.Contains(out, "request_id=r-9") {
		t.Fatalf("expected context fields, got %q", out)
	}
}

func TestCleanupOldLogsHonoursPatternAndExclusions(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -10)
	files := map[string]bool{
		"autosort-2020-01-01.log": true,
		"autosort-2020-01-02.log": false,
		"notes.txt":               false,
	}
	for name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "autosort-*.log",
		Exclude: []string{filepath.Join(dir, "autosort-2020-01-02.log")},
	})
	if removed != 1 {
		t.Fatalf("removed %d files, want 1", removed)
	}
	for name, wantGone := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		gone := errors.Is(err, os.ErrNotExist)
		if gone != wantGone {
			t.Fatalf("%s: gone=%v want %v", name, gone, wantGone)
		}
	}

	if n := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir}); n != 0 {
		t.Fatalf("expected disabled retention to remove nothing, removed %d", n)
	}
}
