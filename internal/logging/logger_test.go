package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"warning level", "warning", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Info", "Info", slog.LevelInfo},
		{"invalid level", "invalid", slog.LevelInfo},
		{"empty string", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != slog.LevelInfo {
		t.Errorf("Default level = %v, want %v", cfg.Level, slog.LevelInfo)
	}
	if cfg.FilePath != "" {
		t.Errorf("Default FilePath = %q, want empty", cfg.FilePath)
	}
	if cfg.MaxSize != 100 {
		t.Errorf("Default MaxSize = %d, want 100", cfg.MaxSize)
	}
	if cfg.MaxBackups != 5 {
		t.Errorf("Default MaxBackups = %d, want 5", cfg.MaxBackups)
	}
	if !cfg.Console {
		t.Error("Default Console should be true")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config func(dir string) Config
	}{
		{"console only", func(dir string) Config {
			return Config{Level: slog.LevelInfo, Console: true}
		}},
		{"file only", func(dir string) Config {
			return Config{
				Level:      slog.LevelDebug,
				FilePath:   filepath.Join(dir, "test.log"),
				MaxSize:    10,
				MaxBackups: 3,
			}
		}},
		{"console and file", func(dir string) Config {
			return Config{
				Level:      slog.LevelInfo,
				FilePath:   filepath.Join(dir, "test.log"),
				MaxSize:    10,
				MaxBackups: 3,
				Console:    true,
			}
		}},
		// Nothing enabled still yields a working console logger
		{"no outputs configured", func(dir string) Config {
			return Config{Level: slog.LevelInfo}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config(t.TempDir()))
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}
			if logger == nil {
				t.Fatal("NewLogger returned nil logger")
			}
		})
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "nested", "dir", "test.log")

	logger, err := NewLogger(Config{
		Level:      slog.LevelInfo,
		FilePath:   logFile,
		MaxSize:    10,
		MaxBackups: 1,
	})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("hello", "dataset", "links")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"hello"`) {
		t.Errorf("Log output missing message: %s", content)
	}
	if !strings.Contains(string(content), `"dataset":"links"`) {
		t.Errorf("Log output missing attribute: %s", content)
	}
}

func TestSetDefault(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	err := SetDefault(Config{
		Level:      slog.LevelDebug,
		FilePath:   logFile,
		MaxSize:    10,
		MaxBackups: 3,
	})
	if err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	slog.Info("test message from default logger")

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Errorf("Log file was not created at %s", logFile)
	}
}
