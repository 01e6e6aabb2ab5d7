package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"skirmish/game/application"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Role != RoleLocal {
		t.Errorf("Role = %q, want %q", cfg.Role, RoleLocal)
	}
	if cfg.ListenAddr() != "localhost:9090" {
		t.Errorf("ListenAddr() = %q, want %q", cfg.ListenAddr(), "localhost:9090")
	}
	if cfg.MaxTurn != 8*time.Millisecond {
		t.Errorf("MaxTurn = %v, want 8ms", cfg.MaxTurn)
	}
	if cfg.PollInterval != 10*time.Millisecond {
		t.Errorf("PollInterval = %v, want 10ms", cfg.PollInterval)
	}
	mode, err := cfg.ModeConfig()
	if err != nil {
		t.Fatalf("ModeConfig() error = %v", err)
	}
	if mode != application.TimedMode(time.Minute) {
		t.Errorf("ModeConfig() = %+v, want timed 1m", mode)
	}
}

func TestLoad_Stock(t *testing.T) {
	t.Setenv("MODE", "stock")
	t.Setenv("LIVES", "3")
	t.Setenv("QUOTA", "25")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	mode, err := cfg.ModeConfig()
	if err != nil {
		t.Fatalf("ModeConfig() error = %v", err)
	}
	if mode != application.StockMode(3, 25) {
		t.Errorf("ModeConfig() = %+v, want stock (3, 25)", mode)
	}
	if level, _ := cfg.SlogLevel(); level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want %v", level, slog.LevelDebug)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{name: "role", env: map[string]string{"ROLE": "spectator"}, wantErr: ErrInvalidRole},
		{name: "log level", env: map[string]string{"LOG_LEVEL": "loud"}, wantErr: ErrInvalidLogLevel},
		{name: "views", env: map[string]string{"VIEWS": "0"}, wantErr: ErrInvalidViews},
		{name: "mode", env: map[string]string{"MODE": "arcade"}, wantErr: application.ErrUnknownMode},
		{name: "stock lives", env: map[string]string{"MODE": "stock", "LIVES": "0"}, wantErr: application.ErrInvalidModeData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_UnparsableDuration(t *testing.T) {
	t.Setenv("TIME_LIMIT", "soon")
	if _, err := Load(); err == nil {
		t.Errorf("Load() error = nil for TIME_LIMIT=soon")
	}
}
