package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"skirmish/game/application"
)

var (
	// ErrInvalidRole は ROLE が local/host/join 以外の場合に返されるエラーです。
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidLogLevel は LOG_LEVEL が解釈できない場合に返されるエラーです。
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidViews は VIEWS が1未満の場合に返されるエラーです。
	ErrInvalidViews = errors.New("invalid views")
)

type Role string

const (
	RoleLocal Role = "local" // 同じプロセスで複数ビューを動かす
	RoleHost  Role = "host"  // ピアを1人受け入れてネットワーク対戦する
	RoleJoin  Role = "join"  // ホストへ接続してネットワーク対戦する
)

// Config は環境変数から読み込む起動設定です。
type Config struct {
	Role    Role   `env:"ROLE" envDefault:"local"`
	Addr    string `env:"ADDR" envDefault:"localhost"`
	Port    string `env:"PORT" envDefault:"9090"`
	HostURL string `env:"HOST_URL" envDefault:"ws://localhost:9090/ws"`

	Views     int           `env:"VIEWS" envDefault:"2"`
	Mode      string        `env:"MODE" envDefault:"timed"`
	TimeLimit time.Duration `env:"TIME_LIMIT" envDefault:"60s"`
	Lives     int           `env:"LIVES" envDefault:"10"`
	Quota     int           `env:"QUOTA" envDefault:"25"`
	LevelFile string        `env:"LEVEL_FILE"`
	LevelDir  string        `env:"LEVEL_DIR" envDefault:"."`

	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"10ms"`
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"16ms"`
	MaxTurn       time.Duration `env:"MAX_TURN" envDefault:"8ms"`
	FinishDelay   time.Duration `env:"FINISH_DELAY" envDefault:"50ms"`
	Linger        time.Duration `env:"LINGER" envDefault:"1s"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"skirmish"`
}

// Load は環境変数を読み込んで検証します。
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Role {
	case RoleLocal, RoleHost, RoleJoin:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, c.Role)
	}
	if c.Role == RoleLocal && c.Views < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidViews, c.Views)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Role == RoleLocal {
		if _, err := c.ModeConfig(); err != nil {
			return err
		}
	}
	return nil
}

// ListenAddr はホストが待ち受けるアドレスです。
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Addr, c.Port)
}

// ModeConfig は MODE と関連する変数からゲームモードを組み立てます。
func (c Config) ModeConfig() (application.ModeConfig, error) {
	switch application.ModeKind(c.Mode) {
	case application.ModeStock:
		return application.ModeConfigFrom(c.Mode, [2]int{c.Lives, c.Quota})
	default:
		return application.ModeConfigFrom(c.Mode, c.TimeLimit)
	}
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}
