package application

import (
	"errors"
	"fmt"
	"time"

	"skirmish/game/domain"
)

var (
	// ErrUnknownMode は未知のゲームモード名が指定された場合に返されるエラーです。
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrInvalidModeData はモードのパラメータが不正な場合に返されるエラーです。
	ErrInvalidModeData = errors.New("invalid mode data")
)

// ModeKind は勝敗ルールの種別です。
type ModeKind string

const (
	ModeTimed   ModeKind = "timed"   // 制限時間まで生き残れば勝ち
	ModeStock   ModeKind = "stock"   // 撃破ノルマ達成で勝ち、共有残機が尽きたら負け
	ModeNetwork ModeKind = "network" // 時間制、敗北判定はピア側
)

const DefaultGlobalLives = 10

// ModeConfig はモードごとのパラメータです。
type ModeConfig struct {
	Kind      ModeKind
	TimeLimit time.Duration
	Lives     int
	Quota     int
}

func TimedMode(limit time.Duration) ModeConfig {
	return ModeConfig{Kind: ModeTimed, TimeLimit: limit}
}

func StockMode(lives, quota int) ModeConfig {
	return ModeConfig{Kind: ModeStock, Lives: lives, Quota: quota}
}

func NetworkMode(limit time.Duration) ModeConfig {
	return ModeConfig{Kind: ModeNetwork, TimeLimit: limit}
}

// Validate はモードの種別とパラメータを検証します。
func (c ModeConfig) Validate() error {
	switch c.Kind {
	case ModeTimed, ModeNetwork:
		if c.TimeLimit <= 0 {
			return fmt.Errorf("%w: %s needs a positive time limit", ErrInvalidModeData, c.Kind)
		}
	case ModeStock:
		if c.Lives <= 0 || c.Quota <= 0 {
			return fmt.Errorf("%w: stock needs positive lives and quota, got (%d, %d)", ErrInvalidModeData, c.Lives, c.Quota)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Kind)
	}
	return nil
}

// ModeConfigFrom はモード名と任意型のパラメータから ModeConfig を作ります。
// timed/network はミリ秒の整数（int, int32, int64）か time.Duration、
// stock は [2]int または []int{lives, quota} を受け付けます。
func ModeConfigFrom(name string, data any) (ModeConfig, error) {
	var cfg ModeConfig
	switch kind := ModeKind(name); kind {
	case ModeTimed, ModeNetwork:
		limit, err := toDuration(data)
		if err != nil {
			return ModeConfig{}, err
		}
		cfg = ModeConfig{Kind: kind, TimeLimit: limit}
	case ModeStock:
		lives, quota, err := toPair(data)
		if err != nil {
			return ModeConfig{}, err
		}
		cfg = StockMode(lives, quota)
	default:
		return ModeConfig{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return cfg, cfg.Validate()
}

func toDuration(data any) (time.Duration, error) {
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int32:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case time.Duration:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: time limit of type %T", ErrInvalidModeData, data)
	}
}

func toPair(data any) (int, int, error) {
	switch v := data.(type) {
	case [2]int:
		return v[0], v[1], nil
	case []int:
		if len(v) == 2 {
			return v[0], v[1], nil
		}
		return 0, 0, fmt.Errorf("%w: stock needs 2 values, got %d", ErrInvalidModeData, len(v))
	default:
		return 0, 0, fmt.Errorf("%w: stock data of type %T", ErrInvalidModeData, data)
	}
}

// RuleVars は試合全体で共有されるスコア・残機・時間の記録です。
type RuleVars struct {
	Mode        ModeKind
	GlobalLives int
	Defeated    int
	DefeatQuota int
	TimePassed  time.Duration
	TimeLimit   time.Duration
	GameOver    bool
}

func (v RuleVars) TimeUp() bool {
	return v.TimePassed >= v.TimeLimit
}

func (v RuleVars) TimeRemaining() time.Duration {
	return max(v.TimeLimit-v.TimePassed, 0)
}

// gameMode はモード種別ごとの初期化・更新・勝敗判定を switch で切り替えます。
type gameMode struct {
	cfg        ModeConfig
	clock      domain.Clock
	lastUpdate time.Time
}

func newGameMode(cfg ModeConfig, clock domain.Clock) (*gameMode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &gameMode{cfg: cfg, clock: clock}, nil
}

func (m *gameMode) init() RuleVars {
	m.lastUpdate = m.clock.Now()
	v := RuleVars{Mode: m.cfg.Kind, GlobalLives: DefaultGlobalLives}
	switch m.cfg.Kind {
	case ModeTimed, ModeNetwork:
		v.TimeLimit = m.cfg.TimeLimit
	case ModeStock:
		v.GlobalLives = m.cfg.Lives
		v.DefeatQuota = m.cfg.Quota
	}
	return v
}

// update は前回の更新からの実時間を経過時間に加算します。
// 時間制のモードでは束縛中のビューの速度を掛けるため、一時停止中は進みません。
func (m *gameMode) update(v *RuleVars, speed float32) {
	now := m.clock.Now()
	elapsed := now.Sub(m.lastUpdate)
	m.lastUpdate = now
	switch m.cfg.Kind {
	case ModeTimed, ModeNetwork:
		v.TimePassed += scaleDuration(elapsed, speed)
	case ModeStock:
		v.TimePassed += elapsed
	}
}

func (m *gameMode) won(v RuleVars) bool {
	switch m.cfg.Kind {
	case ModeTimed, ModeNetwork:
		return v.TimeUp()
	case ModeStock:
		return v.Defeated >= v.DefeatQuota
	default:
		return false
	}
}

func (m *gameMode) lost(v RuleVars) bool {
	switch m.cfg.Kind {
	case ModeStock:
		return v.GlobalLives <= 0
	default:
		return false
	}
}
