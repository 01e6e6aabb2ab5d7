package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"skirmish/game/domain"
)

const (
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultFinishDelay   = 50 * time.Millisecond
)

// ErrInvalidViews はビュー数が不正な場合に返されるエラーです。
var ErrInvalidViews = errors.New("invalid number of views")

// Outcome は試合の結果です。
type Outcome string

const (
	OutcomeWon      Outcome = "won"
	OutcomeGameOver Outcome = "gameover"
)

// Summary は試合終了時のスコア集計です。
type Summary struct {
	MatchID    string
	Mode       ModeKind
	Outcome    Outcome
	Scores     []int
	TimePassed time.Duration
	Defeated   int
}

type ControllerConfig struct {
	Views         int
	Mode          ModeConfig
	Level         *domain.Level
	Inputs        []InputSource
	Clock         domain.Clock
	PollInterval  time.Duration
	FrameInterval time.Duration
	MaxTurn       time.Duration
	FinishDelay   time.Duration
	MaxEnemies    int
}

type matchState int

const (
	stateRunning matchState = iota
	stateWon
	stateLost
)

// Controller は複数ビューのゲームと共有の審判・スケジューラを束ね、
// 描画フレームごとに勝敗判定とポーズ同期を行います。
type Controller struct {
	id        uuid.UUID
	level     *domain.Level
	games     []*ShooterGame
	threads   []*ViewThread
	rules     *ShooterRules
	scheduler *ClockScheduler
	clock     domain.Clock

	frameInterval time.Duration
	finishDelay   time.Duration

	mu      sync.Mutex
	state   matchState
	summary *Summary
}

// NewController はビューごとのゲームとスレッドを生成し、審判をビュー0に束縛します。
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Views <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidViews, cfg.Views)
	}
	if cfg.Mode.Kind == ModeNetwork && cfg.Views != 1 {
		return nil, fmt.Errorf("%w: network mode needs exactly 1 view, got %d", ErrInvalidViews, cfg.Views)
	}
	if cfg.Clock == nil {
		cfg.Clock = domain.SystemClock
	}
	if cfg.Level == nil {
		cfg.Level = domain.DefaultArena()
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.FinishDelay <= 0 {
		cfg.FinishDelay = DefaultFinishDelay
	}
	rules, err := NewShooterRules(cfg.Mode, cfg.Clock)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		id:            uuid.New(),
		level:         cfg.Level,
		rules:         rules,
		scheduler:     NewClockScheduler(cfg.MaxTurn),
		clock:         cfg.Clock,
		frameInterval: cfg.FrameInterval,
		finishDelay:   cfg.FinishDelay,
	}
	networked := cfg.Mode.Kind == ModeNetwork
	opts := []GameOption{WithClock(cfg.Clock)}
	if cfg.MaxEnemies > 0 {
		opts = append(opts, WithMaxEnemies(cfg.MaxEnemies))
	}
	for i := range cfg.Views {
		g := NewShooterGame(i+1, cfg.Level, networked, opts...)
		if cfg.Mode.TimeLimit > 0 {
			g.SetTimeLimit(cfg.Mode.TimeLimit)
		}
		c.games = append(c.games, g)

		var input InputSource
		if i < len(cfg.Inputs) {
			input = cfg.Inputs[i]
		}
		name := threadName(i)
		c.scheduler.AddThread(name)
		c.threads = append(c.threads, NewViewThread(name, g, rules, c.scheduler, input, c.RequestPause, cfg.PollInterval, cfg.Clock))
	}
	rules.SetGame(c.games[0])
	return c, nil
}

func (c *Controller) ID() uuid.UUID              { return c.id }
func (c *Controller) Games() []*ShooterGame      { return c.games }
func (c *Controller) Threads() []*ViewThread     { return c.threads }
func (c *Controller) Rules() *ShooterRules       { return c.rules }
func (c *Controller) Scheduler() *ClockScheduler { return c.scheduler }
func (c *Controller) Level() *domain.Level       { return c.level }

// Run はすべてのビュースレッドとフレームループを実行し、試合が終わるか ctx がキャンセルされるまで待ちます。
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.InfoContext(ctx, "match started", "match", c.id, "views", len(c.games), "mode", c.rules.Mode(), "level", c.level.Name)
	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range c.threads {
		eg.Go(func() error {
			return t.Run(ctx)
		})
	}
	eg.Go(func() error {
		defer cancel()
		return c.RunFrames(ctx, c.frameInterval)
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	if s, ok := c.Summary(); ok {
		slog.InfoContext(ctx, "match finished", "match", c.id, "outcome", s.Outcome, "scores", s.Scores)
	}
	return nil
}

// RunFrames は interval ごとに Update を呼び出し、試合が終わったら戻ります。
func (c *Controller) RunFrames(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := c.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := c.clock.Now()
			done := c.Update(ctx, now.Sub(last))
			last = now
			if done {
				return nil
			}
		}
	}
}

// Update は1フレーム分の状態遷移を行います。試合が終わっていれば true を返します。
func (c *Controller) Update(ctx context.Context, frameDelta time.Duration) bool {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != stateRunning {
		return true
	}

	switch {
	case c.rules.IsGameWon():
		if c.rules.Mode() == ModeNetwork {
			// ピアの最終スコアが届くのを待つ
			select {
			case <-ctx.Done():
			case <-time.After(c.finishDelay):
			}
		}
		c.finish(ctx, stateWon)
		return true
	case c.rules.IsGameOver():
		c.finish(ctx, stateLost)
		return true
	default:
		c.scheduler.CheckCycle(frameDelta)
		c.SynchronisePause()
		return false
	}
}

func (c *Controller) finish(ctx context.Context, state matchState) {
	won := state == stateWon
	for _, t := range c.threads {
		t.Stop()
	}
	for _, g := range c.games {
		g.Freeze(won)
	}

	vars := c.rules.Vars()
	s := Summary{
		MatchID:    c.id.String(),
		Mode:       vars.Mode,
		Outcome:    OutcomeGameOver,
		TimePassed: vars.TimePassed,
		Defeated:   vars.Defeated,
	}
	if won {
		s.Outcome = OutcomeWon
	}
	if vars.Mode == ModeNetwork {
		v := c.games[0].Vars()
		s.Scores = []int{v.Score, v.NetScore}
	} else {
		for _, g := range c.games {
			s.Scores = append(s.Scores, g.Score())
		}
	}

	c.mu.Lock()
	c.state = state
	c.summary = &s
	c.mu.Unlock()
	slog.DebugContext(ctx, "match frozen", "match", c.id, "outcome", s.Outcome)
}

// RequestPause はビュー0のポーズを切り替えます。他のビューには SynchronisePause で伝播します。
func (c *Controller) RequestPause() {
	c.games[0].Pause()
}

// SynchronisePause はビュー0のポーズ状態を他のビューへ反映します。
func (c *Controller) SynchronisePause() {
	paused := c.games[0].IsPaused()
	for _, g := range c.games[1:] {
		if g.IsPaused() != paused {
			g.SetPause(paused)
		}
	}
}

func (c *Controller) AllPaused() bool {
	for _, g := range c.games {
		if !g.IsPaused() {
			return false
		}
	}
	return true
}

func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateRunning
}

// Summary は試合終了後のスコア集計を返します。終了前は false です。
func (c *Controller) Summary() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return Summary{}, false
	}
	return *c.summary, true
}

// Snapshots は全ビューのスナップショットを返します。
func (c *Controller) Snapshots() []GameSnapshot {
	out := make([]GameSnapshot, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g.Snapshot())
	}
	return out
}

// Stop はすべてのビュースレッドを停止し、スケジューラを空にします。
func (c *Controller) Stop() {
	for _, t := range c.threads {
		t.Stop()
	}
	c.scheduler.ClearScheduler()
}
