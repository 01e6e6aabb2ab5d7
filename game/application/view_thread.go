package application

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"skirmish/game/domain"
)

// DefaultPollInterval はビュースレッドの tick 間隔です。
const DefaultPollInterval = 10 * time.Millisecond

// ViewThread は1ビュー分のシミュレーションスレッドです。
// ターンを持つ tick だけ入力を反映して審判を動かし、自身の運動は毎 tick 進めます。
type ViewThread struct {
	name      string
	game      *ShooterGame
	rules     *ShooterRules
	scheduler *ClockScheduler
	input     InputSource
	pause     func()

	interval time.Duration
	clock    domain.Clock
	logger   *slog.Logger

	active    atomic.Bool
	lastTick  time.Time
	sinceTurn time.Duration
	turns     atomic.Uint64
}

func NewViewThread(name string, game *ShooterGame, rules *ShooterRules, scheduler *ClockScheduler, input InputSource, pause func(), interval time.Duration, clock domain.Clock) *ViewThread {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	if input == nil {
		input = StaticInput{}
	}
	t := &ViewThread{
		name:      name,
		game:      game,
		rules:     rules,
		scheduler: scheduler,
		input:     input,
		pause:     pause,
		interval:  interval,
		clock:     clock,
		logger:    slog.With("view", name),
	}
	t.active.Store(true)
	return t
}

func (t *ViewThread) Name() string { return t.name }

// Run は interval ごとに Tick を呼び出します。ctx がキャンセルされるか Stop されると終了します。
func (t *ViewThread) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.lastTick = t.clock.Now()
	t.logger.DebugContext(ctx, "view thread started", "interval", t.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !t.active.Load() {
				t.logger.DebugContext(ctx, "view thread stopped", "turns", t.turns.Load())
				return nil
			}
			now := t.clock.Now()
			dt := now.Sub(t.lastTick)
			t.lastTick = now
			t.Tick(ctx, dt)
		}
	}
}

// Tick は dt 分だけビューを進めます。
// 入力と審判には前回ターンを得てからの経過時間を渡します。
func (t *ViewThread) Tick(ctx context.Context, dt time.Duration) {
	if !t.active.Load() {
		return
	}
	t.sinceTurn += dt
	turnDt := t.sinceTurn
	took := t.scheduler.Turn(t.name, func() {
		in := t.input.Poll(t.game.Snapshot())
		t.game.ApplyInput(in, turnDt)
		if in.Pause && !t.game.Networked() && t.pause != nil {
			t.pause()
		}
		t.rules.SetAndUpdate(ctx, t.game, turnDt)
	})
	if took {
		t.sinceTurn = 0
		t.turns.Add(1)
	}
	t.game.Update(dt)
}

// Stop はスレッドを停止させます。2回目以降は false を返します。
func (t *ViewThread) Stop() bool {
	return t.active.CompareAndSwap(true, false)
}

func (t *ViewThread) Active() bool  { return t.active.Load() }
func (t *ViewThread) Turns() uint64 { return t.turns.Load() }

func threadName(i int) string { return strconv.Itoa(i) }
