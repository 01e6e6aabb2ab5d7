package application

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMaxTurn は1ターンの最大時間です。これを超えると強制的に次へ回します。
const DefaultMaxTurn = 8 * time.Millisecond

// ClockScheduler は審判を操作できるスレッドを名前の巡回で決めます。
//
// ターンは2通りで進みます。特権スレッドが判定を終えて自発的に譲る場合と、
// 描画ループから CheckCycle で積算した時間が maxTurn に達した場合です。
// Turn は排他ロックを保持して fn を実行するため、強制的に巡回しても
// 2つのスレッドが同時に審判を操作することはありません。
type ClockScheduler struct {
	mu      sync.Mutex
	names   []string
	current int
	runtime time.Duration
	maxTurn time.Duration

	turn sync.Mutex

	cycles metric.Int64Counter
}

func NewClockScheduler(maxTurn time.Duration) *ClockScheduler {
	if maxTurn <= 0 {
		maxTurn = DefaultMaxTurn
	}
	s := &ClockScheduler{maxTurn: maxTurn}
	cycles, err := otel.Meter(instrumentationName).Int64Counter("scheduler.cycles",
		metric.WithDescription("number of turn changes"),
	)
	if err != nil {
		slog.Warn("scheduler metrics disabled", "err", err)
	} else {
		s.cycles = cycles
	}
	return s
}

func (s *ClockScheduler) MaxTurn() time.Duration { return s.maxTurn }

// AddThread は巡回の末尾に参加者を追加します。
func (s *ClockScheduler) AddThread(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
}

// RemoveThread は最初に一致した参加者を取り除きます。現在の特権位置は有効な範囲に保ちます。
func (s *ClockScheduler) RemoveThread(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.names, name)
	if i < 0 {
		return false
	}
	wasCurrent := i == s.current
	s.names = slices.Delete(s.names, i, i+1)
	switch {
	case len(s.names) == 0:
		s.current = 0
	case i < s.current:
		s.current--
	case s.current >= len(s.names):
		s.current = 0
	}
	if wasCurrent {
		s.runtime = 0
	}
	return true
}

// CurrentThread は現在ターンを持つ参加者の名前を返します。参加者がいなければ false です。
func (s *ClockScheduler) CurrentThread() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.names) == 0 {
		return "", false
	}
	return s.names[s.current], true
}

// Threads は参加者の一覧のコピーを返します。
func (s *ClockScheduler) Threads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.names)
}

// Cycle はターンを次の参加者へ進め、積算時間をリセットします。
func (s *ClockScheduler) Cycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle("voluntary")
}

func (s *ClockScheduler) cycle(trigger string) {
	s.runtime = 0
	if len(s.names) == 0 {
		return
	}
	s.current = (s.current + 1) % len(s.names)
	if s.cycles != nil {
		s.cycles.Add(context.Background(), 1, metric.WithAttributes(attribute.String("trigger", trigger)))
	}
}

// CheckCycle は経過時間を積算し、maxTurn に達していれば1回だけ強制的に巡回します。
func (s *ClockScheduler) CheckCycle(dt time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runtime += dt
	if s.runtime < s.maxTurn {
		return false
	}
	s.cycle("forced")
	return true
}

// Yield は name がまだターンを持っていれば次へ譲ります。
// 強制巡回で既にターンが移っている場合は何もしません。
func (s *ClockScheduler) Yield(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.names) == 0 || s.names[s.current] != name {
		return false
	}
	s.cycle("voluntary")
	return true
}

// Turn は name がターンを持っていれば排他ロックの下で fn を実行し、その後ターンを譲ります。
func (s *ClockScheduler) Turn(name string, fn func()) bool {
	if cur, ok := s.CurrentThread(); !ok || cur != name {
		return false
	}
	func() {
		s.turn.Lock()
		defer s.turn.Unlock()
		fn()
	}()
	s.Yield(name)
	return true
}

// ClearScheduler はすべての参加者を取り除きます。
func (s *ClockScheduler) ClearScheduler() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = nil
	s.current = 0
	s.runtime = 0
}
