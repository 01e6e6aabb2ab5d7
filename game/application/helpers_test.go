package application

import (
	"sync"
	"time"

	"skirmish/game/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// openLevel は壁もスポナーもない 2000x2000 のレベルです。
func openLevel() *domain.Level {
	return &domain.Level{Name: "open", Width: 2000, Height: 2000}
}
