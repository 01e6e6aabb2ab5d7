package application

import (
	"context"
	"testing"
	"time"

	"skirmish/game/domain"
)

func newRulesFixture(t *testing.T, cfg ModeConfig) (*fakeClock, *ShooterGame, *ShooterRules) {
	t.Helper()
	clk := newFakeClock()
	g := NewShooterGame(1, openLevel(), cfg.Kind == ModeNetwork, WithClock(clk))
	r, err := NewShooterRules(cfg, clk)
	if err != nil {
		t.Fatalf("NewShooterRules: %v", err)
	}
	return clk, g, r
}

// killPlayer はプレイヤーを倒し、リスポーン待ちが明けるまで進めます。
func killPlayer(g *ShooterGame) {
	g.mu.Lock()
	g.player.SetHealth(0)
	g.mu.Unlock()
	g.Update(domain.PlayerDeathTime)
}

func TestShooterRules_UnknownMode(t *testing.T) {
	if _, err := NewShooterRules(ModeConfig{Kind: "arcade"}, nil); err == nil {
		t.Errorf("NewShooterRules(arcade) error = nil")
	}
}

func TestShooterRules_ContactDamageOncePerInvulnerability(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, TimedMode(time.Minute))
	g.AddEnemy(0, 0, 64, 64, domain.EnemyChase)

	r.SetAndUpdate(ctx, g, 10*time.Millisecond)
	s := g.Snapshot()
	if s.Player.Health != domain.PlayerInitialHealth-1 {
		t.Fatalf("Health = %d, want %d", s.Player.Health, domain.PlayerInitialHealth-1)
	}
	if !s.Invincible {
		t.Fatalf("Invincible = false after a hit")
	}

	r.SetAndUpdate(ctx, g, 10*time.Millisecond)
	if got := g.Snapshot().Player.Health; got != domain.PlayerInitialHealth-1 {
		t.Errorf("Health while invincible = %d, want %d", got, domain.PlayerInitialHealth-1)
	}
}

func TestShooterRules_FriendlyBulletsDefeatEnemy(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, TimedMode(time.Minute))
	g.AddEnemy(300, 0, 64, 64, domain.EnemyChase)
	g.AddBullet(domain.NewBullet(300, 0, 1, 0, domain.PlayerBulletSpeed, 1, true))
	g.AddBullet(domain.NewBullet(300, 0, 1, 0, domain.PlayerBulletSpeed, 1, true))

	r.SetAndUpdate(ctx, g, 10*time.Millisecond)

	s := g.Snapshot()
	if len(s.Enemies) != 0 {
		t.Errorf("len(Enemies) = %d, want 0", len(s.Enemies))
	}
	if len(s.Bullets) != 0 {
		t.Errorf("len(Bullets) = %d, want 0", len(s.Bullets))
	}
	if s.Score != 75 {
		t.Errorf("Score = %d, want 75", s.Score)
	}
	if got := r.Vars().Defeated; got != 1 {
		t.Errorf("Defeated = %d, want 1", got)
	}
}

func TestShooterRules_BulletBreaksOnFirstHit(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, TimedMode(time.Minute))
	g.AddEnemy(300, 0, 64, 64, domain.EnemyShoot)
	g.AddEnemy(300, 0, 64, 64, domain.EnemyShoot)
	g.AddBullet(domain.NewBullet(300, 0, 1, 0, domain.PlayerBulletSpeed, 1, true))

	r.SetAndUpdate(ctx, g, 10*time.Millisecond)

	total := 0
	for _, e := range g.Snapshot().Enemies {
		total += e.Health
	}
	if total != 5 {
		t.Errorf("total enemy health = %d, want 5", total)
	}
}

func TestShooterRules_EnemyBulletIgnoresEnemies(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, TimedMode(time.Minute))
	g.AddEnemy(300, 0, 64, 64, domain.EnemyChase)
	g.AddBullet(domain.NewBullet(300, 0, 1, 0, domain.EnemyBulletSpeed, 1, false))

	r.SetAndUpdate(ctx, g, 10*time.Millisecond)

	s := g.Snapshot()
	if len(s.Enemies) != 1 || s.Enemies[0].Health != 2 {
		t.Errorf("enemy = %+v, want one enemy at full health", s.Enemies)
	}
	if len(s.Bullets) != 1 {
		t.Errorf("len(Bullets) = %d, want 1", len(s.Bullets))
	}
}

func TestShooterRules_EnemyBulletHitsPlayer(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, TimedMode(time.Minute))
	g.AddBullet(domain.NewBullet(0, 0, 1, 0, domain.EnemyBulletSpeed, 2, false))

	r.SetAndUpdate(ctx, g, 10*time.Millisecond)

	s := g.Snapshot()
	if s.Player.Health != domain.PlayerInitialHealth-2 {
		t.Errorf("Health = %d, want %d", s.Player.Health, domain.PlayerInitialHealth-2)
	}
	if len(s.Bullets) != 0 {
		t.Errorf("len(Bullets) = %d, want 0", len(s.Bullets))
	}
}

func TestShooterRules_BulletLifetime(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, TimedMode(time.Minute))
	g.AddBullet(domain.NewBullet(800, 800, 0, 0, domain.PlayerBulletSpeed, 1, true))

	r.SetAndUpdate(ctx, g, domain.BulletLifetime-time.Millisecond)
	if n := len(g.Snapshot().Bullets); n != 1 {
		t.Fatalf("len(Bullets) before lifetime = %d, want 1", n)
	}
	r.SetAndUpdate(ctx, g, time.Millisecond)
	if n := len(g.Snapshot().Bullets); n != 0 {
		t.Errorf("len(Bullets) at lifetime = %d, want 0", n)
	}
}

func TestShooterRules_RespawnHalvesScore(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, StockMode(3, 25))
	g.AddEnemy(500, 500, 64, 64, domain.EnemyChase)
	g.mu.Lock()
	g.vars.Score = 101
	g.mu.Unlock()

	killPlayer(g)
	r.SetAndUpdate(ctx, g, 0)

	s := g.Snapshot()
	if s.Score != 50 {
		t.Errorf("Score = %d, want 50", s.Score)
	}
	if !s.PlayerAlive || s.Player.Health != domain.PlayerInitialHealth {
		t.Errorf("player alive/health = %v/%d, want true/%d", s.PlayerAlive, s.Player.Health, domain.PlayerInitialHealth)
	}
	if len(s.Enemies) != 0 {
		t.Errorf("len(Enemies) after respawn = %d, want 0", len(s.Enemies))
	}
	if got := r.Vars().GlobalLives; got != 2 {
		t.Errorf("GlobalLives = %d, want 2", got)
	}
}

func TestShooterRules_StockLoss(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, StockMode(3, 25))

	for i := range 3 {
		if r.IsGameOver() {
			t.Fatalf("IsGameOver() = true after %d deaths", i)
		}
		killPlayer(g)
		r.SetAndUpdate(ctx, g, 0)
	}
	if !r.IsGameOver() {
		t.Errorf("IsGameOver() = false after 3 deaths")
	}
	if r.IsGameWon() {
		t.Errorf("IsGameWon() = true on a lost game")
	}
	if !r.Vars().GameOver {
		t.Errorf("Vars().GameOver = false")
	}
}

func TestShooterRules_StockQuota(t *testing.T) {
	ctx := context.Background()
	_, g, r := newRulesFixture(t, StockMode(3, 25))
	r.mu.Lock()
	r.vars.Defeated = 24
	r.mu.Unlock()

	g.AddEnemy(500, 500, 64, 64, domain.EnemyChase)
	g.mu.Lock()
	g.enemies[0].SetHealth(0)
	g.mu.Unlock()

	r.SetAndUpdate(ctx, g, 10*time.Millisecond)

	if !r.IsGameWon() {
		t.Errorf("IsGameWon() = false at quota")
	}
	if !g.IsFinished() {
		t.Errorf("IsFinished() = false after winning")
	}
}

func TestShooterRules_TimedWin(t *testing.T) {
	ctx := context.Background()
	clk, g, r := newRulesFixture(t, TimedMode(time.Minute))

	clk.Advance(30 * time.Second)
	r.SetAndUpdate(ctx, g, 0)
	if r.IsGameWon() {
		t.Fatalf("IsGameWon() = true at 30s")
	}
	if got := r.Vars().TimeRemaining(); got != 30*time.Second {
		t.Errorf("TimeRemaining() = %v, want 30s", got)
	}

	clk.Advance(30 * time.Second)
	r.SetAndUpdate(ctx, g, 0)
	if !r.IsGameWon() {
		t.Errorf("IsGameWon() = false at the time limit")
	}
	if r.IsGameOver() {
		t.Errorf("IsGameOver() = true in timed mode")
	}
}

func TestShooterRules_TimedClockStopsWhilePaused(t *testing.T) {
	ctx := context.Background()
	clk, g, r := newRulesFixture(t, TimedMode(time.Minute))
	g.SetPause(true)

	clk.Advance(2 * time.Minute)
	r.SetAndUpdate(ctx, g, 0)

	if r.IsGameWon() {
		t.Errorf("IsGameWon() = true while paused")
	}
	if got := r.Vars().TimePassed; got != 0 {
		t.Errorf("TimePassed = %v, want 0", got)
	}
}

func TestShooterRules_UpdateGameWithoutGame(t *testing.T) {
	r, err := NewShooterRules(TimedMode(time.Minute), newFakeClock())
	if err != nil {
		t.Fatalf("NewShooterRules: %v", err)
	}
	r.UpdateGame(context.Background(), time.Second)
	if r.IsGameWon() || r.IsGameOver() {
		t.Errorf("unbound rules changed state")
	}
}
