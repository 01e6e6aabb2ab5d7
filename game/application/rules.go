package application

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"skirmish/game/domain"
)

const instrumentationName = "skirmish/game/application"

// ShooterRules は全ビューで共有される審判です。
// 一度に1つのゲームに束縛され、SetAndUpdate で束縛と1tick分の判定を不可分に行います。
type ShooterRules struct {
	mu sync.Mutex

	game *ShooterGame
	mode *gameMode
	vars RuleVars
	won  bool
	over bool

	tracer trace.Tracer
}

// NewShooterRules はモード設定から審判を生成します。
func NewShooterRules(cfg ModeConfig, clock domain.Clock) (*ShooterRules, error) {
	if clock == nil {
		clock = domain.SystemClock
	}
	mode, err := newGameMode(cfg, clock)
	if err != nil {
		return nil, err
	}
	return &ShooterRules{
		mode:   mode,
		vars:   mode.init(),
		tracer: otel.Tracer(instrumentationName),
	}, nil
}

func (r *ShooterRules) SetGame(g *ShooterGame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.game = g
}

// SetAndUpdate は g に束縛し直してから1tick分の判定を行います。
func (r *ShooterRules) SetAndUpdate(ctx context.Context, g *ShooterGame, dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.game = g
	r.updateGame(ctx, dt)
}

// UpdateGame は現在束縛しているゲームに対して1tick分の判定を行います。
func (r *ShooterRules) UpdateGame(ctx context.Context, dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.game == nil {
		return
	}
	r.updateGame(ctx, dt)
}

func (r *ShooterRules) updateGame(ctx context.Context, dt time.Duration) {
	g := r.game
	_, span := r.tracer.Start(ctx, "ShooterRules.UpdateGame", trace.WithAttributes(
		attribute.Int("view", g.index),
		attribute.String("mode", string(r.vars.Mode)),
	))
	defer span.End()

	g.mu.Lock()
	defer g.mu.Unlock()

	elapsed := scaleDuration(dt, g.vars.GameSpeed)
	r.runAI(g, elapsed)
	r.moveProjectiles(g, elapsed)
	r.resolveCollisions(g)
	r.sweepDeaths(g)

	r.mode.update(&r.vars, g.vars.GameSpeed)
	r.over = r.mode.lost(r.vars)
	r.vars.GameOver = r.over
	r.won = !r.over && r.mode.won(r.vars)
	if r.won {
		g.finished = true
	}
}

func (r *ShooterRules) runAI(g *ShooterGame, elapsed time.Duration) {
	for _, e := range slices.Clone(g.enemies) {
		e.PerformAction(&g.player.Entity, elapsed)
		g.spawnEnemyProjectile(e)
	}
}

func (r *ShooterRules) moveProjectiles(g *ShooterGame, elapsed time.Duration) {
	for _, b := range slices.Clone(g.bullets) {
		b.MoveBullet(elapsed)
	}
}

// resolveCollisions は接触ダメージ、弾の命中、壁、敵同士、境界の順に判定します。
func (r *ShooterRules) resolveCollisions(g *ShooterGame) {
	p := g.player
	alive := !p.IsDead()
	enemies := slices.Clone(g.enemies)
	bullets := slices.Clone(g.bullets)

	if alive {
		for _, e := range enemies {
			p.HitBy(&e.Entity)
		}
	}

	for _, b := range bullets {
		if b.IsDead() {
			continue
		}
		if !b.Friendly {
			if alive && p.HitBy(&b.Entity) {
				b.Die()
			}
			continue
		}
		for _, e := range enemies {
			if e.Health > 0 && e.HitBy(b) {
				b.Die()
				break
			}
		}
	}

	for _, w := range g.level.Solids() {
		p.SolidCollision(&w.Entity)
		if w.EnemyCollides {
			for _, e := range enemies {
				e.SolidCollision(&w.Entity)
			}
		}
		for _, b := range bullets {
			if b.CollidedWith(&w.Entity) {
				b.Die()
			}
		}
	}

	for i, e := range enemies {
		for j, other := range enemies {
			if i != j {
				e.SolidCollision(&other.Entity)
			}
		}
	}

	bounds := g.level.Bounds()
	p.KeepInBound(bounds)
	for _, e := range enemies {
		e.KeepInBound(bounds)
	}
}

// sweepDeaths は倒した敵の得点を加算して取り除き、死亡したプレイヤーを復活させます。
func (r *ShooterRules) sweepDeaths(g *ShooterGame) {
	live := make([]*domain.Enemy, 0, len(g.enemies))
	for _, e := range g.enemies {
		if e.CheckLiving() {
			live = append(live, e)
			continue
		}
		g.vars.Score += e.Points
		g.vars.Defeated++
		r.vars.Defeated++
	}
	g.enemies = live
	g.vars.CurEnemies = len(live)

	g.bullets = slices.DeleteFunc(g.bullets, func(b *domain.Bullet) bool { return b.IsDead() })

	p := g.player
	p.CheckLiving()
	if !p.DeathTimeUp() {
		return
	}
	g.vars.Lives--
	g.vars.Score /= 2
	r.vars.GlobalLives--
	p.Respawn()
	g.enemies = nil
	g.vars.CurEnemies = 0
}

func (r *ShooterRules) IsGameWon() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.won
}

func (r *ShooterRules) IsGameOver() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.over
}

// Vars は共有変数のコピーを返します。
func (r *ShooterRules) Vars() RuleVars {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vars
}

func (r *ShooterRules) Mode() ModeKind {
	return r.mode.cfg.Kind
}
