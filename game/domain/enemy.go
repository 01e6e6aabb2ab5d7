package domain

import (
	"fmt"
	"time"
)

// EnemyKind は敵の種別です。種別ごとの能力値と行動は enemyStats で固定されています。
type EnemyKind string

const (
	EnemyShoot EnemyKind = "shoot" // 射程内で停止して撃つ
	EnemyChase EnemyKind = "chase" // 撃たずに追い続ける
)

const (
	EnemyRange        = 128
	EnemyFireInterval = 10000 * time.Millisecond
	EnemyBulletSpeed  = 3
	enemyKnockback    = 16
	enemyAccel        = 30
	enemyDecel        = 20
)

// EnemyKinds はスポナーが選択できる敵種別の一覧です。
var EnemyKinds = []EnemyKind{EnemyShoot, EnemyChase}

type enemyStats struct {
	health int
	damage int
	speed  float32
	shoots bool
	points int
}

var enemyStatsByKind = map[EnemyKind]enemyStats{
	EnemyShoot: {health: 3, damage: 1, speed: 1.2, shoots: true, points: 100},
	EnemyChase: {health: 2, damage: 1, speed: 2.0, shoots: false, points: 75},
}

// Enemy は AI によって動く敵です。
type Enemy struct {
	Entity
	Kind   EnemyKind
	Points int

	shoots    bool
	lastFired time.Duration
}

// NewEnemy は種別に応じた能力値の敵を生成します。未知の種別はエラーです。
func NewEnemy(x, y, w, h int, kind EnemyKind) (*Enemy, error) {
	stats, ok := enemyStatsByKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnemyKind, kind)
	}
	e := &Enemy{
		Entity:    NewEntity(x, y, w, h, stats.health),
		Kind:      kind,
		Points:    stats.points,
		shoots:    stats.shoots,
		lastFired: EnemyFireInterval + time.Millisecond,
	}
	e.Accel = enemyAccel
	e.Decel = enemyDecel
	e.MaxSpeed = stats.speed
	e.Damage = stats.damage
	return e, nil
}

// InRange は target が射程の矩形内にいるかを返します。
func (e *Enemy) InRange(target *Entity) bool {
	return e.X-EnemyRange < target.X && target.X < e.X+EnemyRange &&
		e.Y-EnemyRange < target.Y && target.Y < e.Y+EnemyRange
}

// FaceTowards は target への方向を設定します。
func (e *Enemy) FaceTowards(target *Entity) {
	e.SetDir(ManhattanDirection(e.X, e.Y, target.X, target.Y))
}

// PerformAction は種別ごとの行動を実行します。
func (e *Enemy) PerformAction(target *Entity, dt time.Duration) {
	switch e.Kind {
	case EnemyShoot:
		e.FaceTowards(target)
		if e.InRange(target) {
			e.SetDir(0, 0)
		}
		e.AccelDecel(dt)
	case EnemyChase:
		e.FaceTowards(target)
		e.AccelDecel(dt)
	}
}

// HitBy は味方の弾が当たっていればノックバックとダメージを受け、true を返します。
func (e *Enemy) HitBy(b *Bullet) bool {
	if !b.Friendly || !e.CollidedWith(&b.Entity) {
		return false
	}
	e.Knockback(&b.Entity, enemyKnockback)
	e.SubtractHealth(b.Damage)
	return true
}

func (e *Enemy) CanFire() bool {
	return e.shoots && e.lastFired > EnemyFireInterval
}

func (e *Enemy) ResetFire() { e.lastFired = 0 }

func (e *Enemy) Update(speed float32, dt time.Duration) {
	e.Move(speed)
	e.lastFired += scale(dt, speed)
}

func scale(dt time.Duration, speed float32) time.Duration {
	return time.Duration(float64(dt) * float64(speed))
}
