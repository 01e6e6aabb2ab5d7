package domain

import "time"

const (
	PlayerWidth         = 32
	PlayerHeight        = 64
	PlayerInitialHealth = 6
	PlayerBulletSpeed   = 6
	PlayerFireInterval  = 500 * time.Millisecond
	PlayerDeathTime     = 5000 * time.Millisecond
	PlayerInvulnerable  = 1000 * time.Millisecond
	playerKnockback     = 6
	playerAccel         = 60
	playerDecel         = 20
	playerMaxSpeed      = 3.5
	playerDamage        = 1
)

// Player はプレイヤーキャラクターです。
// 被弾後は一定時間無敵になり、死亡後は PlayerDeathTime 経過でリスポーン可能になります。
type Player struct {
	Entity
	Index int

	startX, startY int
	lastFired      time.Duration
	lastHit        time.Duration
	deathCounter   time.Duration
	invincible     bool
}

// NewPlayer は (x, y) を開始位置とするプレイヤーを生成します。
func NewPlayer(x, y, w, h, index int) *Player {
	p := &Player{
		Entity:    NewEntity(x, y, w, h, PlayerInitialHealth),
		Index:     index,
		startX:    x,
		startY:    y,
		lastFired: PlayerFireInterval + time.Millisecond,
		lastHit:   PlayerInvulnerable + time.Millisecond,
	}
	p.Accel = playerAccel
	p.Decel = playerDecel
	p.MaxSpeed = playerMaxSpeed
	p.Damage = playerDamage
	return p
}

// Update は自身の運動と各種タイマーを進めます。死亡中は死亡カウンタのみ進めます。
func (p *Player) Update(speed float32, dt time.Duration) {
	if p.IsDying() {
		p.deathCounter += scale(dt, speed)
		return
	}
	p.Move(speed)
	p.updateLastHit(speed, dt)
	p.lastFired += scale(dt, speed)
	p.ChangeFacing()
}

func (p *Player) updateLastHit(speed float32, dt time.Duration) {
	if speed <= 0 || !p.invincible {
		return
	}
	p.lastHit += scale(dt, speed)
	if p.lastHit > PlayerInvulnerable {
		p.invincible = false
	}
}

// HitBy は無敵でなく other と接触していれば、ノックバックとダメージを受けて無敵になります。
func (p *Player) HitBy(other *Entity) bool {
	if p.invincible || !p.CollidedWith(other) {
		return false
	}
	p.Knockback(other, playerKnockback)
	p.SubtractHealth(other.Damage)
	p.lastHit = 0
	p.invincible = true
	return true
}

// IsDying は死亡状態かを判定し、死亡していれば停止させて無敵を解除します。
func (p *Player) IsDying() bool {
	if p.CheckLiving() {
		return false
	}
	p.Facing = FacingDown
	p.Stop()
	p.invincible = false
	return true
}

// DeathTimeUp はリスポーンまでの待機時間が経過したかを返します。
func (p *Player) DeathTimeUp() bool {
	return p.IsDead() && p.deathCounter >= PlayerDeathTime
}

// Respawn は開始位置・初期体力・無敵状態で復活させます。
func (p *Player) Respawn() {
	p.SetPos(p.startX, p.startY)
	p.SetHealth(PlayerInitialHealth)
	p.Revive()
	p.Stop()
	p.deathCounter = 0
	p.lastHit = 0
	p.invincible = true
}

func (p *Player) CanFire() bool               { return p.lastFired > PlayerFireInterval }
func (p *Player) ResetFire()                  { p.lastFired = 0 }
func (p *Player) Invincible() bool            { return p.invincible }
func (p *Player) DeathCounter() time.Duration { return p.deathCounter }
