package domain

import "time"

const (
	BulletLifetime = 1500 * time.Millisecond
	BulletSize     = 16
	bulletAccel    = 100
	bulletDecel    = 0
)

// Bullet は寿命付きの弾丸です。Friendly はプレイヤー側の弾であることを示します。
type Bullet struct {
	Entity
	Friendly bool

	life time.Duration
}

// NewBullet は (x, y) から dir 方向へ飛ぶ弾丸を生成します。
func NewBullet(x, y int, xdir, ydir, speed float32, damage int, friendly bool) *Bullet {
	b := &Bullet{
		Entity:   NewEntity(x, y, BulletSize, BulletSize, 1),
		Friendly: friendly,
	}
	b.Accel = bulletAccel
	b.Decel = bulletDecel
	b.MaxSpeed = speed
	b.Damage = damage
	b.SetDir(xdir, ydir)
	return b
}

// MoveBullet は速度と寿命を進めます。寿命を使い切った弾は死亡状態になります。
func (b *Bullet) MoveBullet(dt time.Duration) {
	b.AccelDecel(dt)
	b.life += dt
	if b.life >= BulletLifetime {
		b.Die()
	}
}

func (b *Bullet) Life() time.Duration { return b.life }

func (b *Bullet) Update(speed float32) {
	b.Move(speed)
}
