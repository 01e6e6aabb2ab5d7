package domain

import (
	"math"
	"math/rand/v2"
	"time"
)

// Facing はエンティティの向きを表すラベルです。
type Facing string

const (
	FacingDown    Facing = "down"
	FacingUp      Facing = "up"
	FacingLeft    Facing = "left"
	FacingRight   Facing = "right"
	FacingUpLeft  Facing = "up_left"
	FacingUpRight Facing = "up_right"
)

// ParseFacing は文字列を Facing に変換します。未知のラベルは false を返します。
func ParseFacing(s string) (Facing, bool) {
	switch f := Facing(s); f {
	case FacingDown, FacingUp, FacingLeft, FacingRight, FacingUpLeft, FacingUpRight:
		return f, true
	default:
		return "", false
	}
}

// Bounds はレベルの境界 (left, right, bottom, top) です。
type Bounds struct {
	Left   int
	Right  int
	Bottom int
	Top    int
}

const (
	diagonalFactor float32 = 0.8
	solidUpper     float32 = 0.8 // 押し戻し判定の上側境界
	solidLower     float32 = 0.2 // 押し戻し判定の下側境界
)

// Entity は移動するオブジェクトすべてが持つ位置・速度・当たり判定の状態です。
// 座標は中心点で、Y軸は上向きが正です。
type Entity struct {
	X, Y       int
	W, H       int
	XVel, YVel float32
	XDir, YDir float32
	Accel      int
	Decel      int
	MaxSpeed   float32
	Health     int
	Damage     int
	Facing     Facing

	dead   bool
	moving bool
	decelX bool
	decelY bool
}

// NewEntity は下向きで生存状態のエンティティを生成します。
func NewEntity(x, y, w, h, health int) Entity {
	return Entity{X: x, Y: y, W: w, H: h, Health: health, Facing: FacingDown}
}

func (e *Entity) MinX() int { return e.X - e.W/2 }
func (e *Entity) MaxX() int { return e.X + e.W/2 }
func (e *Entity) MinY() int { return e.Y - e.H/2 }
func (e *Entity) MaxY() int { return e.Y + e.H/2 }

// SetHealth は体力を設定します。負の値は0に丸めます。
func (e *Entity) SetHealth(health int) {
	e.Health = max(health, 0)
}

func (e *Entity) SubtractHealth(amount int) {
	e.SetHealth(e.Health - amount)
}

// CheckLiving は体力が0以下なら死亡状態へ遷移させ、生存しているかを返します。
func (e *Entity) CheckLiving() bool {
	if e.Health <= 0 {
		e.Die()
	}
	return !e.dead
}

func (e *Entity) Die()            { e.dead = true }
func (e *Entity) Revive()         { e.dead = false }
func (e *Entity) IsDead() bool    { return e.dead }
func (e *Entity) Moving() bool    { return e.moving }
func (e *Entity) SetPos(x, y int) { e.X, e.Y = x, y }

// SetDir は移動方向を設定します。
func (e *Entity) SetDir(x, y float32) {
	e.XDir, e.YDir = x, y
}

// Stop は速度と方向をゼロにします。
func (e *Entity) Stop() {
	e.XVel, e.YVel = 0, 0
	e.XDir, e.YDir = 0, 0
	e.moving = false
}

// Knockback は other から離れる方向に force の速度を与えます。
func (e *Entity) Knockback(other *Entity, force int) {
	e.XDir = float32(sign(e.X - other.X))
	e.YDir = float32(sign(e.Y - other.Y))
	e.XVel = float32(force) * e.XDir
	e.YVel = float32(force) * e.YDir
}

// Move は速度を位置に積分します。
func (e *Entity) Move(speed float32) {
	e.X = int(float32(e.X) + e.XVel*speed)
	e.Y = int(float32(e.Y) + e.YVel*speed)
}

// ChangeFacing は方向から向きのラベルと移動中フラグを導出します。
func (e *Entity) ChangeFacing() {
	e.moving = (e.XVel != 0 || e.YVel != 0) && !(e.decelX && e.decelY)

	if e.YDir < 0 {
		e.Facing = FacingDown
	}
	if e.XDir > 0 {
		e.Facing = FacingRight
	}
	if e.XDir < 0 {
		e.Facing = FacingLeft
	}
	if e.YDir > 0 {
		switch {
		case e.XDir > 0:
			e.Facing = FacingUpRight
		case e.XDir < 0:
			e.Facing = FacingUpLeft
		default:
			e.Facing = FacingUp
		}
	}
}

func (e *Entity) AccelerateX(dt time.Duration) {
	e.XVel = clampSpeed(e.XVel+seconds(dt)*float32(e.Accel)*e.XDir, e.MaxSpeed)
	e.decelX = false
}

func (e *Entity) AccelerateY(dt time.Duration) {
	e.YVel = clampSpeed(e.YVel+seconds(dt)*float32(e.Accel)*e.YDir, e.MaxSpeed)
	e.decelY = false
}

func (e *Entity) DecelerateX(dt time.Duration) {
	e.XVel = towardZero(e.XVel, seconds(dt)*float32(e.Decel))
	e.decelX = true
}

func (e *Entity) DecelerateY(dt time.Duration) {
	e.YVel = towardZero(e.YVel, seconds(dt)*float32(e.Decel))
	e.decelY = true
}

// AccelDecel は方向が設定されている軸を加速し、それ以外の軸を減速します。
func (e *Entity) AccelDecel(dt time.Duration) {
	if e.XDir != 0 {
		e.AccelerateX(dt)
	} else {
		e.DecelerateX(dt)
	}
	if e.YDir != 0 {
		e.AccelerateY(dt)
	} else {
		e.DecelerateY(dt)
	}
}

// DiagonalMax は斜め移動時の速度を最高速度の0.8倍に揃えます。
// 厳密なベクトル長のクランプではなく、操作感を優先した値です。
func (e *Entity) DiagonalMax() {
	if e.XDir == 0 || e.YDir == 0 {
		return
	}
	speed := float32(math.Hypot(float64(e.XVel), float64(e.YVel)))
	if speed > e.MaxSpeed {
		e.XVel = e.MaxSpeed * diagonalFactor * e.XDir
		e.YVel = e.MaxSpeed * diagonalFactor * e.YDir
	}
}

// CollidedWith はAABBの重なり判定です。
func (e *Entity) CollidedWith(other *Entity) bool {
	return other.MinX() < e.MaxX() && e.MinX() < other.MaxX() &&
		other.MinY() < e.MaxY() && e.MinY() < other.MaxY()
}

// IsStuck は e が other の内側に入り込んでいるかを返します。
func (e *Entity) IsStuck(other *Entity) bool {
	return e.CollidedWith(other)
}

// SolidCollision は other を壁として扱い、めり込む方向の速度成分をゼロにします。
// 既に重なっている場合は中心から離れる方向へ1ずつ押し出します。
func (e *Entity) SolidCollision(other *Entity) {
	oh, ow := float32(other.H), float32(other.W)

	if other.MinX() < e.MaxX() && e.MinX() < other.MaxX() {
		if float32(e.MinY())+e.YVel < float32(other.MaxY()) && float32(e.MaxY()) > float32(other.MaxY())-oh*solidUpper {
			e.YVel = 0
		}
		if float32(e.MaxY())+e.YVel > float32(other.MinY()) && float32(e.MinY()) < float32(other.MinY())+oh*solidLower {
			e.YVel = 0
		}
	}

	if other.MinY() < e.MaxY() && e.MinY() < other.MaxY() {
		if float32(e.MinX())+e.XVel < float32(other.MaxX()) && float32(e.MaxX()) > float32(other.MaxX())-ow*solidUpper {
			e.XVel = 0
		}
		if float32(e.MaxX())+e.XVel > float32(other.MinX()) && float32(e.MinX()) < float32(other.MinX())+ow*solidLower {
			e.XVel = 0
		}
	}

	if !e.IsStuck(other) {
		return
	}
	dx, dy := sign(e.X-other.X), sign(e.Y-other.Y)
	if dx == 0 && dy == 0 {
		r := 1
		if rand.IntN(2) == 0 {
			r = -1
		}
		dx, dy = r, r
	}
	e.X += dx
	e.Y += dy
}

// KeepInBound は境界を越える速度成分をゼロにし、はみ出した位置を境界内へ戻します。
func (e *Entity) KeepInBound(b Bounds) {
	if float32(e.MinX())+e.XVel < float32(b.Left) {
		e.XVel = 0
		if e.MinX() < b.Left {
			e.X = b.Left + e.W/2
		}
	}
	if float32(e.MaxX())+e.XVel > float32(b.Right) {
		e.XVel = 0
		if e.MaxX() > b.Right {
			e.X = b.Right - e.W/2
		}
	}
	if float32(e.MinY())+e.YVel < float32(b.Bottom) {
		e.YVel = 0
		if e.MinY() < b.Bottom {
			e.Y = b.Bottom + e.H/2
		}
	}
	if float32(e.MaxY())+e.YVel > float32(b.Top) {
		e.YVel = 0
		if e.MaxY() > b.Top {
			e.Y = b.Top - e.H/2
		}
	}
}

// DistToCenter は (cx, cy) からの距離です。描画時の奥行きソートに使います。
func (e *Entity) DistToCenter(cx, cy int) float64 {
	return math.Hypot(float64(e.X-cx), float64(e.Y-cy))
}

// CompareTo は e の方が (cx, cy) に近ければ 1、遠ければ -1、同じなら 0 を返します。
func (e *Entity) CompareTo(other *Entity, cx, cy int) int {
	d, od := e.DistToCenter(cx, cy), other.DistToCenter(cx, cy)
	switch {
	case d == od:
		return 0
	case d < od:
		return 1
	default:
		return -1
	}
}

// ManhattanDirection は from から to への方向を |dx|+|dy| で正規化して返します。
// 変位がゼロの場合はゼロベクトルを返します。
func ManhattanDirection(fromX, fromY, toX, toY int) (float32, float32) {
	dx, dy := float32(toX-fromX), float32(toY-fromY)
	total := float32(math.Abs(float64(dx)) + math.Abs(float64(dy)))
	if total == 0 {
		return 0, 0
	}
	return dx / total, dy / total
}

func seconds(dt time.Duration) float32 {
	return float32(dt) / float32(time.Second)
}

func clampSpeed(v, limit float32) float32 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func towardZero(v, step float32) float32 {
	switch {
	case v > 0:
		return max(v-step, 0)
	case v < 0:
		return min(v+step, 0)
	default:
		return 0
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
