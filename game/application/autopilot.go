package application

import (
	"math"
	"math/rand/v2"
)

const (
	autoDangerDist float32 = 160  // 弾丸回避を始める距離
	autoNoiseAngle float64 = 0.52 // ±30度 (π/6 ≈ 0.52 rad)
	autoRushChance float64 = 0.02 // 毎tick 2% の確率で突撃
	autoAxisCut    float32 = 0.3  // これ未満の成分は入力しない
	autoAimSlack           = 24   // 射線が揃ったとみなすずれ
)

type vec2 struct{ X, Y float32 }

func (v vec2) len() float32 { return float32(math.Hypot(float64(v.X), float64(v.Y))) }

// AutoPilot はルールベースでプレイヤーを操作する InputSource です。
// 個体ごとに異なる距離感とストレイフ方向を持ちます。
type AutoPilot struct {
	CloseRange float32 // 後退を始める距離
	MidRange   float32 // ストレイフを始める距離
	StrafeSign float32 // +1: 反時計回り, -1: 時計回り
}

// NewAutoPilot はランダムな個性を持つ AutoPilot を生成します。
func NewAutoPilot() *AutoPilot {
	strafeSign := float32(1.0)
	if rand.Float64() < 0.5 {
		strafeSign = -1.0
	}
	return &AutoPilot{
		CloseRange: 96 + rand.Float32()*64,   // 96〜160
		MidRange:   240 + rand.Float32()*160, // 240〜400
		StrafeSign: strafeSign,
	}
}

func (a *AutoPilot) Poll(s GameSnapshot) InputState {
	if !s.PlayerAlive || s.Paused || s.Finished {
		return InputState{}
	}
	self := s.Player

	// 被弾回避を優先
	if dir, ok := a.evadeBullet(self, s.Bullets); ok {
		return toInput(addNoise(dir), false)
	}

	nearest, ok := a.findNearestEnemy(self, s.Enemies)
	if !ok {
		return InputState{}
	}

	d := vec2{X: float32(nearest.X - self.X), Y: float32(nearest.Y - self.Y)}
	dist := d.len()
	if dist < 0.001 {
		return InputState{}
	}
	n := vec2{X: d.X / dist, Y: d.Y / dist}
	shoot := aligned(self, nearest)

	if rand.Float64() < autoRushChance {
		return toInput(addNoise(n), shoot)
	}

	var dir vec2
	switch {
	case dist < a.CloseRange:
		dir = vec2{X: -n.X, Y: -n.Y}
	case dist < a.MidRange:
		dir = vec2{X: -n.Y * a.StrafeSign, Y: n.X * a.StrafeSign}
	default:
		dir = n
	}
	return toInput(addNoise(dir), shoot)
}

// evadeBullet は自分に向かってくる敵弾を回避する方向を返します。
func (a *AutoPilot) evadeBullet(self EntityView, bullets []EntityView) (vec2, bool) {
	closestDist := float32(math.MaxFloat32)
	var closest *EntityView

	for i := range bullets {
		b := &bullets[i]
		if b.Friendly {
			continue
		}
		d := vec2{X: float32(self.X - b.X), Y: float32(self.Y - b.Y)}
		dist := d.len()
		if dist > autoDangerDist {
			continue
		}
		// 自分に向かっているか（内積 > 0）
		if d.X*b.VelX+d.Y*b.VelY <= 0 {
			continue
		}
		if dist < closestDist {
			closestDist = dist
			closest = b
		}
	}
	if closest == nil {
		return vec2{}, false
	}

	v := vec2{X: closest.VelX, Y: closest.VelY}
	vLen := v.len()
	if vLen < 0.001 {
		return vec2{}, false
	}
	return vec2{X: -v.Y / vLen, Y: v.X / vLen}, true
}

// findNearestEnemy は最寄りの敵を探します。
func (a *AutoPilot) findNearestEnemy(self EntityView, enemies []EntityView) (EntityView, bool) {
	var nearest EntityView
	found := false
	nearestDistSq := float32(math.MaxFloat32)

	for _, e := range enemies {
		if e.Health <= 0 {
			continue
		}
		dx := float32(e.X - self.X)
		dy := float32(e.Y - self.Y)
		if distSq := dx*dx + dy*dy; distSq < nearestDistSq {
			nearestDistSq = distSq
			nearest = e
			found = true
		}
	}
	return nearest, found
}

// aligned は敵が縦か横の射線上にいるかを返します。
func aligned(self, target EntityView) bool {
	return abs(self.X-target.X) <= autoAimSlack || abs(self.Y-target.Y) <= autoAimSlack
}

// addNoise は移動方向に ±30度 のランダムノイズを加えます。
func addNoise(dir vec2) vec2 {
	noise := (rand.Float64()*2 - 1) * autoNoiseAngle
	cos := float32(math.Cos(noise))
	sin := float32(math.Sin(noise))
	return vec2{
		X: dir.X*cos - dir.Y*sin,
		Y: dir.X*sin + dir.Y*cos,
	}
}

func toInput(dir vec2, shoot bool) InputState {
	return InputState{X: axis(dir.X), Y: axis(dir.Y), Shoot: shoot}
}

func axis(v float32) int {
	switch {
	case v > autoAxisCut:
		return 1
	case v < -autoAxisCut:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
