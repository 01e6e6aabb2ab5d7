package application

import (
	"time"

	"skirmish/game/domain"
)

// EntityView は描画用のエンティティ情報です。
type EntityView struct {
	X, Y       int
	W, H       int
	VelX, VelY float32
	Facing     domain.Facing
	Health     int
	Moving     bool
	Kind       string
	Friendly   bool
}

// GameSnapshot は1ビューの読み取り専用スナップショットです。描画側はこれを変更しません。
type GameSnapshot struct {
	Index         int
	Player        EntityView
	PlayerAlive   bool
	Invincible    bool
	NetPlayer     *EntityView
	Enemies       []EntityView
	Bullets       []EntityView
	Score         int
	Lives         int
	NetScore      int
	Defeated      int
	Elapsed       time.Duration
	TimeRemaining time.Duration
	Paused        bool
	Finished      bool
	Won           bool
	Lost          bool
	Bounds        domain.Bounds
}

func viewOf(e *domain.Entity) EntityView {
	return EntityView{
		X: e.X, Y: e.Y, W: e.W, H: e.H,
		VelX: e.XVel, VelY: e.YVel,
		Facing: e.Facing,
		Health: e.Health,
		Moving: e.Moving(),
	}
}
