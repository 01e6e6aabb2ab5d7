package domain

// Wall は壁や建物などの静的な障害物です。
// EnemyCollides が false の障害物は敵が通り抜けられます。
type Wall struct {
	Entity
	Kind          string
	EnemyCollides bool
}

func NewWall(x, y, w, h int, kind string, enemyCollides bool) *Wall {
	return &Wall{
		Entity:        NewEntity(x, y, w, h, 1),
		Kind:          kind,
		EnemyCollides: enemyCollides,
	}
}
