package application

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"skirmish/game/domain"
)

const (
	DefaultMaxEnemies = 8
	PauseDebounce     = 250 * time.Millisecond
	netPlayerIndex    = 2
)

// GameVariables はビューごとのスコアや残機などの変数です。
type GameVariables struct {
	Score      int
	GameSpeed  float32
	Defeated   int
	CurTime    time.Duration
	TimeLimit  time.Duration
	CurEnemies int
	MaxEnemies int
	Lives      int
	NetScore   int
}

func NewGameVariables() GameVariables {
	return GameVariables{GameSpeed: 1, MaxEnemies: DefaultMaxEnemies, Lives: 1}
}

// ShooterGame は1ビュー分のゲーム状態（セッション集約）です。
// すべての可変状態は mu で保護され、ルールエンジンは mu を保持したまま内部を直接操作します。
type ShooterGame struct {
	mu sync.Mutex

	index     int
	level     *domain.Level
	clock     domain.Clock
	networked bool

	player    *domain.Player
	netPlayer *domain.Player
	enemies   []*domain.Enemy
	bullets   []*domain.Bullet
	vars      GameVariables

	spawnTimers []time.Duration
	finished    bool
	won, lost   bool
	paused      bool
	pausedAt    time.Time
}

type GameOption func(*ShooterGame)

// WithClock は一時停止の連打判定に使う時計を差し替えます。
func WithClock(clock domain.Clock) GameOption {
	return func(g *ShooterGame) { g.clock = clock }
}

func WithMaxEnemies(n int) GameOption {
	return func(g *ShooterGame) { g.vars.MaxEnemies = n }
}

// NewShooterGame はプレイヤー番号 index のゲームを生成します。
// networked の場合はピアのプレイヤーも生成します。
func NewShooterGame(index int, level *domain.Level, networked bool, opts ...GameOption) *ShooterGame {
	g := &ShooterGame{
		index:       index,
		level:       level,
		clock:       domain.SystemClock,
		networked:   networked,
		player:      domain.NewPlayer(level.CenterX, level.CenterY, domain.PlayerWidth, domain.PlayerHeight, index),
		vars:        NewGameVariables(),
		spawnTimers: make([]time.Duration, len(level.Spawners)),
	}
	if networked {
		g.netPlayer = domain.NewPlayer(level.CenterX, level.CenterY, domain.PlayerWidth, domain.PlayerHeight, netPlayerIndex)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *ShooterGame) Index() int           { return g.index }
func (g *ShooterGame) Level() *domain.Level { return g.level }
func (g *ShooterGame) Networked() bool      { return g.networked }

// AddEnemy は敵を追加します。上限に達している場合は何もせず false を返します。
func (g *ShooterGame) AddEnemy(x, y, w, h int, kind domain.EnemyKind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addEnemy(x, y, w, h, kind)
}

func (g *ShooterGame) addEnemy(x, y, w, h int, kind domain.EnemyKind) bool {
	if len(g.enemies) >= g.vars.MaxEnemies {
		return false
	}
	e, err := domain.NewEnemy(x, y, w, h, kind)
	if err != nil {
		slog.Warn("enemy rejected", "view", g.index, "err", err)
		return false
	}
	g.enemies = append(g.enemies, e)
	g.vars.CurEnemies = len(g.enemies)
	return true
}

func (g *ShooterGame) AddBullet(b *domain.Bullet) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bullets = append(g.bullets, b)
}

// SpawnPlayerProjectile はクールダウンが明けていればプレイヤーの向きに弾を撃ちます。
func (g *ShooterGame) SpawnPlayerProjectile() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spawnPlayerProjectile()
}

func (g *ShooterGame) spawnPlayerProjectile() bool {
	p := g.player
	if p.IsDead() || !p.CanFire() {
		return false
	}
	ax, ay := facingAim(p.Facing)
	x := p.X + int(ax*float32(p.W/2))
	y := p.Y + int(ay*float32(p.H/2))
	g.bullets = append(g.bullets, domain.NewBullet(x, y, ax+p.XVel, ay+p.YVel, domain.PlayerBulletSpeed, p.Damage, true))
	p.ResetFire()
	return true
}

// spawnEnemyProjectile はクールダウンが明けていれば e からプレイヤーへ弾を撃ちます。
func (g *ShooterGame) spawnEnemyProjectile(e *domain.Enemy) bool {
	if !e.CanFire() {
		return false
	}
	ax, ay := domain.ManhattanDirection(e.X, e.Y, g.player.X, g.player.Y)
	x := e.X + int(ax*float32(e.W/2))
	y := e.Y + int(ay*float32(e.H/2))
	g.bullets = append(g.bullets, domain.NewBullet(x, y, ax+e.XVel, ay+e.YVel, domain.EnemyBulletSpeed, e.Damage, false))
	e.ResetFire()
	return true
}

// ApplyInput は入力をプレイヤーに反映します。一時停止中や死亡中は無視します。
func (g *ShooterGame) ApplyInput(in InputState, dt time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.vars.GameSpeed <= 0 || g.player.IsDead() {
		return
	}
	if in.Shoot {
		g.spawnPlayerProjectile()
	}
	g.player.SetDir(float32(clampAxis(in.X)), float32(clampAxis(in.Y)))
	g.player.AccelDecel(dt)
	g.player.DiagonalMax()
}

// Update はターンの有無に関係なく、自身のエンティティの運動とスポナーを進めます。
func (g *ShooterGame) Update(dt time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	speed := g.vars.GameSpeed
	g.player.Update(speed, dt)
	for _, e := range g.enemies {
		e.Update(speed, dt)
	}
	for _, b := range g.bullets {
		b.Update(speed)
	}
	g.runSpawners(speed, dt)
	g.vars.CurEnemies = len(g.enemies)
	g.vars.CurTime += scaleDuration(dt, speed)
}

func (g *ShooterGame) runSpawners(speed float32, dt time.Duration) {
	if speed <= 0 {
		return
	}
	for i, sp := range g.level.Spawners {
		g.spawnTimers[i] += dt
		if g.spawnTimers[i] < sp.Interval {
			continue
		}
		n := int(g.spawnTimers[i] / sp.Interval)
		for range n {
			kind := domain.EnemyKinds[rand.IntN(len(domain.EnemyKinds))]
			g.addEnemy(sp.X, sp.Y, domain.SpawnSize, domain.SpawnSize, kind)
		}
		g.spawnTimers[i] = 0
	}
}

// Pause は一時停止を切り替えます。直前の切り替えから PauseDebounce 未満なら無視します。
func (g *ShooterGame) Pause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clock.Now().Sub(g.pausedAt) < PauseDebounce {
		return false
	}
	g.setPause(!g.paused)
	return true
}

func (g *ShooterGame) SetPause(paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setPause(paused)
}

func (g *ShooterGame) setPause(paused bool) {
	if g.won || g.lost {
		return
	}
	g.paused = paused
	g.pausedAt = g.clock.Now()
	if paused {
		g.vars.GameSpeed = 0
	} else {
		g.vars.GameSpeed = 1
	}
}

func (g *ShooterGame) IsPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

func (g *ShooterGame) SetFinished(finished bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finished = finished
}

// Freeze は試合終了時にゲームを止め、勝敗を記録します。
func (g *ShooterGame) Freeze(won bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finished = true
	g.won = won
	g.lost = !won
	g.vars.GameSpeed = 0
}

func (g *ShooterGame) IsFinished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finished
}

func (g *ShooterGame) SetTimeLimit(limit time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vars.TimeLimit = limit
}

// SetNetPlayer はピアのプレイヤー位置を反映します。ネットワーク対戦でなければ false を返します。
func (g *ShooterGame) SetNetPlayer(pos domain.Position) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.netPlayer == nil {
		return false
	}
	g.netPlayer.Facing = pos.Facing
	g.netPlayer.SetPos(pos.X, pos.Y)
	return true
}

func (g *ShooterGame) SetNetScore(score int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vars.NetScore = score
}

// ClientPosition はピアへ送る自プレイヤーの位置です。
func (g *ShooterGame) ClientPosition() domain.Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.Position{Facing: g.player.Facing, X: g.player.X, Y: g.player.Y}
}

func (g *ShooterGame) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vars.Score
}

// Vars は変数のコピーを返します。
func (g *ShooterGame) Vars() GameVariables {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vars
}

// Snapshot は描画側へ渡す読み取り専用のコピーを返します。
func (g *ShooterGame) Snapshot() GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := GameSnapshot{
		Index:       g.index,
		Player:      viewOf(&g.player.Entity),
		PlayerAlive: !g.player.IsDead(),
		Invincible:  g.player.Invincible(),
		Enemies:     make([]EntityView, 0, len(g.enemies)),
		Bullets:     make([]EntityView, 0, len(g.bullets)),
		Score:       g.vars.Score,
		Lives:       g.vars.Lives,
		NetScore:    g.vars.NetScore,
		Defeated:    g.vars.Defeated,
		Elapsed:     g.vars.CurTime,
		Paused:      g.paused,
		Finished:    g.finished,
		Won:         g.won,
		Lost:        g.lost,
		Bounds:      g.level.Bounds(),
	}
	if g.vars.TimeLimit > 0 {
		s.TimeRemaining = max(g.vars.TimeLimit-g.vars.CurTime, 0)
	}
	if g.netPlayer != nil {
		v := viewOf(&g.netPlayer.Entity)
		s.NetPlayer = &v
	}
	for _, e := range g.enemies {
		v := viewOf(&e.Entity)
		v.Kind = string(e.Kind)
		s.Enemies = append(s.Enemies, v)
	}
	for _, b := range g.bullets {
		v := viewOf(&b.Entity)
		v.Friendly = b.Friendly
		s.Bullets = append(s.Bullets, v)
	}
	return s
}

// facingAim は向きのラベルから射撃方向を返します。
func facingAim(f domain.Facing) (float32, float32) {
	switch f {
	case domain.FacingUp:
		return 0, 1
	case domain.FacingUpLeft:
		return -1, 1
	case domain.FacingUpRight:
		return 1, 1
	case domain.FacingLeft:
		return -1, 0
	case domain.FacingRight:
		return 1, 0
	default:
		return 0, -1
	}
}

func clampAxis(v int) int {
	return max(-1, min(1, v))
}

func scaleDuration(dt time.Duration, speed float32) time.Duration {
	return time.Duration(float64(dt) * float64(speed))
}
