package domain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const SpawnSize = 64

// SpawnPoint は敵の出現地点と出現間隔です。
type SpawnPoint struct {
	X, Y     int
	Interval time.Duration
}

// Decoration は当たり判定を持たない植生タイルです。描画側のみが参照します。
type Decoration struct {
	X, Y, W, H int
	Kind       string
}

// Level はビュー間で共有される不変のステージ情報です。
type Level struct {
	Name        string
	Background  string
	CenterX     int
	CenterY     int
	Width       int
	Height      int
	Walls       []*Wall
	Structures  []*Wall
	Decorations []Decoration
	Spawners    []SpawnPoint
}

// Bounds は中心とサイズから境界を計算します。
func (l *Level) Bounds() Bounds {
	return Bounds{
		Left:   l.CenterX - l.Width/2,
		Right:  l.CenterX + l.Width/2,
		Bottom: l.CenterY - l.Height/2,
		Top:    l.CenterY + l.Height/2,
	}
}

// Solids は壁と建物をまとめて返します。
func (l *Level) Solids() []*Wall {
	solids := make([]*Wall, 0, len(l.Walls)+len(l.Structures))
	solids = append(solids, l.Walls...)
	return append(solids, l.Structures...)
}

// DefaultArena はレベルファイルが指定されない場合に使う組み込みステージです。
func DefaultArena() *Level {
	return &Level{
		Name:       "arena",
		Background: "grass",
		Width:      1600,
		Height:     1200,
		Walls: []*Wall{
			NewWall(0, 300, 400, 32, "wall", true),
			NewWall(0, -300, 400, 32, "wall", true),
		},
		Structures: []*Wall{
			NewWall(-500, 0, 96, 96, "house", true),
			NewWall(500, 0, 96, 96, "house", false),
		},
		Spawners: []SpawnPoint{
			{X: -640, Y: 480, Interval: 4 * time.Second},
			{X: 640, Y: -480, Interval: 6 * time.Second},
		},
	}
}

// LoadLevelFile はレベルファイルを読み込みます。レベル名はファイル名です。
func LoadLevelFile(path string) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	defer f.Close()
	return LoadLevel(filepath.Base(path), f)
}

// LoadLevel は1行1要素のレベル定義を読み込みます。
//
//	background <name>
//	center <x> <y>
//	size <w> <h>
//	wall <x> <y> <w> <h>
//	veg <x> <y> <w> <h> <type>
//	struct <x> <y> <w> <h> <type> <enemyCollides>
//	spawner <x> <y> <intervalMs>
func LoadLevel(name string, r io.Reader) (*Level, error) {
	l := &Level{Name: name}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := l.apply(fields); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidLevel, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return nil, fmt.Errorf("%w: missing size", ErrInvalidLevel)
	}
	return l, nil
}

func (l *Level) apply(fields []string) error {
	switch fields[0] {
	case "background":
		if len(fields) < 2 {
			return errFieldCount(fields[0], 1)
		}
		l.Background = fields[1]
	case "center":
		v, err := atoiFields(fields, 2)
		if err != nil {
			return err
		}
		l.CenterX, l.CenterY = v[0], v[1]
	case "size":
		v, err := atoiFields(fields, 2)
		if err != nil {
			return err
		}
		l.Width, l.Height = v[0], v[1]
	case "wall":
		v, err := atoiFields(fields, 4)
		if err != nil {
			return err
		}
		l.Walls = append(l.Walls, NewWall(v[0], v[1], v[2], v[3], "wall", true))
	case "veg":
		v, err := atoiFields(fields, 4)
		if err != nil {
			return err
		}
		if len(fields) < 6 {
			return errFieldCount(fields[0], 5)
		}
		l.Decorations = append(l.Decorations, Decoration{X: v[0], Y: v[1], W: v[2], H: v[3], Kind: fields[5]})
	case "struct":
		v, err := atoiFields(fields, 4)
		if err != nil {
			return err
		}
		if len(fields) < 7 {
			return errFieldCount(fields[0], 6)
		}
		col, err := strconv.ParseBool(fields[6])
		if err != nil {
			return err
		}
		l.Structures = append(l.Structures, NewWall(v[0], v[1], v[2], v[3], fields[5], col))
	case "spawner":
		v, err := atoiFields(fields, 3)
		if err != nil {
			return err
		}
		if v[2] <= 0 {
			return fmt.Errorf("spawner interval must be positive: %d", v[2])
		}
		l.Spawners = append(l.Spawners, SpawnPoint{X: v[0], Y: v[1], Interval: time.Duration(v[2]) * time.Millisecond})
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
	return nil
}

func atoiFields(fields []string, n int) ([]int, error) {
	if len(fields) < n+1 {
		return nil, errFieldCount(fields[0], n)
	}
	out := make([]int, n)
	for i := range n {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func errFieldCount(directive string, n int) error {
	return fmt.Errorf("%s needs %d fields", directive, n)
}
