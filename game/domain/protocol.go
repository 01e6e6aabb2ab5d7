package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MessageKind はピア間でやり取りするテキストメッセージの種別です。
type MessageKind string

const (
	MessagePosition MessageKind = "pos"      // pos <facing> <x> <y>
	MessageFinished MessageKind = "finished" // finished <score>
	MessageStart    MessageKind = "start"    // start <timeLimitMs> <levelFile>
)

// ReadyMessage は接続直後、最初のメッセージが決まるまで送る文字列です。
const ReadyMessage = "ready"

// Position はピアのプレイヤー位置です。
type Position struct {
	Facing Facing
	X, Y   int
}

// Start はホストからクライアントへ送る試合開始パラメータです。
type Start struct {
	TimeLimit time.Duration
	Level     string
}

// Message はデコード済みのメッセージです。Kind に応じたフィールドだけが有効です。
type Message struct {
	Kind     MessageKind
	Position Position
	Score    int
	Start    Start
}

func EncodePosition(facing Facing, x, y int) string {
	return fmt.Sprintf("%s %s %d %d", MessagePosition, facing, x, y)
}

func EncodeFinished(score int) string {
	return fmt.Sprintf("%s %d", MessageFinished, score)
}

func EncodeStart(limit time.Duration, level string) string {
	return fmt.Sprintf("%s %d %s", MessageStart, limit.Milliseconds(), level)
}

// SplitMessage はメッセージを種別と引数に分割します。
func SplitMessage(s string) (MessageKind, []string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", nil
	}
	return MessageKind(fields[0]), fields[1:]
}

// ParseMessage はテキストメッセージをデコードします。
func ParseMessage(s string) (Message, error) {
	kind, args := SplitMessage(s)
	switch kind {
	case MessagePosition:
		p, err := ParsePosition(args)
		return Message{Kind: kind, Position: p}, err
	case MessageFinished:
		score, err := ParseFinished(args)
		return Message{Kind: kind, Score: score}, err
	case MessageStart:
		st, err := ParseStart(args)
		return Message{Kind: kind, Start: st}, err
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownMessage, s)
	}
}

// ParsePosition は pos メッセージの引数をデコードします。
func ParsePosition(args []string) (Position, error) {
	if len(args) < 3 {
		return Position{}, fmt.Errorf("%w: pos needs 3 fields, got %d", ErrMalformedMessage, len(args))
	}
	facing, ok := ParseFacing(args[0])
	if !ok {
		return Position{}, fmt.Errorf("%w: unknown facing %q", ErrMalformedMessage, args[0])
	}
	x, err := strconv.Atoi(args[1])
	if err != nil {
		return Position{}, fmt.Errorf("%w: x: %v", ErrMalformedMessage, err)
	}
	y, err := strconv.Atoi(args[2])
	if err != nil {
		return Position{}, fmt.Errorf("%w: y: %v", ErrMalformedMessage, err)
	}
	return Position{Facing: facing, X: x, Y: y}, nil
}

// ParseFinished は finished メッセージの引数をデコードします。
func ParseFinished(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: finished needs a score", ErrMalformedMessage)
	}
	score, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: score: %v", ErrMalformedMessage, err)
	}
	return score, nil
}

// ParseStart は start メッセージの引数をデコードします。
func ParseStart(args []string) (Start, error) {
	if len(args) < 2 {
		return Start{}, fmt.Errorf("%w: start needs 2 fields, got %d", ErrMalformedMessage, len(args))
	}
	ms, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || ms <= 0 {
		return Start{}, fmt.Errorf("%w: time limit %q", ErrMalformedMessage, args[0])
	}
	// 空白を含むレベル名は残りのフィールドをつなげて復元します。
	return Start{TimeLimit: time.Duration(ms) * time.Millisecond, Level: strings.Join(args[1:], " ")}, nil
}
