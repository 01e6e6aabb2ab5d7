package domain

import (
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrInvalidLevel はレベルファイルが読み込めない、または不正な場合に返されるエラーです。
	ErrInvalidLevel = errors.New("invalid level")
	// ErrUnknownEnemyKind は未知の敵種別が指定された場合に返されるエラーです。
	ErrUnknownEnemyKind = errors.New("unknown enemy kind")
	// ErrUnknownMessage は未知の種別のメッセージを受信した場合に返されるエラーです。
	ErrUnknownMessage = errors.New("unknown message kind")
	// ErrMalformedMessage はメッセージのフィールドが解釈できない場合に返されるエラーです。
	ErrMalformedMessage = errors.New("malformed message")
)

// ErrorSink は表示層へ届けるエラーを1件だけ保持します。
// 後から報告されたエラーが優先され、Consume で取り出すと消えます。
type ErrorSink struct {
	mu      sync.Mutex
	pending error
}

func NewErrorSink() *ErrorSink {
	return &ErrorSink{}
}

// Report はエラーを保留中のエラーとして記録します。nil は無視します。
func (s *ErrorSink) Report(err error) {
	if err == nil {
		return
	}
	slog.Warn("error reported", "err", err)
	s.mu.Lock()
	s.pending = err
	s.mu.Unlock()
}

// Consume は保留中のエラーを取り出してクリアします。保留中のエラーがなければ nil です。
func (s *ErrorSink) Consume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.pending
	s.pending = nil
	return err
}

// Pending は保留中のエラーがあるかを返します。
func (s *ErrorSink) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
