package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type SessionID string

func (id SessionID) String() string { return string(id) }

// Session はピアとの1接続の論理的な状態を表す構造体です。
type Session struct {
	id SessionID

	// activity
	lastRead  atomic.Int64
	lastWrite atomic.Int64
	reads     atomic.Uint64
	writes    atomic.Uint64

	// lifecycle
	closed atomic.Bool
}

func NewSession() *Session {
	s := &Session{
		id: SessionID(uuid.NewString()),
	}
	now := time.Now().UnixNano()
	s.lastRead.Store(now)
	s.lastWrite.Store(now)
	return s
}

func (s *Session) ID() SessionID { return s.id }

func (s *Session) TouchRead() {
	s.lastRead.Store(time.Now().UnixNano())
	s.reads.Add(1)
}

func (s *Session) TouchWrite() {
	s.lastWrite.Store(time.Now().UnixNano())
	s.writes.Add(1)
}

// Close はセッションを閉じます。最初の呼び出しのみ true を返します。
func (s *Session) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// IsReadIdle は timeout 以上受信がないかを返します。
func (s *Session) IsReadIdle(timeout time.Duration) bool {
	return time.Since(time.Unix(0, s.lastRead.Load())) >= timeout
}

// Stats は送受信したメッセージ数を返します。
func (s *Session) Stats() (reads, writes uint64) {
	return s.reads.Load(), s.writes.Load()
}
