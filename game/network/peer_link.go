package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"skirmish/game/domain"
)

// DefaultLinkInterval は送受信1往復ごとの間隔です。
const DefaultLinkInterval = 10 * time.Millisecond

var (
	// ErrLinkFailed はピアとの通信が入出力エラーで途切れた場合に報告されるエラーです。
	ErrLinkFailed = errors.New("peer link failed")
	// ErrInitializationFailed はリンクの生成に必要なものが揃っていない場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize peer link")
)

// PeerLink はピアとの全二重ループです。
// 1回の反復で現在の送信文字列を書き込み、その後1メッセージの受信を待ちます。
type PeerLink struct {
	conn     *domain.Connection
	session  *domain.Session
	sink     *domain.ErrorSink
	hook     func(string)
	interval time.Duration

	mu       sync.Mutex
	outbound string
	inbound  string
	seq      uint64

	written atomic.Uint64
	active  atomic.Bool
	closing atomic.Bool
}

type LinkOption func(*PeerLink)

// WithMessageHook は受信のたびに呼ばれる関数を設定します。
func WithMessageHook(fn func(string)) LinkOption {
	return func(l *PeerLink) { l.hook = fn }
}

func WithLinkInterval(d time.Duration) LinkOption {
	return func(l *PeerLink) { l.interval = d }
}

func NewPeerLink(session *domain.Session, conn *domain.Connection, sink *domain.ErrorSink, opts ...LinkOption) (*PeerLink, error) {
	if session == nil || conn == nil || sink == nil {
		return nil, ErrInitializationFailed
	}
	l := &PeerLink{
		conn:     conn,
		session:  session,
		sink:     sink,
		interval: DefaultLinkInterval,
		outbound: domain.ReadyMessage,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.active.Store(true)
	return l, nil
}

// Run はリンクが有効な間、送信と受信を繰り返します。
// 入出力エラーでは接続を閉じてエラーシンクへ報告し、そのエラーを返します。
func (l *PeerLink) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	slog.DebugContext(ctx, "peer link started", "session_id", l.session.ID())
	for l.active.Load() {
		if err := l.conn.Write(ctx, []byte(l.Outbound())); err != nil {
			return l.fail(ctx, "write", err)
		}
		l.session.TouchWrite()
		l.written.Add(1)

		data, err := l.conn.Read(ctx)
		if err != nil {
			return l.fail(ctx, "read", err)
		}
		l.session.TouchRead()
		l.receive(string(data))

		select {
		case <-ctx.Done():
			l.Finish()
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func (l *PeerLink) receive(msg string) {
	if kind, _ := domain.SplitMessage(msg); kind == domain.MessageFinished {
		l.ExpectClose()
	}
	l.mu.Lock()
	l.inbound = msg
	l.seq++
	l.mu.Unlock()
	if l.hook != nil {
		l.hook(msg)
	}
}

func (l *PeerLink) fail(ctx context.Context, op string, err error) error {
	finished := !l.active.CompareAndSwap(true, false)
	l.session.Close()
	l.conn.Close()
	// Finish 済み、キャンセル、ピアの終了通知後の切断は報告しない
	if finished || l.closing.Load() || ctx.Err() != nil {
		return nil
	}
	reads, writes := l.session.Stats()
	slog.ErrorContext(ctx, "peer link failed", "session_id", l.session.ID(), "op", op, "reads", reads, "writes", writes, "err", err)
	err = fmt.Errorf("%w: %s: %v", ErrLinkFailed, op, err)
	l.sink.Report(err)
	return err
}

// Finish はループを止めて接続を閉じます。ここで起きた入出力エラーは報告しません。
func (l *PeerLink) Finish() {
	if l.active.CompareAndSwap(true, false) {
		l.session.Close()
		l.conn.Close()
	}
}

func (l *PeerLink) Active() bool { return l.active.Load() }

// Quiet は timeout 以上ピアから受信していないかを返します。
func (l *PeerLink) Quiet(timeout time.Duration) bool { return l.session.IsReadIdle(timeout) }

// ExpectClose はピアが試合を終えたことを記録します。以降の切断は正常終了として扱います。
func (l *PeerLink) ExpectClose() { l.closing.Store(true) }

// Flush は現在の送信文字列がピアへ書き込まれるまで待ちます。
// リンクが止まるか timeout が経過した場合は false を返します。
func (l *PeerLink) Flush(ctx context.Context, timeout time.Duration) bool {
	// 実行中の書き込みは古い文字列の可能性があるため、その次の書き込みを待つ
	target := l.written.Load() + 2
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for l.active.Load() {
		if l.written.Load() >= target {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case <-ticker.C:
		}
	}
	return false
}

// SetOutbound は次の反復から送る文字列を設定します。
func (l *PeerLink) SetOutbound(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outbound = msg
}

func (l *PeerLink) Outbound() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outbound
}

// Inbound は最後に受信した文字列と受信番号を返します。まだ何も受信していなければ番号は0です。
func (l *PeerLink) Inbound() (string, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inbound, l.seq
}
