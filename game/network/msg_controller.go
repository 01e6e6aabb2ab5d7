package network

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"skirmish/game/application"
	"skirmish/game/domain"
)

// peerQuietAfter はピアの無応答を警告するまでの時間です。接続は切りません。
const peerQuietAfter = 5 * time.Second

// MsgController は自分のゲーム状態から送信文字列を作り、受信した文字列をゲームへ反映します。
type MsgController struct {
	game     *application.ShooterGame
	link     *PeerLink
	sink     *domain.ErrorSink
	interval time.Duration

	lastSeq      uint64
	quiet        bool
	peerStarted  atomic.Bool
	peerFinished chan struct{}
	finishedSeen atomic.Bool
}

func NewMsgController(game *application.ShooterGame, link *PeerLink, sink *domain.ErrorSink, interval time.Duration) *MsgController {
	if interval <= 0 {
		interval = DefaultLinkInterval
	}
	return &MsgController{
		game:         game,
		link:         link,
		sink:         sink,
		interval:     interval,
		peerFinished: make(chan struct{}),
	}
}

// Run は interval ごとに Poll を呼び出します。リンクが止まると終了します。
func (m *MsgController) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !m.link.Active() {
				// 切断直前に受信した終了通知を取りこぼさない
				m.Poll(ctx)
				return nil
			}
			m.Poll(ctx)
			m.watchQuiet(ctx)
		}
	}
}

func (m *MsgController) watchQuiet(ctx context.Context) {
	quiet := m.link.Quiet(peerQuietAfter)
	if quiet && !m.quiet {
		slog.WarnContext(ctx, "peer is quiet", "after", peerQuietAfter)
	}
	m.quiet = quiet
}

// Poll は送信文字列を更新し、新しく受信した文字列があれば解釈します。
func (m *MsgController) Poll(ctx context.Context) {
	m.link.SetOutbound(m.outbound())

	msg, seq := m.link.Inbound()
	if seq == m.lastSeq {
		return
	}
	m.lastSeq = seq
	m.Dispatch(ctx, msg)
}

func (m *MsgController) outbound() string {
	if m.game.IsFinished() {
		return domain.EncodeFinished(m.game.Score())
	}
	pos := m.game.ClientPosition()
	return domain.EncodePosition(pos.Facing, pos.X, pos.Y)
}

// Dispatch は受信した1メッセージを種別ごとにゲームへ反映します。
// 引数の壊れたメッセージはエラーシンクへ報告しますが、リンクは止めません。
func (m *MsgController) Dispatch(ctx context.Context, raw string) {
	msg, err := domain.ParseMessage(raw)
	if errors.Is(err, domain.ErrUnknownMessage) {
		slog.DebugContext(ctx, "ignored peer message", "msg", raw)
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "malformed peer message", "msg", raw, "err", err)
		m.sink.Report(err)
		return
	}

	switch msg.Kind {
	case domain.MessagePosition:
		m.game.SetNetPlayer(msg.Position)
		m.peerStarted.Store(true)
	case domain.MessageFinished:
		m.game.SetNetScore(msg.Score)
		if m.finishedSeen.CompareAndSwap(false, true) {
			m.link.ExpectClose()
			close(m.peerFinished)
			slog.InfoContext(ctx, "peer finished", "score", msg.Score)
		}
	case domain.MessageStart:
		slog.DebugContext(ctx, "start received during match", "time_limit", msg.Start.TimeLimit, "level", msg.Start.Level)
	}
}

// PeerStarted はピアの位置を1度でも受信したかを返します。
func (m *MsgController) PeerStarted() bool { return m.peerStarted.Load() }

// AwaitPeerFinished はピアの最終スコアが届くか timeout が経過するまで待ちます。
func (m *MsgController) AwaitPeerFinished(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-m.peerFinished:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
