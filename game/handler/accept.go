package handler

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"

	adapterwebsocket "skirmish/game/adapter/websocket"
	"skirmish/game/domain"
)

// Peer は受け入れたピアの接続です。
type Peer struct {
	Session    *domain.Session
	Connection *domain.Connection
}

// AcceptHandler はピアを1人だけ受け入れ、Peers チャネルへ渡します。
// 2人目以降は policy violation で閉じます。
type AcceptHandler struct {
	peers    chan Peer
	accepted atomic.Bool
}

func NewAcceptHandler() *AcceptHandler {
	return &AcceptHandler{peers: make(chan Peer, 1)}
}

// Peers は受け入れたピアを受け取るチャネルです。
func (h *AcceptHandler) Peers() <-chan Peer { return h.peers }

// State は受け入れ状態を返します。ピアを待っている間は "waiting"、受け入れ後は "matched" です。
func (h *AcceptHandler) State() string {
	if h.accepted.Load() {
		return "matched"
	}
	return "waiting"
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}
	if !h.accepted.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "rejected extra peer", "remote", r.RemoteAddr)
		_ = conn.Close(websocket.StatusPolicyViolation, "match already has a peer")
		return
	}

	session := domain.NewSession()
	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)
	slog.InfoContext(ctx, "accepted peer", "session_id", session.ID(), "remote", r.RemoteAddr)
	h.peers <- Peer{Session: session, Connection: connection}

	// ハンドラが戻るとコネクションが閉じられるため、試合が終わるまで待つ
	select {
	case <-connection.Done():
	case <-ctx.Done():
		connection.Close()
	}
	slog.DebugContext(ctx, "peer handler finished", "session_id", session.ID())
}
