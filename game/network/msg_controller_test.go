package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"skirmish/game/application"
	"skirmish/game/domain"
	"skirmish/game/domain/mocks"
)

func newTestMsgController(t *testing.T) (*MsgController, *application.ShooterGame, *PeerLink, *domain.ErrorSink) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	link, sink := newTestLink(t, mocks.NewMockTransport(ctrl))
	game := application.NewShooterGame(1, &domain.Level{Name: "open", Width: 2000, Height: 2000}, true)
	return NewMsgController(game, link, sink, time.Millisecond), game, link, sink
}

func TestMsgController_OutboundFollowsGameState(t *testing.T) {
	m, game, link, _ := newTestMsgController(t)
	ctx := context.Background()

	m.Poll(ctx)
	pos := game.ClientPosition()
	if got, want := link.Outbound(), domain.EncodePosition(pos.Facing, pos.X, pos.Y); got != want {
		t.Errorf("Outbound() = %q, want %q", got, want)
	}

	game.SetFinished(true)
	m.Poll(ctx)
	if got, want := link.Outbound(), domain.EncodeFinished(game.Score()); got != want {
		t.Errorf("Outbound() = %q, want %q", got, want)
	}
}

// getClientPosition の出力はそのまま位置の解釈で元に戻る
func TestMsgController_PositionRoundTrip(t *testing.T) {
	m, game, _, sink := newTestMsgController(t)

	m.Dispatch(context.Background(), domain.EncodePosition(domain.FacingLeft, 120, -40))

	s := game.Snapshot()
	if s.NetPlayer == nil {
		t.Fatalf("NetPlayer = nil")
	}
	if s.NetPlayer.Facing != domain.FacingLeft || s.NetPlayer.X != 120 || s.NetPlayer.Y != -40 {
		t.Errorf("NetPlayer = (%v, %d, %d), want (left, 120, -40)", s.NetPlayer.Facing, s.NetPlayer.X, s.NetPlayer.Y)
	}
	if !m.PeerStarted() {
		t.Errorf("PeerStarted() = false")
	}
	if sink.Pending() {
		t.Errorf("sink.Pending() = true")
	}
}

func TestMsgController_FinishedSetsNetScore(t *testing.T) {
	m, game, _, _ := newTestMsgController(t)
	ctx := context.Background()

	m.Dispatch(ctx, "finished 1200")

	if got := game.Vars().NetScore; got != 1200 {
		t.Errorf("NetScore = %d, want 1200", got)
	}
	if !m.AwaitPeerFinished(ctx, time.Millisecond) {
		t.Errorf("AwaitPeerFinished() = false after finished")
	}
	// 2回目も閉じ済みチャネルで詰まらない
	m.Dispatch(ctx, "finished 1300")
	if got := game.Vars().NetScore; got != 1300 {
		t.Errorf("NetScore = %d, want 1300", got)
	}
}

func TestMsgController_AwaitPeerFinishedTimeout(t *testing.T) {
	m, _, _, _ := newTestMsgController(t)
	if m.AwaitPeerFinished(context.Background(), time.Millisecond) {
		t.Errorf("AwaitPeerFinished() = true without finished")
	}
}

func TestMsgController_MalformedIsReported(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{name: "bad x", msg: "pos left x 1"},
		{name: "bad facing", msg: "pos sideways 1 1"},
		{name: "short pos", msg: "pos left"},
		{name: "bad score", msg: "finished lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, link, sink := newTestMsgController(t)
			m.Dispatch(context.Background(), tt.msg)

			if err := sink.Consume(); !errors.Is(err, domain.ErrMalformedMessage) {
				t.Errorf("sink.Consume() = %v, want %v", err, domain.ErrMalformedMessage)
			}
			if !link.Active() {
				t.Errorf("link stopped on a malformed message")
			}
		})
	}
}

func TestMsgController_IgnoresUnknownMessages(t *testing.T) {
	m, _, _, sink := newTestMsgController(t)
	m.Dispatch(context.Background(), domain.ReadyMessage)
	m.Dispatch(context.Background(), "start 60000 arena")
	if sink.Pending() {
		t.Errorf("sink.Pending() = true, want false")
	}
}

func TestMsgController_PollDispatchesOnlyNewMessages(t *testing.T) {
	m, game, link, _ := newTestMsgController(t)
	ctx := context.Background()

	link.receive("finished 10")
	m.Poll(ctx)
	game.SetNetScore(0)
	m.Poll(ctx)
	if got := game.Vars().NetScore; got != 0 {
		t.Errorf("NetScore = %d, want 0 (message applied twice)", got)
	}

	link.receive("finished 20")
	m.Poll(ctx)
	if got := game.Vars().NetScore; got != 20 {
		t.Errorf("NetScore = %d, want 20", got)
	}
}
