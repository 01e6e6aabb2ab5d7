package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"skirmish/game/domain"
)

func TestStartWatcher_WaitStart(t *testing.T) {
	w := NewStartWatcher(domain.NewErrorSink())
	w.Hook(domain.ReadyMessage)
	w.Hook(domain.EncodeStart(90*time.Second, "dunes.lvl"))
	w.Hook(domain.EncodeStart(time.Second, "ignored.lvl"))

	st, err := w.WaitStart(context.Background())
	if err != nil {
		t.Fatalf("WaitStart() error = %v", err)
	}
	if st.TimeLimit != 90*time.Second || st.Level != "dunes.lvl" {
		t.Errorf("WaitStart() = %+v, want {90s dunes.lvl}", st)
	}
}

func TestStartWatcher_MalformedStart(t *testing.T) {
	sink := domain.NewErrorSink()
	w := NewStartWatcher(sink)
	w.Hook("start soon arena")

	if err := sink.Consume(); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Errorf("sink.Consume() = %v, want %v", err, domain.ErrMalformedMessage)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := w.WaitStart(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitStart() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestStartWatcher_WaitPeer(t *testing.T) {
	w := NewStartWatcher(domain.NewErrorSink())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.WaitPeer(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("WaitPeer() error = %v, want %v", err, context.Canceled)
	}

	w.Hook("pos down 0 0")
	w.Hook("finished 5")
	if err := w.WaitPeer(context.Background()); err != nil {
		t.Errorf("WaitPeer() error = %v", err)
	}
}

func TestStartWatcher_ZeroTimeLimit(t *testing.T) {
	sink := domain.NewErrorSink()
	w := NewStartWatcher(sink)
	w.Hook("start 0 arena")

	// 制限時間 0 の試合は開始せずエラーとして通知する
	if err := sink.Consume(); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Errorf("sink.Consume() = %v, want %v", err, domain.ErrMalformedMessage)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := w.WaitStart(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitStart() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
