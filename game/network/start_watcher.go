package network

import (
	"context"
	"sync"

	"skirmish/game/domain"
)

// StartWatcher はリンクの受信フックとして使い、試合開始の合図を待ち受けます。
// クライアントはホストの start を、ホストはクライアントの最初の pos を待ちます。
type StartWatcher struct {
	sink *domain.ErrorSink

	startOnce sync.Once
	start     domain.Start
	startCh   chan struct{}

	peerOnce sync.Once
	peerCh   chan struct{}
}

func NewStartWatcher(sink *domain.ErrorSink) *StartWatcher {
	return &StartWatcher{
		sink:    sink,
		startCh: make(chan struct{}),
		peerCh:  make(chan struct{}),
	}
}

// Hook は PeerLink の WithMessageHook に渡す受信フックです。
func (w *StartWatcher) Hook(msg string) {
	kind, args := domain.SplitMessage(msg)
	switch kind {
	case domain.MessageStart:
		st, err := domain.ParseStart(args)
		if err != nil {
			w.sink.Report(err)
			return
		}
		w.startOnce.Do(func() {
			w.start = st
			close(w.startCh)
		})
	case domain.MessagePosition, domain.MessageFinished:
		w.peerOnce.Do(func() { close(w.peerCh) })
	}
}

// WaitStart は start を受信するまで待ち、その試合パラメータを返します。
func (w *StartWatcher) WaitStart(ctx context.Context) (domain.Start, error) {
	select {
	case <-w.startCh:
		return w.start, nil
	case <-ctx.Done():
		return domain.Start{}, ctx.Err()
	}
}

// WaitPeer はピアが試合を始めたことを示すメッセージを受信するまで待ちます。
func (w *StartWatcher) WaitPeer(ctx context.Context) error {
	select {
	case <-w.peerCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
