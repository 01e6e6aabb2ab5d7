package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"skirmish/game/application"
	"skirmish/game/domain"
)

const (
	// DefaultLevelName は組み込みのレベルを指す名前です。
	DefaultLevelName = "arena"
	// DefaultLinger は自分の試合が終わった後、ピアの最終スコアを待つ時間です。
	DefaultLinger = time.Second
)

// ErrMatchAborted は試合が決着前に終了した場合に返されるエラーです。
var ErrMatchAborted = errors.New("match aborted before a result")

// MatchConfig はネットワーク対戦1試合分の設定です。
type MatchConfig struct {
	TimeLimit     time.Duration
	LevelFile     string
	LevelDir      string
	Input         application.InputSource
	Clock         domain.Clock
	PollInterval  time.Duration
	FrameInterval time.Duration
	MaxTurn       time.Duration
	FinishDelay   time.Duration
	Linger        time.Duration
}

// ResolveLevel はレベル名からレベルを読み込みます。空文字列と DefaultLevelName は組み込みのレベルです。
// ピアから受け取った名前を使うため、ディレクトリ成分は取り除きます。
func ResolveLevel(dir, name string) (*domain.Level, error) {
	if name == "" || name == DefaultLevelName {
		return domain.DefaultArena(), nil
	}
	return domain.LoadLevelFile(filepath.Join(dir, filepath.Base(name)))
}

// RunHost は接続済みのピアへ start を送り、ピアの準備ができたら試合を開始します。
func RunHost(ctx context.Context, session *domain.Session, conn *domain.Connection, sink *domain.ErrorSink, cfg MatchConfig) (application.Summary, error) {
	level, err := ResolveLevel(cfg.LevelDir, cfg.LevelFile)
	if err != nil {
		sink.Report(err)
		return application.Summary{}, err
	}
	watcher := NewStartWatcher(sink)
	link, err := NewPeerLink(session, conn, sink, WithMessageHook(watcher.Hook), WithLinkInterval(cfg.PollInterval))
	if err != nil {
		return application.Summary{}, err
	}
	link.SetOutbound(domain.EncodeStart(cfg.TimeLimit, levelName(cfg.LevelFile)))

	return runLinked(ctx, link, func(ctx context.Context) (application.Summary, error) {
		if err := watcher.WaitPeer(ctx); err != nil {
			return application.Summary{}, nil
		}
		slog.InfoContext(ctx, "peer ready", "session_id", session.ID())
		return playMatch(ctx, link, sink, cfg, level, cfg.TimeLimit)
	})
}

// RunJoin はホストからの start を待ち、同じ試合を手元に構築して開始します。
func RunJoin(ctx context.Context, session *domain.Session, conn *domain.Connection, sink *domain.ErrorSink, cfg MatchConfig) (application.Summary, error) {
	watcher := NewStartWatcher(sink)
	link, err := NewPeerLink(session, conn, sink, WithMessageHook(watcher.Hook), WithLinkInterval(cfg.PollInterval))
	if err != nil {
		return application.Summary{}, err
	}

	return runLinked(ctx, link, func(ctx context.Context) (application.Summary, error) {
		st, err := watcher.WaitStart(ctx)
		if err != nil {
			return application.Summary{}, nil
		}
		slog.InfoContext(ctx, "start received", "time_limit", st.TimeLimit, "level", st.Level)
		level, err := ResolveLevel(cfg.LevelDir, st.Level)
		if err != nil {
			sink.Report(err)
			return application.Summary{}, err
		}
		return playMatch(ctx, link, sink, cfg, level, st.TimeLimit)
	})
}

// runLinked はリンクと試合を並行に実行します。試合が終わるとリンクを閉じます。
func runLinked(ctx context.Context, link *PeerLink, play func(context.Context) (application.Summary, error)) (application.Summary, error) {
	var summary application.Summary
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return link.Run(ctx)
	})
	eg.Go(func() error {
		defer link.Finish()
		s, err := play(ctx)
		summary = s
		return err
	})
	if err := eg.Wait(); err != nil {
		return application.Summary{}, err
	}
	if summary.MatchID == "" {
		return application.Summary{}, ErrMatchAborted
	}
	return summary, nil
}

func playMatch(ctx context.Context, link *PeerLink, sink *domain.ErrorSink, cfg MatchConfig, level *domain.Level, limit time.Duration) (application.Summary, error) {
	var inputs []application.InputSource
	if cfg.Input != nil {
		inputs = append(inputs, cfg.Input)
	}
	c, err := application.NewController(application.ControllerConfig{
		Views:         1,
		Mode:          application.NetworkMode(limit),
		Level:         level,
		Inputs:        inputs,
		Clock:         cfg.Clock,
		PollInterval:  cfg.PollInterval,
		FrameInterval: cfg.FrameInterval,
		MaxTurn:       cfg.MaxTurn,
		FinishDelay:   cfg.FinishDelay,
	})
	if err != nil {
		err = fmt.Errorf("network match: %w", err)
		sink.Report(err)
		return application.Summary{}, err
	}
	game := c.Games()[0]
	msgs := NewMsgController(game, link, sink, cfg.PollInterval)

	linger := cfg.Linger
	if linger <= 0 {
		linger = DefaultLinger
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return msgs.Run(ctx)
	})
	eg.Go(func() error {
		if err := c.Run(ctx); err != nil {
			return err
		}
		if c.Finished() {
			link.SetOutbound(domain.EncodeFinished(game.Score()))
			link.Flush(ctx, linger)
			if !msgs.AwaitPeerFinished(ctx, linger) {
				slog.WarnContext(ctx, "peer score not received", "match", c.ID())
			}
		}
		link.Finish()
		return nil
	})
	if err := eg.Wait(); err != nil {
		return application.Summary{}, err
	}

	s, ok := c.Summary()
	if !ok {
		return application.Summary{}, nil
	}
	if len(s.Scores) == 2 {
		s.Scores[1] = game.Vars().NetScore
	}
	return s, nil
}

func levelName(file string) string {
	if file == "" {
		return DefaultLevelName
	}
	return filepath.Base(file)
}
