package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"skirmish/game"
	adapterwebsocket "skirmish/game/adapter/websocket"
	"skirmish/game/application"
	"skirmish/game/domain"
	"skirmish/game/network"
	"skirmish/internal/config"
	"skirmish/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	level, _ := cfg.SlogLevel()

	providers, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "telemetry shutdown failed", "err", err)
		}
	}()
	slog.SetDefault(providers.NewLogger(os.Stderr, level))

	sink := domain.NewErrorSink()
	var summary application.Summary
	switch cfg.Role {
	case config.RoleHost:
		summary, err = runHost(ctx, cfg, sink)
	case config.RoleJoin:
		summary, err = runJoin(ctx, cfg, sink)
	default:
		summary, err = runLocal(ctx, cfg, sink)
	}

	if pending := sink.Consume(); pending != nil {
		slog.ErrorContext(ctx, "match error", "err", pending)
	}
	if err != nil {
		slog.ErrorContext(ctx, "match ended with error", "role", cfg.Role, "err", err)
		return
	}
	slog.InfoContext(ctx, "match summary",
		"match", summary.MatchID,
		"mode", summary.Mode,
		"outcome", summary.Outcome,
		"scores", summary.Scores,
		"time", summary.TimePassed,
		"defeated", summary.Defeated,
	)
}

func runLocal(ctx context.Context, cfg config.Config, sink *domain.ErrorSink) (application.Summary, error) {
	mode, err := cfg.ModeConfig()
	if err != nil {
		return application.Summary{}, err
	}
	lvl := domain.DefaultArena()
	if cfg.LevelFile != "" {
		lvl, err = domain.LoadLevelFile(filepath.Join(cfg.LevelDir, cfg.LevelFile))
		if err != nil {
			sink.Report(err)
			return application.Summary{}, err
		}
	}

	inputs := make([]application.InputSource, cfg.Views)
	for i := range inputs {
		inputs[i] = application.NewAutoPilot()
	}
	c, err := application.NewController(application.ControllerConfig{
		Views:         cfg.Views,
		Mode:          mode,
		Level:         lvl,
		Inputs:        inputs,
		PollInterval:  cfg.PollInterval,
		FrameInterval: cfg.FrameInterval,
		MaxTurn:       cfg.MaxTurn,
		FinishDelay:   cfg.FinishDelay,
	})
	if err != nil {
		return application.Summary{}, err
	}
	if err := c.Run(ctx); err != nil {
		return application.Summary{}, err
	}
	s, ok := c.Summary()
	if !ok {
		return application.Summary{}, network.ErrMatchAborted
	}
	return s, nil
}

func runHost(ctx context.Context, cfg config.Config, sink *domain.ErrorSink) (application.Summary, error) {
	s := game.NewServer(cfg.ListenAddr())

	var summary application.Summary
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "server listening", "addr", s.Addr())
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		defer shutdown(s)
		select {
		case <-ctx.Done():
			return nil
		case peer := <-s.Peers():
			var err error
			summary, err = network.RunHost(ctx, peer.Session, peer.Connection, sink, matchConfig(cfg))
			return err
		}
	})
	if err := eg.Wait(); err != nil {
		return application.Summary{}, err
	}
	if summary.MatchID == "" {
		return application.Summary{}, network.ErrMatchAborted
	}
	return summary, nil
}

func runJoin(ctx context.Context, cfg config.Config, sink *domain.ErrorSink) (application.Summary, error) {
	transport, err := adapterwebsocket.Dial(ctx, cfg.HostURL)
	if err != nil {
		sink.Report(err)
		return application.Summary{}, err
	}
	session := domain.NewSession()
	conn := domain.NewConnection(session.ID(), transport)
	defer conn.Close()
	slog.InfoContext(ctx, "connected to host", "url", cfg.HostURL, "session_id", session.ID())
	return network.RunJoin(ctx, session, conn, sink, matchConfig(cfg))
}

func matchConfig(cfg config.Config) network.MatchConfig {
	return network.MatchConfig{
		TimeLimit:     cfg.TimeLimit,
		LevelFile:     cfg.LevelFile,
		LevelDir:      cfg.LevelDir,
		Input:         application.NewAutoPilot(),
		PollInterval:  cfg.PollInterval,
		FrameInterval: cfg.FrameInterval,
		MaxTurn:       cfg.MaxTurn,
		FinishDelay:   cfg.FinishDelay,
		Linger:        cfg.Linger,
	}
}

func shutdown(s *game.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.InfoContext(shutdownCtx, "shutdown initiated")
	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "graceful shutdown failed", "error", err)
		if err := s.Close(); err != nil {
			slog.ErrorContext(shutdownCtx, "forced close failed", "error", err)
		}
	}
	slog.InfoContext(shutdownCtx, "server shutdown complete")
}
