package game

import (
	"context"
	"net/http"
	"time"

	"skirmish/game/handler"
)

// Server はネットワーク対戦のホストが使う HTTP サーバです。
type Server struct {
	HTTP   *http.Server
	accept *handler.AcceptHandler
}

func NewServer(addr string) *Server {
	accept := handler.NewAcceptHandler()
	return &Server{
		HTTP: &http.Server{
			Addr:              addr,
			Handler:           Route(accept),
			ReadHeaderTimeout: 5 * time.Second,
		},
		accept: accept,
	}
}

// Peers は受け入れたピアを受け取るチャネルです。
func (s *Server) Peers() <-chan handler.Peer { return s.accept.Peers() }

func (s *Server) Serve() error                       { return s.HTTP.ListenAndServe() }
func (s *Server) Shutdown(ctx context.Context) error { return s.HTTP.Shutdown(ctx) }
func (s *Server) Close() error                       { return s.HTTP.Close() }
func (s *Server) Addr() string                       { return s.HTTP.Addr }
