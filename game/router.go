package game

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"skirmish/game/handler"
)

// Route は /ws でピアを受け入れ、/healthz で受け入れ状態を返すハンドラを組み立てます。
func Route(accept *handler.AcceptHandler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", accept)
	mux.Handle("GET /healthz", handler.NewHealthHandler(accept.State))
	return otelhttp.NewHandler(mux, "skirmish")
}
