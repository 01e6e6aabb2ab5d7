package handler

import (
	"io"
	"net/http"
)

// NewHealthHandler は死活監視用のハンドラです。本文には state の返す受け入れ状態を書きます。
func NewHealthHandler(state func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, state())
	}
}
