package domain

import (
	"context"
	"sync"
)

// Connection は物理的な接続を表します。
type Connection struct {
	SessionID SessionID
	transport Transport

	closeOnce sync.Once
	done      chan struct{}
}

func NewConnection(sessionID SessionID, transport Transport) *Connection {
	return &Connection{
		SessionID: sessionID,
		transport: transport,
		done:      make(chan struct{}),
	}
}

func (c *Connection) Write(ctx context.Context, data []byte) error {
	return c.transport.Write(ctx, data)
}

func (c *Connection) Read(ctx context.Context) ([]byte, error) {
	return c.transport.Read(ctx)
}

// Close は接続を閉じます。2回目以降の呼び出しは何もしません。
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		_ = c.transport.Close(1000, "")
		close(c.done)
	})
}

// Done は接続が閉じられると閉じるチャネルを返します。
func (c *Connection) Done() <-chan struct{} {
	return c.done
}
