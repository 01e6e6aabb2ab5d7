package adapterwebsocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"

	"skirmish/game/domain"
)

// messageLimit は1メッセージの上限です。プロトコルの文字列は短いテキストだけです。
const messageLimit = 256

// ErrBinaryMessage はテキスト以外のメッセージを受信した場合に返されるエラーです。
var ErrBinaryMessage = errors.New("unexpected binary message")

type wsTransport struct {
	conn *websocket.Conn
}

// NewTransportFrom は受け入れ済みまたは接続済みの WebSocket をテキストメッセージのトランスポートにします。
func NewTransportFrom(conn *websocket.Conn) domain.Transport {
	conn.SetReadLimit(messageLimit)
	return &wsTransport{conn: conn}
}

// Dial はホストの URL へ接続します。
func Dial(ctx context.Context, url string) (domain.Transport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewTransportFrom(conn), nil
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, fmt.Errorf("%w: %d bytes", ErrBinaryMessage, len(data))
	}
	return data, nil
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close(code int32, reason string) error {
	return t.conn.Close(websocket.StatusCode(code), reason)
}
