package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
	"github.com/dmitrymomot/voyagerkit/core/session"
)

const closeGrace = time.Second

type wsConn struct {
	conn   *websocket.Conn
	state  atomic.Int32
	h      realtime.Handlers
	logger *slog.Logger
}

// websocketURL maps http(s) endpoints onto ws(s).
func websocketURL(url string) string {
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	default:
		return url
	}
}

func dialWebSocket(ctx context.Context, dialer *websocket.Dialer, url string, header http.Header, h realtime.Handlers, log *slog.Logger) (*wsConn, error) {
	conn, resp, err := dialer.DialContext(ctx, websocketURL(url), header)
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, &session.ErrInvalidStatus{URL: url, Status: resp.StatusCode}
		}
		return nil, err
	}

	c := &wsConn{conn: conn, h: h, logger: log}
	c.state.Store(int32(realtime.StateOpen))
	go c.read()

	log.DebugContext(ctx, "websocket connected")
	return c, nil
}

func (c *wsConn) State() realtime.State {
	return realtime.State(c.state.Load())
}

func (c *wsConn) Close() error {
	if realtime.State(c.state.Swap(int32(realtime.StateClosed))) == realtime.StateClosed {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	return c.conn.Close()
}

func (c *wsConn) read() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if realtime.State(c.state.Swap(int32(realtime.StateClosed))) == realtime.StateClosed {
				return
			}
			_ = c.conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("websocket closed by peer")
				return
			}
			c.logger.Warn("websocket read failed", logger.Error(err))
			if c.h.OnError != nil {
				c.h.OnError(err)
			}
			return
		}
		if c.State() == realtime.StateClosed {
			return
		}
		if c.h.OnMessage != nil {
			c.h.OnMessage(data)
		}
	}
}
