package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sync/atomic"

	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
	"github.com/dmitrymomot/voyagerkit/core/session"
)

const maxEventSize = 1 << 20

// sseConn reads a text/event-stream response and hands each event's data to
// the handlers.
type sseConn struct {
	state  atomic.Int32
	cancel context.CancelFunc
	h      realtime.Handlers
	logger *slog.Logger
}

func dialSSE(ctx context.Context, client *http.Client, url string, header http.Header, h realtime.Handlers, log *slog.Logger) (*sseConn, error) {
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req, err := http.NewRequestWithContext(sctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header = header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The handshake honours ctx, the stream afterwards does not.
	stop := context.AfterFunc(ctx, cancel)
	resp, err := client.Do(req)
	if !stop() {
		if err == nil {
			resp.Body.Close()
		}
		return nil, ctx.Err()
	}
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &session.ErrInvalidStatus{URL: url, Status: resp.StatusCode}
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		resp.Body.Close()
		cancel()
		return nil, ErrNotEventStream
	}

	c := &sseConn{cancel: cancel, h: h, logger: log}
	c.state.Store(int32(realtime.StateOpen))
	go c.read(resp.Body)

	log.DebugContext(ctx, "event stream connected")
	return c, nil
}

func (c *sseConn) State() realtime.State {
	return realtime.State(c.state.Load())
}

// Close cancels the request; the reader exits on its own.
func (c *sseConn) Close() error {
	c.state.Store(int32(realtime.StateClosed))
	c.cancel()
	return nil
}

func (c *sseConn) read(body io.ReadCloser) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			if data.Len() > 0 {
				c.dispatch(data.Bytes())
				data.Reset()
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		if string(field) != "data" {
			// event, id and retry carry nothing the registry uses.
			continue
		}
		if data.Len() > 0 {
			data.WriteByte('\n')
		}
		data.Write(value)
	}

	if c.State() == realtime.StateClosed {
		return
	}
	c.state.Store(int32(realtime.StateClosed))

	err := scanner.Err()
	if err == nil {
		err = ErrStreamEnded
	}
	c.logger.Warn("event stream ended", logger.Error(err))
	if c.h.OnError != nil {
		c.h.OnError(err)
	}
}

func (c *sseConn) dispatch(data []byte) {
	if c.State() == realtime.StateClosed || c.h.OnMessage == nil {
		return
	}
	msg := make([]byte, len(data))
	copy(msg, data)
	c.h.OnMessage(msg)
}
