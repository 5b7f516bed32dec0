package auth_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/voyagerkit/core/realtime"
)

type noTransport struct{}

func (noTransport) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("unexpected request")
}

func (noTransport) OpenStream(context.Context, string, http.Header, realtime.Handlers) (realtime.Conn, error) {
	return nil, errors.New("unexpected stream")
}
