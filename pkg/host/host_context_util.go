package host

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const HostKey contextKey = "host"

var ErrNoHost = errors.New("host not found")

// CurrentId retrieves the current host's ID from the context. Returns ErrNoHost if not present.
func CurrentId(ctx context.Context) (int, error) {
	h, ok := ctx.Value(HostKey).(Host)
	if !ok {
		log.Trace("host not found in context")
		return 0, ErrNoHost
	}
	return h.Id, nil
}

func CurrentHost(ctx context.Context) (Host, error) {
	h, ok := ctx.Value(HostKey).(Host)
	if !ok {
		log.Trace("host not found in context")
		return Host{}, ErrNoHost
	}
	return h, nil
}

func WithHost(ctx context.Context, h Host) context.Context {
	return context.WithValue(ctx, HostKey, h)
}
