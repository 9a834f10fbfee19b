package test_utils

import (
	"context"

	"github.com/tidyhost/tidyhost/pkg/host"
)

// WithTestHost returns a context carrying a fixed host, the way the
// X-User-Id middleware would populate it in production.
func WithTestHost(ctx context.Context) context.Context {
	return host.WithHost(ctx, host.Host{
		Id:          1,
		Uid:         "test-host",
		DisplayName: "Test Host",
		Email:       "host@example.com",
	})
}
