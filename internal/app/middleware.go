package app

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/tidyhost/tidyhost/internal/config"
	"github.com/tidyhost/tidyhost/pkg/host"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Propagate X-User-Id header into context for downstream services
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hostIdHeader := req.Header.Get("X-User-Id")
			ctx := req.Context()

			if hostIdHeader != "" {
				h, err := deps.HostService.GetHostByUid(ctx, hostIdHeader)
				if err != nil {
					if errors.Is(err, host.ErrHostNotFound) {
						log.Debugf("host not found: %s", hostIdHeader)
						http.Error(w, "host not found", http.StatusForbidden)
						return
					}
					log.Errorf("failed to get host: %v", err)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				ctx = host.WithHost(ctx, h)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
