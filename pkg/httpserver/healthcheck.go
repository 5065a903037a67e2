package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

// HealthHandler probes each dependency on every request. With no checks it
// acts as a liveness probe and always reports 200. A failing check turns
// the response into 503 so load balancers stop routing traffic here.
func HealthHandler(logger *slog.Logger, checks ...HealthCheck) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				logger.ErrorContext(ctx, "health check failed",
					slog.String("dependency", hc.Name),
					slog.Any("error", err))
				http.Error(w, "NOT_READY", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
