package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
)

const componentTimeout = 2 * time.Second

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type componentsResponse struct {
	Success    bool                       `json:"success"`
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Components reports the reachability of every backend the API depends on.
func Components(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"registry": checkRegistry(r.Context(), d),
			"redis":    checkRedis(r.Context(), d),
			"sink":     checkSink(r.Context(), d),
		}
		writeJSON(w, http.StatusOK, componentsResponse{
			Success:    true,
			Mode:       determineMode(components),
			Components: components,
			Timestamp:  timestamp(d),
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "optimal"
}

func checkRegistry(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, componentTimeout)
	defer cancel()

	if err := d.Registry.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "apps-and-live-logs-unavailable", Error: errorMessage(err)}
	}
	return componentStatus{OK: true, Mode: "pm2"}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Redis == nil {
		return componentStatus{OK: true, Mode: "memory", Impact: "sessions-lost-on-restart"}
	}

	ctx, cancel := context.WithTimeout(ctx, componentTimeout)
	defer cancel()

	if err := d.Redis.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Mode: "redis", Impact: "token-refresh-failing", Error: "timeout"}
	}
	return componentStatus{OK: true, Mode: "redis"}
}

func checkSink(ctx context.Context, d deps.Deps) componentStatus {
	if d.Sink == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, componentTimeout)
	defer cancel()

	if err := d.Sink.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "sqlite", Impact: "live-logs-not-persisted", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "sqlite"}
}
