package api

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// SchedulerPinger reports whether the remote scheduler is reachable.
type SchedulerPinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	scheduler SchedulerPinger
	redis     *redis.Client
	env       string
	version   string
}

func NewHealthHandler(scheduler SchedulerPinger, rdb *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		scheduler: scheduler,
		redis:     rdb,
		env:       env,
		version:   version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Readiness treats the scheduler as the hard dependency. A missing journal
// backend only degrades: the portal still serves with an in-memory journal.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	status := "ok"

	schedCtx, schedCancel := context.WithTimeout(ctx, 1*time.Second)
	err := h.scheduler.Health(schedCtx)
	schedCancel()
	if err != nil {
		deps["scheduler"] = "down"
		status = "error"
	} else {
		deps["scheduler"] = "ok"
	}

	if h.redis != nil {
		redisCtx, redisCancel := context.WithTimeout(ctx, 1*time.Second)
		err = h.redis.Ping(redisCtx).Err()
		redisCancel()
		if err != nil {
			deps["redis"] = "down"
			if status == "ok" {
				status = "degraded"
			}
		} else {
			deps["redis"] = "ok"
		}
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
