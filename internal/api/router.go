package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arztportal/patient-portal/internal/calendar"
	"github.com/arztportal/patient-portal/internal/directory"
	"github.com/arztportal/patient-portal/internal/profile"
	"github.com/arztportal/patient-portal/internal/tasks"
)

type RouterConfig struct {
	Directory  *directory.Store
	Tracker    *tasks.Tracker
	Reconciler *calendar.Reconciler
	Profile    *profile.Service
	Scheduler  SchedulerPinger
	Redis      *redis.Client // nil when the Redis journal is disabled
	Logger     *zap.Logger
	Env        string
	Version    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Scheduler, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/doctors", listDoctorsHandler(cfg.Directory))
	r.Post("/doctors", addDoctorHandler(cfg.Directory))
	r.Put("/doctors/{id}", updateDoctorHandler(cfg.Directory))
	r.Delete("/doctors/{id}", deleteDoctorHandler(cfg.Directory))

	r.Post("/tasks", submitTaskHandler(cfg.Tracker, cfg.Reconciler, cfg.Directory))
	r.Get("/tasks/results", taskResultsHandler(cfg.Tracker))
	r.Get("/tasks/{id}/transcript", transcriptHandler(cfg.Tracker))

	r.Get("/calendar", mergedCalendarHandler(cfg.Reconciler))
	r.Post("/calendar/refresh", refreshCalendarHandler(cfg.Reconciler))

	r.Get("/profile/{id}", getProfileHandler(cfg.Profile))
	r.Put("/profile/{id}", updateProfileHandler(cfg.Profile))

	return r
}
