package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arztportal/patient-portal/internal/api"
	"github.com/arztportal/patient-portal/internal/calendar"
	"github.com/arztportal/patient-portal/internal/calendar/googlefeed"
	"github.com/arztportal/patient-portal/internal/config"
	"github.com/arztportal/patient-portal/internal/directory"
	"github.com/arztportal/patient-portal/internal/logger"
	"github.com/arztportal/patient-portal/internal/profile"
	"github.com/arztportal/patient-portal/internal/remote"
	"github.com/arztportal/patient-portal/internal/tasks"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("portal-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("scheduler", cfg.SchedulerBaseURL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := remote.NewClient(cfg.SchedulerBaseURL, cfg.HTTPTimeout, zlog)

	var rdb *redis.Client
	var journal tasks.Journal = tasks.NewMemoryJournal()
	if cfg.RedisAddr != "" {
		rdb, err = tasks.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			zlog.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				zlog.Warn("error closing redis", zap.Error(err))
			}
		}()
		journal = tasks.NewRedisJournal(rdb)
		zlog.Info("task journal backed by redis", zap.String("addr", cfg.RedisAddr))
	}

	tracker := tasks.NewTracker(client, journal, zlog)
	restoreCtx, cancelRestore := context.WithTimeout(rootCtx, 5*time.Second)
	if err := tracker.Restore(restoreCtx); err != nil {
		zlog.Warn("could not restore task journal", zap.Error(err))
	}
	cancelRestore()

	var feed calendar.Feed
	if cfg.CalendarFeedURL != "" {
		feed = googlefeed.New(cfg.CalendarFeedURL, cfg.CalendarID, cfg.CalendarAPIKey, cfg.HTTPTimeout, zlog)
	}
	reconciler := calendar.NewReconciler(feed, cfg.WindowPast, cfg.WindowFuture, zlog)

	// Submitted tasks restored from the journal go straight back on the
	// local calendar.
	store := directory.NewStore(client, zlog)
	for _, task := range tracker.Submitted() {
		if start, end, werr := task.Request.Window(); werr == nil {
			reconciler.AddLocal(calendar.Event{
				ID:    task.ID,
				Title: "Doctor appointment",
				Start: start,
				End:   end,
			})
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Directory:  store,
		Tracker:    tracker,
		Reconciler: reconciler,
		Profile:    profile.NewService(client),
		Scheduler:  client,
		Redis:      rdb,
		Logger:     zlog,
		Env:        cfg.Env,
		Version:    version,
	})

	if feed != nil {
		go refreshLoop(rootCtx, reconciler, cfg.RefreshInterval, zlog)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		zlog.Info("gateway listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	zlog.Info("shutting down portal-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

// refreshLoop keeps the external calendar fresh. The first pull happens at
// startup; failures leave the last successful pull in place.
func refreshLoop(ctx context.Context, reconciler *calendar.Reconciler, interval time.Duration, zlog *zap.Logger) {
	runOnce(ctx, reconciler, zlog)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, reconciler, zlog)
		}
	}
}

func runOnce(ctx context.Context, reconciler *calendar.Reconciler, zlog *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := reconciler.RefreshExternal(runCtx); err != nil {
		zlog.Warn("feed refresh error", zap.Error(err))
		return
	}
	zlog.Debug("feed refresh complete", zap.Duration("took", time.Since(start)))
}
