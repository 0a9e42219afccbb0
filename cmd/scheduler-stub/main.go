package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/arztportal/patient-portal/internal/stubserver"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("scheduler-stub starting")

	port := getEnv("STUB_PORT", "5000")
	seedCount := getInt("STUB_SEED_DOCTORS", 8)

	gofakeit.Seed(time.Now().UnixNano())

	srv := stubserver.New()
	if seedCount > 0 {
		srv.SeedDoctors(seedCount)
		log.Printf("seeded %d doctors", seedCount)
	}

	httpSrv := &http.Server{
		Addr:    ":" + port,
		Handler: srv.Router(),
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("stub listening on :%s", port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down scheduler-stub")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
