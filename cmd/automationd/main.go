package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/techpathai/learnyst-relay/internal/automationd"
	"github.com/techpathai/learnyst-relay/internal/config"
)

func main() {
	cfg, err := config.LoadAutomation()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var open automationd.OpenFunc
	switch cfg.Driver {
	case "mock":
		open = automationd.OpenMock(cfg.MockDelay)
		log.Printf("console driver: mock")
	default:
		log.Fatalf("unsupported automation driver %q", cfg.Driver)
	}

	holder := automationd.NewHolder(open, cfg.MaxIdle)
	api := automationd.NewServer(cfg.APIKey, holder)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	holder.StartJanitor(runCtx, time.Minute)

	go func() {
		log.Printf("automation service listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
