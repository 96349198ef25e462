package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aadhyaan/lookout/internal/config"
	"github.com/Aadhyaan/lookout/internal/log"
	"github.com/Aadhyaan/lookout/pkg/api"
	"github.com/Aadhyaan/lookout/pkg/resolver"
)

func main() {
	// load config
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// one-time engine init, balanced by Cleanup on shutdown
	if err := resolver.Init(); err != nil {
		log.Fatalf("resolver init: %v", err)
	}
	defer resolver.Cleanup()

	// start the api over unix socket
	apiSrv := api.New(cfg.DNS)
	sockPath := cfg.Socket.Path

	go func() {
		// ErrServerClosed is the normal Shutdown path; Fatalf would skip
		// the deferred Cleanup.
		if err := apiSrv.ListenAndServe(sockPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api listen: %v", err)
		}
	}()
	log.Infof("lookoutd listening on %s", sockPath)

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	<-sig
	log.Info("shutting down…")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api shutdown error: %v", err)
	}
}
