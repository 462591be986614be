package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samuelorobosa/jci-conf-client/internal/cache"
	"github.com/samuelorobosa/jci-conf-client/internal/config"
	internalhttp "github.com/samuelorobosa/jci-conf-client/internal/http"
	"github.com/samuelorobosa/jci-conf-client/internal/logging"
	"github.com/samuelorobosa/jci-conf-client/internal/resources"
	"github.com/samuelorobosa/jci-conf-client/internal/session"
	"github.com/samuelorobosa/jci-conf-client/internal/state"
	"github.com/samuelorobosa/jci-conf-client/internal/upstream"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stateStore, err := state.Open(cfg.StateDBPath)
	if err != nil {
		log.WithError(err).Fatal("could not open state database")
	}
	defer stateStore.Close()

	tokens := session.NewTokenSource()
	api := upstream.New(cfg.UpstreamBaseURL, cfg.RequestTimeout, tokens.Get, log)
	sessionStore := session.NewStore(api, stateStore, tokens, log)
	registry := resources.NewRegistry(api, cache.NewStore(log), log)
	server := internalhttp.NewServer(cfg, sessionStore, registry, log)

	// Re-validate any restored session before serving. A rejected token is
	// discarded and the console starts anonymous.
	checkCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := sessionStore.CheckAuth(checkCtx); err != nil {
		log.WithError(err).Info("restored session rejected")
	}
	cancel()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("console gateway listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}
}
