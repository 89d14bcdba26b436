package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/cues/internal/timer"
)

// ServiceManager runs the HTTP server and owns shutdown of the background
// timers.
type ServiceManager struct {
	server *http.Server
	timers *timer.Service
}

// NewServiceManager creates a service manager for the given listen address
// and handler.
func NewServiceManager(addr string, handler http.Handler, timers *timer.Service) *ServiceManager {
	return &ServiceManager{
		server: &http.Server{Addr: addr, Handler: handler},
		timers: timers,
	}
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (sm *ServiceManager) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", sm.server.Addr).Msg("HTTP server starting")
		errCh <- sm.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	sm.timers.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sm.server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
