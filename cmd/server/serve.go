package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// serve runs srv until ctx is cancelled or the listener fails, then shuts it down.
// A listen failure is returned instead of exiting so the caller's cleanup still runs.
func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("🚀 MindNest backend running on %s", srv.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
