package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Croco1609/collectorPerso/internal/logger"
)

// Serve atiende hasta que ctx termina y luego apaga el server con gracia.
// Devuelve nil en un apagado ordenado.
func Serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, log logger.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Infow("starting HTTP server", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpx.Serve: listen and serve: %w", err)
	case <-ctx.Done():
	}

	log.Infow("shutting down HTTP server", "timeout", shutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server forced shutdown", "error", err)
		return fmt.Errorf("httpx.Serve: shutdown: %w", err)
	}

	log.Infow("HTTP server stopped gracefully")
	return nil
}
