package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/QzDevz/TrashBin-IoT/internal/http/handlers"
)

// NewRouter builds the HTTP routing tree. metrics may be nil.
func NewRouter(api *handlers.API, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(RequestLogger(api))

	// Long-lived stream stays outside the request timeout.
	r.Get("/api/ws", api.Stream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(20 * time.Second))

		r.Get("/healthz", api.Health)
		if metrics != nil {
			r.Method(http.MethodGet, "/metrics", metrics)
		}
		r.Route("/api", func(apiRouter chi.Router) {
			apiRouter.Get("/state", api.GetState)
			apiRouter.Get("/state/{domain}", func(w http.ResponseWriter, r *http.Request) {
				api.GetDomain(w, r, chi.URLParam(r, "domain"))
			})
			apiRouter.Get("/actions", api.ListActions)
			apiRouter.Post("/dispatch", api.Dispatch)
			apiRouter.Post("/refresh", api.Refresh)
			apiRouter.Post("/insights/recompute", api.RecomputeInsights)
			apiRouter.Get("/usage/archive", api.ListArchive)
		})
	})
	return r
}

// RunServer starts and gracefully stops HTTP server with context cancellation.
func RunServer(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
