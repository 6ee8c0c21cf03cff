package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/tastebookapp/tastebook-server/internal/api"
	"github.com/tastebookapp/tastebook-server/internal/config"
	"github.com/tastebookapp/tastebook-server/internal/logger"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
	"github.com/tastebookapp/tastebook-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *api.RateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	if h.limiter != nil {
		h.limiter.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*images.Storage](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)

	services := &api.Services{
		Auth:        do.MustInvoke[*service.AuthService](i),
		Recipes:     do.MustInvoke[*service.RecipeService](i),
		Tags:        do.MustInvoke[*service.TagService](i),
		Ingredients: do.MustInvoke[*service.IngredientService](i),
	}

	tokenLimiter := api.NewRateLimiter(
		int(cfg.Auth.TokenRequestsPerMinute),
		time.Minute,
		cfg.Auth.TokenBurst,
	)

	handler := api.NewServer(
		services,
		storeHandle.Store,
		storage,
		searchHandle.Index,
		tokenLimiter,
		cfg.Server.Name,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, limiter: tokenLimiter}, nil
}
