// Package di provides dependency injection configuration for the Tastebook
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tastebookapp/tastebook-server/internal/auth"
	"github.com/tastebookapp/tastebook-server/internal/config"
	"github.com/tastebookapp/tastebook-server/internal/di/providers"
	"github.com/tastebookapp/tastebook-server/internal/logger"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
	"github.com/tastebookapp/tastebook-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideImageStorage)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideRecipeService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideIngredientService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once everything is wired.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.RecipeService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.IngredientService](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the search index if it is empty but recipes exist
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
