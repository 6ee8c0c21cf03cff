package providers

import (
	"github.com/samber/do/v2"

	"github.com/tastebookapp/tastebook-server/internal/auth"
	"github.com/tastebookapp/tastebook-server/internal/logger"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
	"github.com/tastebookapp/tastebook-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideRecipeService provides the recipe service.
func ProvideRecipeService(i do.Injector) (*service.RecipeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*images.Storage](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecipeService(storeHandle.Store, storage, searchHandle.Index, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideIngredientService provides the ingredient service.
func ProvideIngredientService(i do.Injector) (*service.IngredientService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIngredientService(storeHandle.Store, log.Logger), nil
}
