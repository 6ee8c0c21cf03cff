package providers

import (
	"github.com/samber/do/v2"

	"github.com/tastebookapp/tastebook-server/internal/config"
	"github.com/tastebookapp/tastebook-server/internal/logger"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
)

// ProvideImageStorage provides the recipe image storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Media.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Image storage initialized", "path", cfg.Media.BasePath)

	return storage, nil
}
