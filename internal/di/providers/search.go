package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/tastebookapp/tastebook-server/internal/config"
	"github.com/tastebookapp/tastebook-server/internal/logger"
	"github.com/tastebookapp/tastebook-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// Index is nil when search is disabled.
type SearchIndexHandle struct {
	Index *search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Index.Close()
}

// ProvideSearchIndex provides the bleve recipe index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Full-text search disabled")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(cfg.Media.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the store.
// The index is rebuilt from scratch on mapping changes or corruption, so an
// empty index with stored recipes means a rebuild is pending.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	if searchHandle.Index == nil {
		return
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := searchHandle.Index.DocumentCount()
	if docCount > 0 {
		return
	}

	recipes, err := storeHandle.ListAllRecipes(context.Background())
	if err != nil || len(recipes) == 0 {
		return
	}

	log.Info("Search index is empty but recipes exist, triggering initial reindex",
		"recipe_count", len(recipes),
	)

	go func() {
		docs := make([]*search.RecipeDocument, 0, len(recipes))
		for _, r := range recipes {
			docs = append(docs, search.RecipeToDocument(r))
		}
		if err := searchHandle.Index.IndexRecipes(docs); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := searchHandle.Index.DocumentCount()
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
