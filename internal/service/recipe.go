package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tastebookapp/tastebook-server/internal/domain"
	domainerrors "github.com/tastebookapp/tastebook-server/internal/errors"
	"github.com/tastebookapp/tastebook-server/internal/id"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
	"github.com/tastebookapp/tastebook-server/internal/search"
	"github.com/tastebookapp/tastebook-server/internal/store"
	"github.com/tastebookapp/tastebook-server/internal/store/sqlite"
)

// RecipeService handles recipe CRUD, taxonomy reconciliation, image upload,
// and search indexing.
type RecipeService struct {
	store   *sqlite.Store
	storage *images.Storage
	index   *search.Index // nil when search is disabled
	logger  *slog.Logger
}

// NewRecipeService creates a new recipe service. index may be nil, in which
// case search queries are ignored and no indexing happens.
func NewRecipeService(store *sqlite.Store, storage *images.Storage, index *search.Index, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:   store,
		storage: storage,
		index:   index,
		logger:  logger,
	}
}

// NamedRef is a taxonomy reference by name, as carried in recipe payloads.
type NamedRef struct {
	Name string `json:"name" validate:"required"`
}

// CreateRecipeRequest contains a new recipe. Tags and ingredients are
// reconciled against the caller's taxonomy.
type CreateRecipeRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description"`
	TimeMinutes int        `json:"time_minutes" validate:"gte=0"`
	Price       string     `json:"price" validate:"required"`
	Link        string     `json:"link" validate:"omitempty,url"`
	Tags        []NamedRef `json:"tags"`
	Ingredients []NamedRef `json:"ingredients"`
}

// UpdateRecipeRequest carries a partial recipe update. Nil fields are left
// untouched; a non-nil empty Tags or Ingredients list clears the
// associations.
type UpdateRecipeRequest struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string     `json:"description,omitempty"`
	TimeMinutes *int        `json:"time_minutes,omitempty" validate:"omitempty,gte=0"`
	Price       *string     `json:"price,omitempty"`
	Link        *string     `json:"link,omitempty" validate:"omitempty,url"`
	Tags        *[]NamedRef `json:"tags,omitempty"`
	Ingredients *[]NamedRef `json:"ingredients,omitempty"`
}

// ListRecipesParams narrows a recipe listing.
type ListRecipesParams struct {
	TagIDs        []string // any-of tag filter
	IngredientIDs []string // any-of ingredient filter
	Query         string   // full-text search, ignored when search is disabled
}

func refNames(refs []NamedRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

// Create stores a new recipe and its taxonomy associations atomically.
func (s *RecipeService) Create(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	priceCents, err := domain.ParsePrice(req.Price)
	if err != nil {
		return nil, domainerrors.Validationf("price is invalid: %v", err)
	}

	recipeID, err := id.Generate("rec")
	if err != nil {
		return nil, fmt.Errorf("generate recipe ID: %w", err)
	}

	recipe := &domain.Recipe{
		ID:          recipeID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		TimeMinutes: req.TimeMinutes,
		PriceCents:  priceCents,
		Link:        req.Link,
	}
	recipe.Touch()
	recipe.CreatedAt = recipe.UpdatedAt

	if err := s.store.CreateRecipe(ctx, recipe, refNames(req.Tags), refNames(req.Ingredients)); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	created, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("load created recipe: %w", err)
	}

	s.indexRecipe(created)

	if s.logger != nil {
		s.logger.Info("recipe created", "recipe_id", recipeID, "user_id", userID)
	}

	return created, nil
}

// Get returns one of the caller's recipes. Foreign recipes are reported as
// not found.
func (s *RecipeService) Get(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// List returns the caller's recipes, newest first, optionally narrowed by
// taxonomy filters and full-text search.
func (s *RecipeService) List(ctx context.Context, userID string, params ListRecipesParams) ([]*domain.Recipe, error) {
	filter := sqlite.RecipeFilter{
		TagIDs:        params.TagIDs,
		IngredientIDs: params.IngredientIDs,
	}

	if params.Query != "" && s.index != nil {
		ids, err := s.index.Search(ctx, userID, params.Query)
		if err != nil {
			return nil, fmt.Errorf("search recipes: %w", err)
		}
		filter.RecipeIDs = ids
	}

	recipes, err := s.store.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Update applies a partial update; the recipe write and any association
// reconciliation share one transaction. The owner never changes.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID string, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		// Schema-level presence checks let an explicit empty string through.
		if strings.TrimSpace(*req.Title) == "" {
			return nil, domainerrors.Validation("title must not be blank")
		}
		recipe.Title = *req.Title
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		priceCents, err := domain.ParsePrice(*req.Price)
		if err != nil {
			return nil, domainerrors.Validationf("price is invalid: %v", err)
		}
		recipe.PriceCents = priceCents
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	recipe.Touch()

	var tagNames, ingredientNames *[]string
	if req.Tags != nil {
		names := refNames(*req.Tags)
		tagNames = &names
	}
	if req.Ingredients != nil {
		names := refNames(*req.Ingredients)
		ingredientNames = &names
	}

	if err := s.store.UpdateRecipe(ctx, recipe, tagNames, ingredientNames); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	updated, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("load updated recipe: %w", err)
	}

	s.indexRecipe(updated)

	return updated, nil
}

// Delete removes one of the caller's recipes, its associations, and its
// stored image.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	if recipe.ImagePath != "" {
		if err := s.storage.Delete(recipe.ImagePath); err != nil && s.logger != nil {
			s.logger.Warn("failed to delete recipe image", "recipe_id", recipeID, "error", err)
		}
	}

	if s.index != nil {
		if err := s.index.DeleteRecipe(recipeID); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove recipe from search index", "recipe_id", recipeID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("recipe deleted", "recipe_id", recipeID, "user_id", userID)
	}

	return nil
}

// UploadImage validates and stores a recipe image, replacing any previous
// one. The prior image is kept when validation fails.
func (s *RecipeService) UploadImage(ctx context.Context, userID, recipeID, filename string, data []byte) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, domainerrors.Validation("image file is required")
	}

	relPath, err := s.storage.SaveUpload(filename, data)
	if err != nil {
		return nil, domainerrors.Validation("invalid image").WithCause(err)
	}

	blurHash, err := images.ComputeBlurHash(data)
	if err != nil {
		// Placeholder only; the upload still succeeds.
		if s.logger != nil {
			s.logger.Warn("failed to compute blurhash", "recipe_id", recipeID, "error", err)
		}
		blurHash = ""
	}

	recipe.Touch()
	if err := s.store.SetRecipeImage(ctx, userID, recipeID, relPath, blurHash, recipe.UpdatedAt); err != nil {
		// Roll back the just-written file; the DB row is unchanged.
		_ = s.storage.Delete(relPath)
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("set recipe image: %w", err)
	}

	if recipe.ImagePath != "" && recipe.ImagePath != relPath {
		if err := s.storage.Delete(recipe.ImagePath); err != nil && s.logger != nil {
			s.logger.Warn("failed to delete previous image", "recipe_id", recipeID, "error", err)
		}
	}

	recipe.ImagePath = relPath
	recipe.ImageBlurHash = blurHash

	if s.logger != nil {
		s.logger.Info("recipe image stored", "recipe_id", recipeID, "path", relPath)
	}

	return recipe, nil
}

// indexRecipe updates the search index for a recipe. Index failures are
// logged and swallowed; the store stays the source of truth.
func (s *RecipeService) indexRecipe(recipe *domain.Recipe) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexRecipe(search.RecipeToDocument(recipe)); err != nil && s.logger != nil {
		s.logger.Warn("failed to index recipe", "recipe_id", recipe.ID, "error", err)
	}
}
