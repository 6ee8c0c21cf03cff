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
	"github.com/tastebookapp/tastebook-server/internal/store"
	"github.com/tastebookapp/tastebook-server/internal/store/sqlite"
)

// IngredientService manages the caller's ingredient vocabulary.
type IngredientService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

func NewIngredientService(store *sqlite.Store, logger *slog.Logger) *IngredientService {
	return &IngredientService{store: store, logger: logger}
}

// List returns the caller's ingredients, name descending. With assignedOnly
// set, only ingredients attached to at least one recipe are returned.
func (s *IngredientService) List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	ingredients, err := s.store.ListIngredients(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// Get returns one of the caller's ingredients.
func (s *IngredientService) Get(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	ing, err := s.store.GetIngredient(ctx, userID, ingredientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ing, nil
}

// Create adds an ingredient to the caller's vocabulary. Names are unique per
// owner.
func (s *IngredientService) Create(ctx context.Context, userID string, req LabelRequest) (*domain.Ingredient, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("name must not be blank")
	}

	ingredientID, err := id.Generate("ing")
	if err != nil {
		return nil, fmt.Errorf("generate ingredient ID: %w", err)
	}

	ing := &domain.Ingredient{
		ID:     ingredientID,
		UserID: userID,
		Name:   name,
	}
	ing.Touch()
	ing.CreatedAt = ing.UpdatedAt

	if err := s.store.CreateIngredient(ctx, ing); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("ingredient already exists")
		}
		return nil, fmt.Errorf("create ingredient: %w", err)
	}

	return ing, nil
}

// Update renames one of the caller's ingredients.
func (s *IngredientService) Update(ctx context.Context, userID, ingredientID string, req LabelRequest) (*domain.Ingredient, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("name must not be blank")
	}

	ing, err := s.Get(ctx, userID, ingredientID)
	if err != nil {
		return nil, err
	}

	ing.Name = name
	ing.Touch()

	if err := s.store.UpdateIngredient(ctx, ing); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("ingredient already exists")
		}
		return nil, fmt.Errorf("update ingredient: %w", err)
	}

	return ing, nil
}

// Delete removes an ingredient and its recipe associations. Recipes survive.
func (s *IngredientService) Delete(ctx context.Context, userID, ingredientID string) error {
	if err := s.store.DeleteIngredient(ctx, userID, ingredientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("ingredient not found")
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}
	return nil
}
