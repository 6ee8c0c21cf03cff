package sqlite

import (
	"context"

	"github.com/tastebookapp/tastebook-server/internal/domain"
)

func labelToIngredient(l *label) *domain.Ingredient {
	return &domain.Ingredient{
		ID:        l.ID,
		UserID:    l.UserID,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func ingredientToLabel(ing *domain.Ingredient) *label {
	return &label{
		ID:        ing.ID,
		UserID:    ing.UserID,
		Name:      ing.Name,
		CreatedAt: ing.CreatedAt,
		UpdatedAt: ing.UpdatedAt,
	}
}

// CreateIngredient inserts a new ingredient.
// Returns store.ErrAlreadyExists when the owner already has that name.
func (s *Store) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	return s.createLabel(ctx, ingredientTable, ingredientToLabel(ing))
}

// GetIngredient retrieves an ingredient scoped to its owner.
// Returns store.ErrNotFound for missing or foreign ingredients.
func (s *Store) GetIngredient(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	l, err := s.getLabel(ctx, ingredientTable, userID, ingredientID)
	if err != nil {
		return nil, err
	}
	return labelToIngredient(l), nil
}

// ListIngredients returns the owner's ingredients ordered by name descending.
// When assignedOnly is set, ingredients without a recipe are skipped.
func (s *Store) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	labels, err := s.listLabels(ctx, ingredientTable, userID, assignedOnly)
	if err != nil {
		return nil, err
	}
	ingredients := make([]*domain.Ingredient, len(labels))
	for i, l := range labels {
		ingredients[i] = labelToIngredient(l)
	}
	return ingredients, nil
}

// UpdateIngredient renames an ingredient scoped to its owner.
func (s *Store) UpdateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	return s.updateLabel(ctx, ingredientTable, ingredientToLabel(ing))
}

// DeleteIngredient removes an ingredient and its recipe associations, scoped to its owner.
func (s *Store) DeleteIngredient(ctx context.Context, userID, ingredientID string) error {
	return s.deleteLabel(ctx, ingredientTable, userID, ingredientID)
}
