package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/service"
)

func (s *Server) registerIngredientRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listIngredients",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients",
		Summary:     "List ingredients",
		Description: "Returns the caller's ingredients, name descending.",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListIngredients)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createIngredient",
		Method:        http.MethodPost,
		Path:          "/api/v1/ingredients",
		Summary:       "Create ingredient",
		Tags:          []string{"Ingredients"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIngredient",
		Method:      http.MethodPatch,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Rename ingredient",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteIngredient",
		Method:        http.MethodDelete,
		Path:          "/api/v1/ingredients/{id}",
		Summary:       "Delete ingredient",
		Description:   "Removes the ingredient and its recipe associations. Recipes survive.",
		Tags:          []string{"Ingredients"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteIngredient)
}

// IngredientResponse contains an ingredient in API responses.
type IngredientResponse struct {
	ID        string    `json:"id" doc:"Ingredient ID"`
	Name      string    `json:"name" doc:"Ingredient name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// IngredientOutput wraps a single ingredient for Huma.
type IngredientOutput struct {
	Body IngredientResponse
}

// IngredientListOutput wraps an ingredient listing for Huma.
type IngredientListOutput struct {
	Body []IngredientResponse
}

func mapIngredientResponse(i *domain.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:        i.ID,
		Name:      i.Name,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func (s *Server) handleListIngredients(ctx context.Context, input *ListLabelsInput) (*IngredientListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.services.Ingredients.List(ctx, userID, input.AssignedOnly)
	if err != nil {
		return nil, err
	}

	out := make([]IngredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, mapIngredientResponse(i))
	}
	return &IngredientListOutput{Body: out}, nil
}

func (s *Server) handleCreateIngredient(ctx context.Context, input *LabelBodyInput) (*IngredientOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredients.Create(ctx, userID, service.LabelRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}

	return &IngredientOutput{Body: mapIngredientResponse(ing)}, nil
}

func (s *Server) handleUpdateIngredient(ctx context.Context, input *LabelUpdateInput) (*IngredientOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredients.Update(ctx, userID, input.ID, service.LabelRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}

	return &IngredientOutput{Body: mapIngredientResponse(ing)}, nil
}

func (s *Server) handleDeleteIngredient(ctx context.Context, input *LabelIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Ingredients.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}
