package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/http/response"
	"github.com/tastebookapp/tastebook-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the caller's recipes, newest first. Supports tag/ingredient ID filters and full-text search.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Partially update recipe",
		Description: "Omitted fields are left unchanged. An empty tags or ingredients list clears the associations.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePatchRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Full update; every field takes the supplied value.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePutRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          "/api/v1/recipes/{id}",
		Summary:       "Delete recipe",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)
}

// === DTOs ===

// LabelPayload references a tag or ingredient by name in recipe payloads.
type LabelPayload struct {
	Name string `json:"name" doc:"Tag or ingredient name"`
}

// LabelResponse contains a tag or ingredient in recipe responses.
type LabelResponse struct {
	ID   string `json:"id" doc:"Label ID"`
	Name string `json:"name" doc:"Label name"`
}

// RecipeRequest is the request body for recipe create and replace.
type RecipeRequest struct {
	Title       string         `json:"title" doc:"Recipe title"`
	Description string         `json:"description,omitempty" doc:"Free-form description"`
	TimeMinutes int            `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       string         `json:"price" doc:"Price as a decimal string, e.g. 5.50"`
	Link        string         `json:"link,omitempty" doc:"External link"`
	Tags        []LabelPayload `json:"tags,omitempty" doc:"Tags, reconciled by name"`
	Ingredients []LabelPayload `json:"ingredients,omitempty" doc:"Ingredients, reconciled by name"`
}

// RecipePatchRequest is the request body for partial recipe updates.
// Omitted fields are left unchanged.
type RecipePatchRequest struct {
	Title       *string         `json:"title,omitempty" doc:"New title"`
	Description *string         `json:"description,omitempty" doc:"New description"`
	TimeMinutes *int            `json:"time_minutes,omitempty" doc:"New preparation time"`
	Price       *string         `json:"price,omitempty" doc:"New price"`
	Link        *string         `json:"link,omitempty" doc:"New link"`
	Tags        *[]LabelPayload `json:"tags,omitempty" doc:"Replacement tag set; empty list clears"`
	Ingredients *[]LabelPayload `json:"ingredients,omitempty" doc:"Replacement ingredient set; empty list clears"`
}

// RecipeResponse contains a recipe in API responses.
type RecipeResponse struct {
	ID            string          `json:"id" doc:"Recipe ID"`
	Title         string          `json:"title" doc:"Recipe title"`
	Description   string          `json:"description" doc:"Free-form description"`
	TimeMinutes   int             `json:"time_minutes" doc:"Preparation time in minutes"`
	Price         string          `json:"price" doc:"Price as a decimal string"`
	Link          string          `json:"link,omitempty" doc:"External link"`
	Image         string          `json:"image,omitempty" doc:"Image URL"`
	ImageBlurHash string          `json:"image_blurhash,omitempty" doc:"BlurHash placeholder for the image"`
	Tags          []LabelResponse `json:"tags" doc:"Associated tags"`
	Ingredients   []LabelResponse `json:"ingredients" doc:"Associated ingredients"`
	CreatedAt     time.Time       `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt     time.Time       `json:"updated_at" doc:"Last update timestamp"`
}

// RecipeInput identifies a recipe by path.
type RecipeInput struct {
	ID string `path:"id" doc:"Recipe ID"`
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Body RecipeRequest
}

// ReplaceRecipeInput wraps the replace request for Huma.
type ReplaceRecipeInput struct {
	ID   string `path:"id" doc:"Recipe ID"`
	Body RecipeRequest
}

// PatchRecipeInput wraps the partial update for Huma.
type PatchRecipeInput struct {
	ID   string `path:"id" doc:"Recipe ID"`
	Body RecipePatchRequest
}

// ListRecipesInput carries the listing filters.
type ListRecipesInput struct {
	Tags        string `query:"tags" doc:"Comma-separated tag IDs; matching recipes carry any of them"`
	Ingredients string `query:"ingredients" doc:"Comma-separated ingredient IDs"`
	Query       string `query:"q" doc:"Full-text search over title, description, tags, and ingredients"`
}

// RecipeOutput wraps a single recipe for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// RecipeListOutput wraps a recipe listing for Huma.
type RecipeListOutput struct {
	Body []RecipeResponse
}

func mapLabelPayloads(payloads []LabelPayload) []service.NamedRef {
	refs := make([]service.NamedRef, 0, len(payloads))
	for _, p := range payloads {
		refs = append(refs, service.NamedRef{Name: p.Name})
	}
	return refs
}

func mapTagResponses(tags []*domain.Tag) []LabelResponse {
	out := make([]LabelResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, LabelResponse{ID: t.ID, Name: t.Name})
	}
	return out
}

func mapIngredientResponses(ingredients []*domain.Ingredient) []LabelResponse {
	out := make([]LabelResponse, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, LabelResponse{ID: i.ID, Name: i.Name})
	}
	return out
}

func mapRecipeResponse(r *domain.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price(),
		Link:          r.Link,
		ImageBlurHash: r.ImageBlurHash,
		Tags:          mapTagResponses(r.Tags),
		Ingredients:   mapIngredientResponses(r.Ingredients),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ImagePath != "" {
		resp.Image = "/media/" + filepath.ToSlash(r.ImagePath)
	}
	return resp
}

// splitIDs parses a comma-separated ID list, dropping empty entries.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*RecipeListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipes.List(ctx, userID, service.ListRecipesParams{
		TagIDs:        splitIDs(input.Tags),
		IngredientIDs: splitIDs(input.Ingredients),
		Query:         input.Query,
	})
	if err != nil {
		return nil, err
	}

	out := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, mapRecipeResponse(r))
	}
	return &RecipeListOutput{Body: out}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipes.Create(ctx, userID, service.CreateRecipeRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
		Tags:        mapLabelPayloads(input.Body.Tags),
		Ingredients: mapLabelPayloads(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipes.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handlePatchRecipe(ctx context.Context, input *PatchRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	req := service.UpdateRecipeRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
	}
	if input.Body.Tags != nil {
		refs := mapLabelPayloads(*input.Body.Tags)
		req.Tags = &refs
	}
	if input.Body.Ingredients != nil {
		refs := mapLabelPayloads(*input.Body.Ingredients)
		req.Ingredients = &refs
	}

	recipe, err := s.services.Recipes.Update(ctx, userID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handlePutRecipe(ctx context.Context, input *ReplaceRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	// Every field takes the supplied value, including zero values and
	// association sets.
	tags := mapLabelPayloads(input.Body.Tags)
	ingredients := mapLabelPayloads(input.Body.Ingredients)

	recipe, err := s.services.Recipes.Update(ctx, userID, input.ID, service.UpdateRecipeRequest{
		Title:       &input.Body.Title,
		Description: &input.Body.Description,
		TimeMinutes: &input.Body.TimeMinutes,
		Price:       &input.Body.Price,
		Link:        &input.Body.Link,
		Tags:        &tags,
		Ingredients: &ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipes.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}

// handleUploadRecipeImage stores a recipe image.
// POST /api/v1/recipes/{id}/image
// Content-Type: multipart/form-data with "image" field.
// This is a chi handler because Huma doesn't easily support multipart forms.
func (s *Server) handleUploadRecipeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := GetUserID(ctx)
	if err != nil {
		response.Unauthorized(w, "authentication required", s.logger)
		return
	}

	recipeID := chi.URLParam(r, "id")
	if recipeID == "" {
		response.BadRequest(w, "recipe ID is required", s.logger)
		return
	}

	const maxUploadSize = 10 << 20 // 10MB
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "failed to parse form data", s.logger)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "no file uploaded, use the 'image' field", s.logger)
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		response.BadRequest(w, "file too large, maximum size is 10MB", s.logger)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("failed to read uploaded file", "error", err, "recipe_id", recipeID)
		response.InternalError(w, "failed to read uploaded file", s.logger)
		return
	}

	recipe, err := s.services.Recipes.UploadImage(ctx, userID, recipeID, header.Filename, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapRecipeResponse(recipe), s.logger)
}
