package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the caller's tags, name descending.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags",
		Summary:       "Create tag",
		Tags:          []string{"Tags"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Rename tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTag",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tags/{id}",
		Summary:       "Delete tag",
		Description:   "Removes the tag and its recipe associations. Recipes survive.",
		Tags:          []string{"Tags"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteTag)
}

// === DTOs ===

// TagResponse contains a tag in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Name      string    `json:"name" doc:"Tag name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body TagResponse
}

// TagListOutput wraps a tag listing for Huma.
type TagListOutput struct {
	Body []TagResponse
}

// ListLabelsInput carries taxonomy listing filters.
type ListLabelsInput struct {
	AssignedOnly bool `query:"assigned_only" doc:"Only labels attached to at least one recipe"`
}

// LabelBodyInput wraps a tag or ingredient create/rename body for Huma.
type LabelBodyInput struct {
	Body LabelPayload
}

// LabelUpdateInput wraps a rename with its path ID for Huma.
type LabelUpdateInput struct {
	ID   string `path:"id" doc:"Label ID"`
	Body LabelPayload
}

// LabelIDInput identifies a tag or ingredient by path.
type LabelIDInput struct {
	ID string `path:"id" doc:"Label ID"`
}

func mapTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListLabelsInput) (*TagListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tags.List(ctx, userID, input.AssignedOnly)
	if err != nil {
		return nil, err
	}

	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, mapTagResponse(t))
	}
	return &TagListOutput{Body: out}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *LabelBodyInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.Create(ctx, userID, service.LabelRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *LabelUpdateInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.Update(ctx, userID, input.ID, service.LabelRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *LabelIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tags.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}
