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

// TagService manages the caller's tag vocabulary.
type TagService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

func NewTagService(store *sqlite.Store, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// LabelRequest carries the name for a tag or ingredient create or rename.
type LabelRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List returns the caller's tags, name descending. With assignedOnly set,
// only tags attached to at least one recipe are returned.
func (s *TagService) List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Get returns one of the caller's tags.
func (s *TagService) Get(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// Create adds a tag to the caller's vocabulary. Names are unique per owner.
func (s *TagService) Create(ctx context.Context, userID string, req LabelRequest) (*domain.Tag, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("name must not be blank")
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tag := &domain.Tag{
		ID:     tagID,
		UserID: userID,
		Name:   name,
	}
	tag.Touch()
	tag.CreatedAt = tag.UpdatedAt

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("tag already exists")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	return tag, nil
}

// Update renames one of the caller's tags.
func (s *TagService) Update(ctx context.Context, userID, tagID string, req LabelRequest) (*domain.Tag, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("name must not be blank")
	}

	tag, err := s.Get(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}

	tag.Name = name
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("tag already exists")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	return tag, nil
}

// Delete removes a tag and its recipe associations. Recipes survive.
func (s *TagService) Delete(ctx context.Context, userID, tagID string) error {
	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}
