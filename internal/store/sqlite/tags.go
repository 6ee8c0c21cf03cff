package sqlite

import (
	"context"

	"github.com/tastebookapp/tastebook-server/internal/domain"
)

func labelToTag(l *label) *domain.Tag {
	return &domain.Tag{
		ID:        l.ID,
		UserID:    l.UserID,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func tagToLabel(t *domain.Tag) *label {
	return &label{
		ID:        t.ID,
		UserID:    t.UserID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists when the owner already has that name.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	return s.createLabel(ctx, tagTable, tagToLabel(t))
}

// GetTag retrieves a tag scoped to its owner.
// Returns store.ErrNotFound for missing or foreign tags.
func (s *Store) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	l, err := s.getLabel(ctx, tagTable, userID, tagID)
	if err != nil {
		return nil, err
	}
	return labelToTag(l), nil
}

// ListTags returns the owner's tags ordered by name descending.
// When assignedOnly is set, tags without a recipe are skipped.
func (s *Store) ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	labels, err := s.listLabels(ctx, tagTable, userID, assignedOnly)
	if err != nil {
		return nil, err
	}
	tags := make([]*domain.Tag, len(labels))
	for i, l := range labels {
		tags[i] = labelToTag(l)
	}
	return tags, nil
}

// UpdateTag renames a tag scoped to its owner.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	return s.updateLabel(ctx, tagTable, tagToLabel(t))
}

// DeleteTag removes a tag and its recipe associations, scoped to its owner.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) error {
	return s.deleteLabel(ctx, tagTable, userID, tagID)
}
