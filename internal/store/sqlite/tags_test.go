package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/store"
)

// makeTestTag creates a domain.Tag with sensible defaults for testing.
func makeTestTag(id, userID, name string) *domain.Tag {
	now := time.Now()
	return &domain.Tag{
		ID:        id,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-t1", "tags@example.com")
	tag := makeTestTag("tag-1", "user-t1", "Vegan")

	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "user-t1", "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}

	if got.ID != tag.ID {
		t.Errorf("ID: got %q, want %q", got.ID, tag.ID)
	}
	if got.Name != tag.Name {
		t.Errorf("Name: got %q, want %q", got.Name, tag.Name)
	}
	if got.UserID != "user-t1" {
		t.Errorf("UserID: got %q, want %q", got.UserID, "user-t1")
	}
	if got.CreatedAt.Unix() != tag.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, tag.CreatedAt)
	}
}

func TestGetTag_ForeignOwnerLooksMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-owner", "owner@example.com")
	insertTestUser(t, s, "user-other", "other@example.com")

	tag := makeTestTag("tag-f1", "user-owner", "Dessert")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	_, err := s.GetTag(ctx, "user-other", "tag-f1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign tag, got %v", err)
	}
}

func TestCreateTag_DuplicateNameSameOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-d1", "d1@example.com")
	insertTestUser(t, s, "user-d2", "d2@example.com")

	if err := s.CreateTag(ctx, makeTestTag("tag-d1", "user-d1", "Comfort Food")); err != nil {
		t.Fatalf("CreateTag first: %v", err)
	}

	err := s.CreateTag(ctx, makeTestTag("tag-d2", "user-d1", "Comfort Food"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for same owner, got %v", err)
	}

	// Another owner can use the same name.
	if err := s.CreateTag(ctx, makeTestTag("tag-d3", "user-d2", "Comfort Food")); err != nil {
		t.Fatalf("CreateTag other owner: %v", err)
	}
}

func TestListTags_OrderedByNameDesc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-l1", "l1@example.com")
	insertTestUser(t, s, "user-l2", "l2@example.com")

	names := []string{"Breakfast", "Vegan", "Dessert"}
	for i, name := range names {
		tag := makeTestTag("tag-l"+string(rune('a'+i)), "user-l1", name)
		if err := s.CreateTag(ctx, tag); err != nil {
			t.Fatalf("CreateTag(%s): %v", name, err)
		}
	}
	// Foreign tag must not show up.
	if err := s.CreateTag(ctx, makeTestTag("tag-lx", "user-l2", "Zesty")); err != nil {
		t.Fatalf("CreateTag foreign: %v", err)
	}

	got, err := s.ListTags(ctx, "user-l1", false)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(got))
	}
	want := []string{"Vegan", "Dessert", "Breakfast"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("item %d: got name %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestListTags_AssignedOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-a1", "a1@example.com")

	now := time.Now()
	r := &domain.Recipe{
		ID: "rec-a1", UserID: "user-a1", Title: "Pancakes",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateRecipe(ctx, r, []string{"Breakfast"}, nil); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if err := s.CreateTag(ctx, makeTestTag("tag-a-unused", "user-a1", "Unused")); err != nil {
		t.Fatalf("CreateTag unused: %v", err)
	}

	got, err := s.ListTags(ctx, "user-a1", true)
	if err != nil {
		t.Fatalf("ListTags assigned only: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 assigned tag, got %d", len(got))
	}
	if got[0].Name != "Breakfast" {
		t.Errorf("assigned tag: got %q, want %q", got[0].Name, "Breakfast")
	}
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-u1", "u1@example.com")
	tag := makeTestTag("tag-u1", "user-u1", "Old Name")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tag.Name = "New Name"
	tag.UpdatedAt = time.Now().Add(time.Minute)
	if err := s.UpdateTag(ctx, tag); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "user-u1", "tag-u1")
	if err != nil {
		t.Fatalf("GetTag after update: %v", err)
	}
	if got.Name != "New Name" {
		t.Errorf("Name: got %q, want %q", got.Name, "New Name")
	}

	// Foreign update must report not found.
	tag.UserID = "user-someone-else"
	if err := s.UpdateTag(ctx, tag); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
}

func TestDeleteTag_RemovesAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-del1", "del1@example.com")

	now := time.Now()
	r := &domain.Recipe{
		ID: "rec-del1", UserID: "user-del1", Title: "Chili",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateRecipe(ctx, r, []string{"Spicy"}, nil); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	tags, err := s.ListTags(ctx, "user-del1", false)
	if err != nil || len(tags) != 1 {
		t.Fatalf("ListTags: %v (len %d)", err, len(tags))
	}

	if err := s.DeleteTag(ctx, "user-del1", tags[0].ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	// Recipe survives with no tags.
	got, err := s.GetRecipe(ctx, "user-del1", "rec-del1")
	if err != nil {
		t.Fatalf("GetRecipe after tag delete: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("expected no tags after delete, got %d", len(got.Tags))
	}

	if err := s.DeleteTag(ctx, "user-del1", tags[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
