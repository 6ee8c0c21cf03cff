package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/store"
)

func makeTestIngredient(id, userID, name string) *domain.Ingredient {
	now := time.Now()
	return &domain.Ingredient{
		ID:        id,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIngredientCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-ing", "ing@example.com")

	ing := makeTestIngredient("ing-1", "user-ing", "Paprika")
	if err := s.CreateIngredient(ctx, ing); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}

	got, err := s.GetIngredient(ctx, "user-ing", "ing-1")
	if err != nil {
		t.Fatalf("GetIngredient: %v", err)
	}
	if got.Name != "Paprika" {
		t.Errorf("Name: got %q, want %q", got.Name, "Paprika")
	}

	got.Name = "Smoked Paprika"
	got.UpdatedAt = time.Now().Add(time.Minute)
	if err := s.UpdateIngredient(ctx, got); err != nil {
		t.Fatalf("UpdateIngredient: %v", err)
	}

	list, err := s.ListIngredients(ctx, "user-ing", false)
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Smoked Paprika" {
		t.Fatalf("expected renamed ingredient, got %d items", len(list))
	}

	if err := s.DeleteIngredient(ctx, "user-ing", "ing-1"); err != nil {
		t.Fatalf("DeleteIngredient: %v", err)
	}
	_, err = s.GetIngredient(ctx, "user-ing", "ing-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreateIngredient_DuplicateSameOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-ind", "ind@example.com")

	if err := s.CreateIngredient(ctx, makeTestIngredient("ing-d1", "user-ind", "Salt")); err != nil {
		t.Fatalf("CreateIngredient first: %v", err)
	}
	err := s.CreateIngredient(ctx, makeTestIngredient("ing-d2", "user-ind", "Salt"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestListIngredients_OwnerScopedNameDesc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-inl1", "inl1@example.com")
	insertTestUser(t, s, "user-inl2", "inl2@example.com")

	for i, name := range []string{"Apple", "Zucchini", "Mango"} {
		ing := makeTestIngredient("ing-l"+string(rune('a'+i)), "user-inl1", name)
		if err := s.CreateIngredient(ctx, ing); err != nil {
			t.Fatalf("CreateIngredient(%s): %v", name, err)
		}
	}
	if err := s.CreateIngredient(ctx, makeTestIngredient("ing-lx", "user-inl2", "Basil")); err != nil {
		t.Fatalf("CreateIngredient foreign: %v", err)
	}

	got, err := s.ListIngredients(ctx, "user-inl1", false)
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	want := []string{"Zucchini", "Mango", "Apple"}
	if len(got) != len(want) {
		t.Fatalf("expected %d ingredients, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("item %d: got %q, want %q", i, got[i].Name, name)
		}
	}
}
