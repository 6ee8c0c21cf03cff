package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "github.com/tastebookapp/tastebook-server/internal/errors"
)

func setupIngredientTest(t *testing.T) (*IngredientService, string) {
	t.Helper()

	authSvc, s := setupAuthTest(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := registerTestUser(t, authSvc, "cook@example.com")

	return NewIngredientService(s, logger), userID
}

func TestIngredientService_CreateAndList(t *testing.T) {
	svc, userID := setupIngredientTest(t)
	ctx := context.Background()

	ing, err := svc.Create(ctx, userID, LabelRequest{Name: "Cumin"})
	require.NoError(t, err)
	assert.Contains(t, ing.ID, "ing-")

	_, err = svc.Create(ctx, userID, LabelRequest{Name: "Basil"})
	require.NoError(t, err)

	ingredients, err := svc.List(ctx, userID, false)
	require.NoError(t, err)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "Cumin", ingredients[0].Name)
	assert.Equal(t, "Basil", ingredients[1].Name)
}

func TestIngredientService_Create_Duplicate(t *testing.T) {
	svc, userID := setupIngredientTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, userID, LabelRequest{Name: "Cumin"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, userID, LabelRequest{Name: "Cumin"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestIngredientService_UpdateAndDelete(t *testing.T) {
	svc, userID := setupIngredientTest(t)
	ctx := context.Background()

	ing, err := svc.Create(ctx, userID, LabelRequest{Name: "Cumin"})
	require.NoError(t, err)

	renamed, err := svc.Update(ctx, userID, ing.ID, LabelRequest{Name: "Coriander"})
	require.NoError(t, err)
	assert.Equal(t, "Coriander", renamed.Name)

	require.NoError(t, svc.Delete(ctx, userID, ing.ID))

	_, err = svc.Get(ctx, userID, ing.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
