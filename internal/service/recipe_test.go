package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "github.com/tastebookapp/tastebook-server/internal/errors"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
	"github.com/tastebookapp/tastebook-server/internal/search"
	"github.com/tastebookapp/tastebook-server/internal/store/sqlite"
)

type recipeTestEnv struct {
	recipes *RecipeService
	auth    *AuthService
	store   *sqlite.Store
	storage *images.Storage
	userID  string
}

// setupRecipeTest creates a recipe service with a live search index and a
// registered user.
func setupRecipeTest(t *testing.T) *recipeTestEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc, s := setupAuthTest(t)

	storage, err := images.NewStorage(filepath.Join(dir, "media"))
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(dir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return &recipeTestEnv{
		recipes: NewRecipeService(s, storage, index, logger),
		auth:    authSvc,
		store:   s,
		storage: storage,
		userID:  registerTestUser(t, authSvc, "cook@example.com"),
	}
}

func makeCreateRequest(title string) CreateRecipeRequest {
	return CreateRecipeRequest{
		Title:       title,
		Description: "A tasty dish",
		TimeMinutes: 30,
		Price:       "5.50",
		Link:        "https://example.com/recipe",
		Tags:        []NamedRef{{Name: "Dinner"}},
		Ingredients: []NamedRef{{Name: "Salt"}, {Name: "Pepper"}},
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecipeService_Create(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	assert.Contains(t, recipe.ID, "rec-")
	assert.Equal(t, "Pasta", recipe.Title)
	assert.Equal(t, int64(550), recipe.PriceCents)
	assert.Equal(t, "5.50", recipe.Price())
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "Dinner", recipe.Tags[0].Name)
	require.Len(t, recipe.Ingredients, 2)
}

func TestRecipeService_Create_Validation(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRecipeRequest
	}{
		{
			name: "missing title",
			req:  CreateRecipeRequest{Price: "5.00"},
		},
		{
			name: "missing price",
			req:  CreateRecipeRequest{Title: "Pasta"},
		},
		{
			name: "bad price",
			req:  CreateRecipeRequest{Title: "Pasta", Price: "five dollars"},
		},
		{
			name: "negative minutes",
			req:  CreateRecipeRequest{Title: "Pasta", Price: "5.00", TimeMinutes: -1},
		},
		{
			name: "bad link",
			req:  CreateRecipeRequest{Title: "Pasta", Price: "5.00", Link: "not a url"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.recipes.Create(ctx, env.userID, tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestRecipeService_Get_Foreign(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	otherID := registerTestUser(t, env.auth, "other@example.com")

	_, err = env.recipes.Get(ctx, otherID, recipe.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestRecipeService_List_SearchQuery(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	pasta, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Spaghetti Carbonara"))
	require.NoError(t, err)
	_, err = env.recipes.Create(ctx, env.userID, makeCreateRequest("Chocolate Cake"))
	require.NoError(t, err)

	results, err := env.recipes.List(ctx, env.userID, ListRecipesParams{Query: "carbonara"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, pasta.ID, results[0].ID)
}

func TestRecipeService_List_SearchNoHits(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	_, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	// A query that matches nothing returns nothing, not everything.
	results, err := env.recipes.List(ctx, env.userID, ListRecipesParams{Query: "zzzzzz"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecipeService_List_SearchDisabled(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	svc := NewRecipeService(env.store, env.storage, nil, nil)

	_, err := svc.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	// Without an index the query is ignored and the full listing returns.
	results, err := svc.List(ctx, env.userID, ListRecipesParams{Query: "anything"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRecipeService_List_TagFilter(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	req := makeCreateRequest("Curry")
	req.Tags = []NamedRef{{Name: "Spicy"}}
	curry, err := env.recipes.Create(ctx, env.userID, req)
	require.NoError(t, err)
	_, err = env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	results, err := env.recipes.List(ctx, env.userID, ListRecipesParams{
		TagIDs: []string{curry.Tags[0].ID},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, curry.ID, results[0].ID)
}

func TestRecipeService_Update_Partial(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	newTitle := "Pasta al Forno"
	newPrice := "7.25"
	updated, err := env.recipes.Update(ctx, env.userID, recipe.ID, UpdateRecipeRequest{
		Title: &newTitle,
		Price: &newPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, "Pasta al Forno", updated.Title)
	assert.Equal(t, int64(725), updated.PriceCents)
	assert.Equal(t, recipe.Description, updated.Description)
	// Omitted lists leave associations alone.
	require.Len(t, updated.Tags, 1)
	require.Len(t, updated.Ingredients, 2)
}

func TestRecipeService_Update_ClearTags(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	empty := []NamedRef{}
	updated, err := env.recipes.Update(ctx, env.userID, recipe.ID, UpdateRecipeRequest{
		Tags: &empty,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
	assert.Len(t, updated.Ingredients, 2)

	// The tag itself survives in the vocabulary.
	tags, err := env.store.ListTags(ctx, env.userID, false)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestRecipeService_Update_BlankTitle(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	for _, title := range []string{"", "   "} {
		_, err = env.recipes.Update(ctx, env.userID, recipe.ID, UpdateRecipeRequest{Title: &title})
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	}

	fetched, err := env.recipes.Get(ctx, env.userID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pasta", fetched.Title)
}

func TestRecipeService_Update_Foreign(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	otherID := registerTestUser(t, env.auth, "other@example.com")

	newTitle := "Stolen"
	_, err = env.recipes.Update(ctx, otherID, recipe.ID, UpdateRecipeRequest{Title: &newTitle})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestRecipeService_Update_Reindexes(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	newTitle := "Shakshuka"
	_, err = env.recipes.Update(ctx, env.userID, recipe.ID, UpdateRecipeRequest{Title: &newTitle})
	require.NoError(t, err)

	results, err := env.recipes.List(ctx, env.userID, ListRecipesParams{Query: "shakshuka"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, recipe.ID, results[0].ID)

	results, err = env.recipes.List(ctx, env.userID, ListRecipesParams{Query: "pasta"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecipeService_Delete(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	require.NoError(t, env.recipes.Delete(ctx, env.userID, recipe.ID))

	_, err = env.recipes.Get(ctx, env.userID, recipe.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	// Gone from search too.
	results, err := env.recipes.List(ctx, env.userID, ListRecipesParams{Query: "pasta"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecipeService_Delete_Foreign(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	otherID := registerTestUser(t, env.auth, "other@example.com")

	err = env.recipes.Delete(ctx, otherID, recipe.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, err = env.recipes.Get(ctx, env.userID, recipe.ID)
	assert.NoError(t, err)
}

func TestRecipeService_UploadImage(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	updated, err := env.recipes.UploadImage(ctx, env.userID, recipe.ID, "photo.png", testPNG(t))
	require.NoError(t, err)

	assert.NotEmpty(t, updated.ImagePath)
	assert.NotEmpty(t, updated.ImageBlurHash)
	assert.True(t, env.storage.Exists(updated.ImagePath))

	fetched, err := env.recipes.Get(ctx, env.userID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.ImagePath, fetched.ImagePath)
}

func TestRecipeService_UploadImage_ReplacesPrevious(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	first, err := env.recipes.UploadImage(ctx, env.userID, recipe.ID, "a.png", testPNG(t))
	require.NoError(t, err)
	second, err := env.recipes.UploadImage(ctx, env.userID, recipe.ID, "b.png", testPNG(t))
	require.NoError(t, err)

	assert.NotEqual(t, first.ImagePath, second.ImagePath)
	assert.False(t, env.storage.Exists(first.ImagePath))
	assert.True(t, env.storage.Exists(second.ImagePath))
}

func TestRecipeService_UploadImage_Invalid(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.recipes.Create(ctx, env.userID, makeCreateRequest("Pasta"))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty file", data: nil},
		{name: "not an image", data: []byte("definitely not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.recipes.UploadImage(ctx, env.userID, recipe.ID, "x.png", tt.data)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}

	// The recipe record is untouched.
	fetched, err := env.recipes.Get(ctx, env.userID, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.ImagePath)

	// A previously attached image survives a failed upload.
	uploaded, err := env.recipes.UploadImage(ctx, env.userID, recipe.ID, "good.png", testPNG(t))
	require.NoError(t, err)

	_, err = env.recipes.UploadImage(ctx, env.userID, recipe.ID, "bad.png", []byte("not an image"))
	require.Error(t, err)

	fetched, err = env.recipes.Get(ctx, env.userID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, uploaded.ImagePath, fetched.ImagePath)
	assert.True(t, env.storage.Exists(uploaded.ImagePath))
}
