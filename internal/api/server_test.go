package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/tastebookapp/tastebook-server/internal/auth"
	"github.com/tastebookapp/tastebook-server/internal/media/images"
	"github.com/tastebookapp/tastebook-server/internal/search"
	"github.com/tastebookapp/tastebook-server/internal/service"
	"github.com/tastebookapp/tastebook-server/internal/store/sqlite"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api          humatest.TestAPI
	tokenService *auth.TokenService
}

// newTestServer creates a fully wired server on temporary storage.
func newTestServer(t *testing.T, tokenLimiter *RateLimiter) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authKey, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute)
	require.NoError(t, err)

	storage, err := images.NewStorage(filepath.Join(dir, "media"))
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(dir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	if tokenLimiter != nil {
		t.Cleanup(tokenLimiter.Stop)
	}

	services := &Services{
		Auth:        service.NewAuthService(st, tokenService, logger),
		Recipes:     service.NewRecipeService(st, storage, index, logger),
		Tags:        service.NewTagService(st, logger),
		Ingredients: service.NewIngredientService(st, logger),
	}

	s := NewServer(services, st, storage, index, tokenLimiter, "Tastebook Test", logger)

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, s.api),
		tokenService: tokenService,
	}
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServer(t, NewRateLimiter(100, time.Minute, 50))
}

// createTestUser registers a user and returns a valid bearer token and the
// user ID.
func (ts *testServer) createTestUser(t *testing.T, email string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/users", map[string]any{
		"email":    email,
		"password": "TestPassword123",
		"name":     "Test Cook",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())

	resp = ts.api.Post(tokenPath, map[string]any{
		"email":    email,
		"password": "TestPassword123",
	})
	require.Equal(t, http.StatusOK, resp.Code, "token failed: %s", resp.Body.String())

	var tokenResp TokenResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tokenResp))

	claims, err := ts.tokenService.VerifyAccessToken(tokenResp.Token)
	require.NoError(t, err)

	return tokenResp.Token, claims.UserID
}

// createTestRecipe creates a recipe through the API and returns its response.
func (ts *testServer) createTestRecipe(t *testing.T, token, title string) RecipeResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/recipes",
		"Authorization: Bearer "+token,
		map[string]any{
			"title":        title,
			"description":  "A tasty dish",
			"time_minutes": 30,
			"price":        "5.50",
			"tags":         []map[string]any{{"name": "Dinner"}},
			"ingredients":  []map[string]any{{"name": "Salt"}},
		})
	require.Equal(t, http.StatusCreated, resp.Code, "create recipe failed: %s", resp.Body.String())

	var recipe RecipeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &recipe))
	return recipe
}

// uploadImage posts a multipart image to the upload endpoint and returns the
// response recorder.
func (ts *testServer) uploadImage(t *testing.T, token, recipeID, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/"+recipeID+"/image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

// testImagePNG returns a small valid PNG.
func testImagePNG(t *testing.T) []byte {
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
