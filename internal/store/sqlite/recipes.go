package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, title, description, time_minutes, price_cents,
	link, image_path, image_blurhash, created_at, updated_at`

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Recipe. Tags and ingredients are attached separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Description,
		&r.TimeMinutes,
		&r.PriceCents,
		&r.Link,
		&r.ImagePath,
		&r.ImageBlurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// RecipeFilter narrows ListRecipes results. All fields are optional;
// ID lists use any-of semantics.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
	RecipeIDs     []string // restrict to this set, e.g. search hits
}

// CreateRecipe inserts a recipe and reconciles its tag and ingredient
// associations in one transaction.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe, tagNames, ingredientNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, user_id, title, description, time_minutes, price_cents,
			link, image_path, image_blurhash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.Title,
		r.Description,
		r.TimeMinutes,
		r.PriceCents,
		r.Link,
		r.ImagePath,
		r.ImageBlurHash,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := reconcileLabels(ctx, tx, tagTable, r.UserID, r.ID, tagNames); err != nil {
		return err
	}
	if err := reconcileLabels(ctx, tx, ingredientTable, r.UserID, r.ID, ingredientNames); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecipe retrieves a recipe with its tags and ingredients attached,
// scoped to its owner. Foreign recipes are indistinguishable from missing
// ones.
func (s *Store) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`,
		recipeID, userID)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachLabels(ctx, []*domain.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the owner's recipes, newest first, with tags and
// ingredients attached.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		query += fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = recipes.id AND rt.tag_id IN (%s))`,
			placeholders(len(filter.TagIDs)))
		for _, tagID := range filter.TagIDs {
			args = append(args, tagID)
		}
	}
	if len(filter.IngredientIDs) > 0 {
		query += fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = recipes.id AND ri.ingredient_id IN (%s))`,
			placeholders(len(filter.IngredientIDs)))
		for _, ingID := range filter.IngredientIDs {
			args = append(args, ingID)
		}
	}
	if filter.RecipeIDs != nil {
		if len(filter.RecipeIDs) == 0 {
			return []*domain.Recipe{}, nil
		}
		query += fmt.Sprintf(` AND id IN (%s)`, placeholders(len(filter.RecipeIDs)))
		for _, recipeID := range filter.RecipeIDs {
			args = append(args, recipeID)
		}
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if recipes == nil {
		return []*domain.Recipe{}, nil
	}
	if err := s.attachLabels(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListAllRecipes returns every recipe across all users, with tags and
// ingredients attached. Used for search index rebuilds.
func (s *Store) ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if recipes == nil {
		return []*domain.Recipe{}, nil
	}
	if err := s.attachLabels(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe rewrites a recipe's own fields and, for each non-nil name
// list, reconciles the corresponding associations, all in one transaction.
// A nil list leaves those associations untouched. The owner column is never
// written.
// Returns store.ErrNotFound for missing or foreign recipes.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe, tagNames, ingredientNames *[]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes SET
			title = ?,
			description = ?,
			time_minutes = ?,
			price_cents = ?,
			link = ?,
			image_path = ?,
			image_blurhash = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Title,
		r.Description,
		r.TimeMinutes,
		r.PriceCents,
		r.Link,
		r.ImagePath,
		r.ImageBlurHash,
		formatTime(r.UpdatedAt),
		r.ID,
		r.UserID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if tagNames != nil {
		if err := reconcileLabels(ctx, tx, tagTable, r.UserID, r.ID, *tagNames); err != nil {
			return err
		}
	}
	if ingredientNames != nil {
		if err := reconcileLabels(ctx, tx, ingredientTable, r.UserID, r.ID, *ingredientNames); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteRecipe removes a recipe scoped to its owner. Association rows go
// with it via FK cascade; taxonomy rows survive.
func (s *Store) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetRecipeImage updates a recipe's image columns, scoped to its owner.
func (s *Store) SetRecipeImage(ctx context.Context, userID, recipeID, imagePath, blurHash string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET image_path = ?, image_blurhash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		imagePath, blurHash, formatTime(updatedAt), recipeID, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// attachLabels loads tags and ingredients for a batch of recipes, ordered
// by name descending within each recipe.
func (s *Store) attachLabels(ctx context.Context, recipes []*domain.Recipe) error {
	byID := make(map[string]*domain.Recipe, len(recipes))
	recipeIDs := make([]string, 0, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
		r.Tags = []*domain.Tag{}
		r.Ingredients = []*domain.Ingredient{}
		recipeIDs = append(recipeIDs, r.ID)
	}

	err := s.eachRecipeLabel(ctx, tagTable, recipeIDs, func(recipeID string, l *label) {
		if r, ok := byID[recipeID]; ok {
			r.Tags = append(r.Tags, labelToTag(l))
		}
	})
	if err != nil {
		return err
	}

	return s.eachRecipeLabel(ctx, ingredientTable, recipeIDs, func(recipeID string, l *label) {
		if r, ok := byID[recipeID]; ok {
			r.Ingredients = append(r.Ingredients, labelToIngredient(l))
		}
	})
}

// eachRecipeLabel streams the taxonomy rows associated with the given
// recipes, name descending, calling fn per (recipe, row) pair.
func (s *Store) eachRecipeLabel(ctx context.Context, lt labelTable, recipeIDs []string, fn func(recipeID string, l *label)) error {
	if len(recipeIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		SELECT j.recipe_id, t.id, t.user_id, t.name, t.created_at, t.updated_at
		FROM %s j
		JOIN %s t ON t.id = j.%s
		WHERE j.recipe_id IN (%s)
		ORDER BY t.name DESC`,
		lt.joinTable, lt.table, lt.joinColumn, placeholders(len(recipeIDs)))

	args := make([]any, len(recipeIDs))
	for i, recipeID := range recipeIDs {
		args[i] = recipeID
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID string
		var l label
		var createdAt, updatedAt string
		if err := rows.Scan(&recipeID, &l.ID, &l.UserID, &l.Name, &createdAt, &updatedAt); err != nil {
			return err
		}
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return err
		}
		fn(recipeID, &l)
	}
	return rows.Err()
}

// placeholders returns a comma-joined list of n SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
