package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tastebookapp/tastebook-server/internal/id"
	"github.com/tastebookapp/tastebook-server/internal/store"
)

// labelTable describes one of the per-user taxonomy tables (tags,
// ingredients). Both share the same shape and query logic.
type labelTable struct {
	table      string // taxonomy table name
	joinTable  string // recipe association table name
	joinColumn string // taxonomy FK column in the association table
	idPrefix   string // nanoid prefix for new rows
}

var (
	tagTable = labelTable{
		table:      "tags",
		joinTable:  "recipe_tags",
		joinColumn: "tag_id",
		idPrefix:   "tag",
	}

	ingredientTable = labelTable{
		table:      "ingredients",
		joinTable:  "recipe_ingredients",
		joinColumn: "ingredient_id",
		idPrefix:   "ing",
	}
)

// label is the neutral row shape shared by tags and ingredients.
type label struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const labelColumns = `id, user_id, name, created_at, updated_at`

func scanLabel(scanner interface{ Scan(dest ...any) error }) (*label, error) {
	var l label

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&l.ID, &l.UserID, &l.Name, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// createLabel inserts a new taxonomy row.
// Returns store.ErrAlreadyExists when the owner already has that name.
func (s *Store) createLabel(ctx context.Context, lt labelTable, l *label) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, lt.table),
		l.ID,
		l.UserID,
		l.Name,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// getLabel retrieves a taxonomy row scoped to its owner.
// A row owned by someone else is indistinguishable from a missing one.
func (s *Store) getLabel(ctx context.Context, lt labelTable, userID, labelID string) (*label, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT `+labelColumns+` FROM %s WHERE id = ? AND user_id = ?`, lt.table),
		labelID, userID)

	l, err := scanLabel(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// listLabels returns the owner's taxonomy rows ordered by name descending.
// When assignedOnly is set, rows without a recipe association are skipped.
func (s *Store) listLabels(ctx context.Context, lt labelTable, userID string, assignedOnly bool) ([]*label, error) {
	query := fmt.Sprintf(`SELECT `+labelColumns+` FROM %s WHERE user_id = ?`, lt.table)
	if assignedOnly {
		query = fmt.Sprintf(`
			SELECT DISTINCT t.id, t.user_id, t.name, t.created_at, t.updated_at
			FROM %s t
			JOIN %s j ON j.%s = t.id
			WHERE t.user_id = ?`, lt.table, lt.joinTable, lt.joinColumn)
	}
	query += ` ORDER BY name DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []*label
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if labels == nil {
		labels = []*label{}
	}
	return labels, nil
}

// updateLabel renames a taxonomy row scoped to its owner.
// Returns store.ErrNotFound for missing or foreign rows and
// store.ErrAlreadyExists when the new name collides.
func (s *Store) updateLabel(ctx context.Context, lt labelTable, l *label) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`, lt.table),
		l.Name,
		formatTime(l.UpdatedAt),
		l.ID,
		l.UserID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
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

// deleteLabel removes a taxonomy row scoped to its owner. Recipe
// associations go with it via FK cascade.
func (s *Store) deleteLabel(ctx context.Context, lt labelTable, userID, labelID string) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id = ? AND user_id = ?`, lt.table),
		labelID, userID)
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

// reconcileLabels resolves each name to the owner's taxonomy row, creating
// missing rows, then replaces the recipe's association set wholesale. Runs
// inside the caller's transaction so it commits or rolls back with the
// recipe write.
func reconcileLabels(ctx context.Context, tx *sql.Tx, lt labelTable, userID, recipeID string, names []string) error {
	labelIDs := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))

	now := time.Now().UTC()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		labelID, err := getOrCreateLabel(ctx, tx, lt, userID, name, now)
		if err != nil {
			return err
		}
		labelIDs = append(labelIDs, labelID)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE recipe_id = ?`, lt.joinTable), recipeID); err != nil {
		return fmt.Errorf("delete %s: %w", lt.joinTable, err)
	}

	nowStr := formatTime(now)
	for _, labelID := range labelIDs {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (recipe_id, %s, created_at)
			VALUES (?, ?, ?)`, lt.joinTable, lt.joinColumn),
			recipeID, labelID, nowStr)
		if err != nil {
			return fmt.Errorf("insert %s: %w", lt.joinTable, err)
		}
	}

	return nil
}

// getOrCreateLabel finds the owner's taxonomy row by name or creates it.
// A concurrent insert of the same (owner, name) resolves via the UNIQUE
// constraint and a re-fetch.
func getOrCreateLabel(ctx context.Context, tx *sql.Tx, lt labelTable, userID, name string, now time.Time) (string, error) {
	var labelID string
	err := tx.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE user_id = ? AND name = ?`, lt.table),
		userID, name).Scan(&labelID)
	if err == nil {
		return labelID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	labelID, err = id.Generate(lt.idPrefix)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", lt.idPrefix, err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, lt.table),
		labelID, userID, name, formatTime(now), formatTime(now))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			var existingID string
			if scanErr := tx.QueryRowContext(ctx, fmt.Sprintf(
				`SELECT id FROM %s WHERE user_id = ? AND name = ?`, lt.table),
				userID, name).Scan(&existingID); scanErr == nil {
				return existingID, nil
			}
		}
		return "", err
	}

	return labelID, nil
}
