// Package search provides full-text recipe search backed by Bleve.
package search

import (
	"github.com/tastebookapp/tastebook-server/internal/domain"
)

// RecipeDocument is the shape of a recipe in the Bleve index.
// Tag and ingredient names are denormalized in so a single query covers
// everything a user would type.
type RecipeDocument struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	CreatedAt   int64    `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve indexes Go struct field names as-is (capitalized), but the mapping
// uses lowercase names, so we convert explicitly.
func (d *RecipeDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"user_id":    d.UserID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.Ingredients) > 0 {
		m["ingredients"] = d.Ingredients
	}

	return m
}

// RecipeToDocument converts a domain Recipe (with its tags and ingredients
// attached) to a RecipeDocument.
func RecipeToDocument(r *domain.Recipe) *RecipeDocument {
	doc := &RecipeDocument{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UnixMilli(),
	}

	for _, tag := range r.Tags {
		doc.Tags = append(doc.Tags, tag.Name)
	}
	for _, ing := range r.Ingredients {
		doc.Ingredients = append(doc.Ingredients, ing.Name)
	}

	return doc
}
