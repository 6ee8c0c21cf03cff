package domain

import "time"

// Ingredient is a per-user named ingredient, with the same ownership and
// reconciliation semantics as Tag but an independent namespace.
type Ingredient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (i *Ingredient) Touch() {
	i.UpdatedAt = time.Now().UTC()
}
