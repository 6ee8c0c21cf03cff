package domain

import "time"

// Tag is a per-user label for recipes. Identity for reconciliation is the
// (UserID, Name) pair: the same name under two owners is two distinct tags.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now().UTC()
}
