package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Recipe represents a recipe owned by a single user.
// Tags and Ingredients are non-owning many-to-many references: deleting a
// recipe removes the association rows, never the tag/ingredient rows.
type Recipe struct {
	ID            string        `json:"id"`
	UserID        string        `json:"-"` // Owner, immutable after creation
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	TimeMinutes   int           `json:"time_minutes"`
	PriceCents    int64         `json:"-"` // Serialized as a decimal string via Price()
	Link          string        `json:"link,omitempty"`
	ImagePath     string        `json:"image,omitempty"`
	ImageBlurHash string        `json:"image_blurhash,omitempty"`
	Tags          []*Tag        `json:"tags,omitempty"`
	Ingredients   []*Ingredient `json:"ingredients,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// Price returns the price as a fixed-point decimal string, e.g. "5.50".
func (r *Recipe) Price() string {
	return FormatPrice(r.PriceCents)
}

// FormatPrice renders integer cents as a two-decimal string.
func FormatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ParsePrice converts a decimal string like "10.99" to integer cents.
// At most two fractional digits are accepted; negative prices are rejected.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("price is empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("price cannot be negative")
	}

	whole, frac, _ := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}

	var cents int64
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("price %q has more than two decimal places", s)
		}
		// Pad "5.5" to "5.50".
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q", s)
		}
	}

	return units*100 + cents, nil
}
