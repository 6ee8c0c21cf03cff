// Package main provides a tool to seed the database with sample recipe data.
//
// It creates a handful of test users, each with a realistic set of recipes,
// tags, and ingredients, so list filtering and search can be exercised
// against non-trivial data. Existing users (matched by email) are skipped,
// making the tool safe to re-run.
//
// Usage:
//
//	DATA_PATH=~/tastebook go run ./cmd/seed
//	DATA_PATH=~/tastebook go run ./cmd/seed --reindex  # Also rebuild the search index
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tastebookapp/tastebook-server/internal/auth"
	"github.com/tastebookapp/tastebook-server/internal/domain"
	"github.com/tastebookapp/tastebook-server/internal/id"
	"github.com/tastebookapp/tastebook-server/internal/search"
	"github.com/tastebookapp/tastebook-server/internal/store/sqlite"
)

var reindex = flag.Bool("reindex", false, "Rebuild the search index from seeded recipes")

// seedRecipe describes one sample recipe to create.
type seedRecipe struct {
	title       string
	description string
	timeMinutes int
	priceCents  int64
	link        string
	tags        []string
	ingredients []string
}

// seedUser groups sample recipes under one account.
type seedUser struct {
	email   string
	name    string
	recipes []seedRecipe
}

var seedUsers = []seedUser{
	{
		email: "alice@example.com",
		name:  "Alice Rivera",
		recipes: []seedRecipe{
			{
				title:       "Spaghetti Carbonara",
				description: "Roman classic with guanciale and pecorino.",
				timeMinutes: 25,
				priceCents:  850,
				link:        "https://example.com/recipes/carbonara",
				tags:        []string{"Dinner", "Italian"},
				ingredients: []string{"Spaghetti", "Guanciale", "Pecorino", "Eggs"},
			},
			{
				title:       "Shakshuka",
				description: "Eggs poached in spiced tomato sauce.",
				timeMinutes: 30,
				priceCents:  600,
				tags:        []string{"Breakfast", "Vegetarian"},
				ingredients: []string{"Eggs", "Tomatoes", "Bell Pepper", "Cumin"},
			},
			{
				title:       "Miso Ramen",
				description: "Weeknight ramen with a rich miso broth.",
				timeMinutes: 45,
				priceCents:  1200,
				tags:        []string{"Dinner", "Japanese"},
				ingredients: []string{"Ramen Noodles", "Miso Paste", "Scallions", "Eggs"},
			},
		},
	},
	{
		email: "jordan@example.com",
		name:  "Jordan Chen",
		recipes: []seedRecipe{
			{
				title:       "Avocado Toast",
				description: "Sourdough, smashed avocado, chili flakes.",
				timeMinutes: 10,
				priceCents:  450,
				tags:        []string{"Breakfast", "Vegetarian"},
				ingredients: []string{"Sourdough", "Avocado", "Lemon", "Chili Flakes"},
			},
			{
				title:       "Thai Green Curry",
				description: "Fragrant coconut curry with seasonal vegetables.",
				timeMinutes: 40,
				priceCents:  1100,
				link:        "https://example.com/recipes/green-curry",
				tags:        []string{"Dinner", "Thai", "Vegetarian"},
				ingredients: []string{"Coconut Milk", "Green Curry Paste", "Eggplant", "Basil"},
			},
		},
	},
}

// seedPassword is shared by all generated accounts.
const seedPassword = "testpass123"

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/tastebook")
	}

	dbPath := filepath.Join(dataPath, "tastebook.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	passwordHash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	seeded := seedAll(ctx, s, passwordHash)

	if *reindex && len(seeded) > 0 {
		fmt.Println("Rebuilding search index...")

		idx, err := search.NewIndex(search.Options{
			DataPath: filepath.Join(dataPath, "search"),
			Logger:   logger,
		})
		if err != nil {
			log.Fatalf("Failed to open search index: %v", err)
		}
		defer idx.Close()

		docs := make([]*search.RecipeDocument, 0, len(seeded))
		for _, r := range seeded {
			docs = append(docs, search.RecipeToDocument(r))
		}

		if err := idx.IndexRecipes(docs); err != nil {
			log.Fatalf("Failed to index recipes: %v", err)
		}

		count, err := idx.DocumentCount()
		if err == nil {
			fmt.Printf("Search index now holds %d documents\n", count)
		}
	}

	fmt.Printf("\nSeeding complete: %d recipes created (password for all users: %s)\n",
		len(seeded), seedPassword)
}

// seedAll creates the sample users and their recipes, returning the recipes
// created. Users that already exist (matched by email) are skipped along
// with their recipes, so repeated runs create nothing new.
func seedAll(ctx context.Context, s *sqlite.Store, passwordHash string) []*domain.Recipe {
	var seeded []*domain.Recipe

	for _, su := range seedUsers {
		if existing, _ := s.GetUserByEmail(ctx, su.email); existing != nil {
			fmt.Printf("User %s already exists, skipping\n", su.email)
			continue
		}

		now := time.Now().UTC()
		user := &domain.User{
			ID:           id.MustGenerate("user"),
			Email:        su.email,
			Name:         su.name,
			PasswordHash: passwordHash,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := s.CreateUser(ctx, user); err != nil {
			log.Printf("Failed to create user %s: %v", su.email, err)
			continue
		}

		fmt.Printf("Created user: %s (%s)\n", su.name, su.email)

		for _, sr := range su.recipes {
			recipe := &domain.Recipe{
				ID:          id.MustGenerate("rec"),
				UserID:      user.ID,
				Title:       sr.title,
				Description: sr.description,
				TimeMinutes: sr.timeMinutes,
				PriceCents:  sr.priceCents,
				Link:        sr.link,
				CreatedAt:   now,
				UpdatedAt:   now,
			}

			if err := s.CreateRecipe(ctx, recipe, sr.tags, sr.ingredients); err != nil {
				log.Printf("  Failed to create recipe %q: %v", sr.title, err)
				continue
			}

			full, err := s.GetRecipe(ctx, user.ID, recipe.ID)
			if err != nil {
				log.Printf("  Failed to reload recipe %q: %v", sr.title, err)
				continue
			}

			seeded = append(seeded, full)
			fmt.Printf("  Created recipe: %s (%d tags, %d ingredients)\n",
				full.Title, len(full.Tags), len(full.Ingredients))
		}
	}

	return seeded
}
