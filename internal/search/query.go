package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const maxHits = 500

// Search returns the IDs of the user's recipes matching the query,
// relevance first. Results never include another user's recipes.
func (s *Index) Search(ctx context.Context, userID, queryText string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(userID, queryText)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, maxHits, 0, false)
	searchRequest.SortBy([]string{"-_score", "-created_at"})

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// buildSearchQuery combines the owner scope with a disjunction over the
// text fields. Fuzzy and prefix variants of the title match give typo
// tolerance and autocomplete behavior.
func buildSearchQuery(userID, queryText string) query.Query {
	ownerQuery := bleve.NewTermQuery(userID)
	ownerQuery.SetField("user_id")

	if queryText == "" {
		return ownerQuery
	}

	textQueries := []query.Query{}

	titleMatch := bleve.NewMatchQuery(queryText)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	textQueries = append(textQueries, titleMatch)

	descMatch := bleve.NewMatchQuery(queryText)
	descMatch.SetField("description")
	textQueries = append(textQueries, descMatch)

	tagsMatch := bleve.NewMatchQuery(queryText)
	tagsMatch.SetField("tags")
	tagsMatch.SetBoost(1.5)
	textQueries = append(textQueries, tagsMatch)

	ingredientsMatch := bleve.NewMatchQuery(queryText)
	ingredientsMatch.SetField("ingredients")
	ingredientsMatch.SetBoost(1.5)
	textQueries = append(textQueries, ingredientsMatch)

	fuzzyQuery := bleve.NewFuzzyQuery(queryText)
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("title")
	fuzzyQuery.SetBoost(0.8)
	textQueries = append(textQueries, fuzzyQuery)

	if len(queryText) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(queryText))
		prefixQuery.SetField("title")
		prefixQuery.SetBoost(0.5)
		textQueries = append(textQueries, prefixQuery)
	}

	return bleve.NewConjunctionQuery(ownerQuery, bleve.NewDisjunctionQuery(textQueries...))
}
