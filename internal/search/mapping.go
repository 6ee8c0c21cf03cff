package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for recipe documents.
//
// Priorities:
//  1. Full-text search on titles with English stemming
//  2. Tag and ingredient names searchable without stemming
//  3. Exact keyword matching on user_id for owner scoping
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Title - primary search target.
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Description - searchable but not stored.
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// Tag and ingredient names - simple analyzer, no stemming, so
	// "Vegan" matches exactly what the user typed.
	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = simple.Name
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	ingredientsFieldMapping := bleve.NewTextFieldMapping()
	ingredientsFieldMapping.Analyzer = simple.Name
	ingredientsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("ingredients", ingredientsFieldMapping)

	// Keyword fields - exact match only.
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	userFieldMapping := bleve.NewTextFieldMapping()
	userFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("user_id", userFieldMapping)

	// Created timestamp for recency sorting.
	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
