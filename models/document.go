package models

import (
	"fmt"
	"strings"
)

// Category identifies one of the vector store collections
type Category string

const (
	CategoryGeneratedBrief Category = "generated-brief"
	CategoryOfficeTemplate Category = "office-template"
	CategoryCaseLaw        Category = "case-law-excerpt"
	CategoryClientDocument Category = "client-document"
)

// AllCategories returns every category in assembly order
func AllCategories() []Category {
	return []Category{
		CategoryOfficeTemplate,
		CategoryGeneratedBrief,
		CategoryClientDocument,
		CategoryCaseLaw,
	}
}

// CollectionName returns the physical collection name for the category
func (c Category) CollectionName() string {
	switch c {
	case CategoryGeneratedBrief:
		return "pecas_juridicas"
	case CategoryOfficeTemplate:
		return "modelos_escritorio"
	case CategoryCaseLaw:
		return "jurisprudencias"
	case CategoryClientDocument:
		return "docs_clientes"
	default:
		return ""
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	return c.CollectionName() != ""
}

// ParseCategory converts a string into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

// DocumentRecord is a text stored in a vector store collection
type DocumentRecord struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Category Category          `json:"category"`
}

// RetrievalResult is a read-only projection of a stored document.
// Results are returned nearest first; Score is informational.
type RetrievalResult struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score,omitempty"`
}
