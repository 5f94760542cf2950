package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	categoryPrefix = "categories/"

	// DefaultCategoryID holds every field not placed elsewhere
	DefaultCategoryID   = "uncategorized"
	DefaultCategoryName = "Uncategorized"
)

// Category groups fields of one document for display
type Category struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Fields    []string `json:"fields"`
	IsDefault bool     `json:"isDefault"`
}

// Categories manages per-document category layouts
type Categories struct {
	kv KV
}

// NewCategories creates a category service over kv
func NewCategories(kv KV) *Categories {
	return &Categories{kv: kv}
}

// Get returns the categories of a document. Fields in fieldNames that no
// category holds are appended to the default category, which is created
// when missing.
func (c *Categories) Get(document string, fieldNames []string) ([]Category, error) {
	if strings.TrimSpace(document) == "" {
		return nil, fmt.Errorf("document name cannot be empty")
	}

	var categories []Category
	data, ok, err := c.kv.Get(categoryPrefix + document)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal(data, &categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories of %s: %w", document, err)
		}
	}

	assigned := make(map[string]bool)
	defaultIdx := -1
	for i, cat := range categories {
		if cat.IsDefault && defaultIdx < 0 {
			defaultIdx = i
		}
		for _, f := range cat.Fields {
			assigned[f] = true
		}
	}

	var unassigned []string
	for _, f := range fieldNames {
		if !assigned[f] {
			assigned[f] = true
			unassigned = append(unassigned, f)
		}
	}

	if defaultIdx < 0 {
		categories = append([]Category{{
			ID:        DefaultCategoryID,
			Name:      DefaultCategoryName,
			Fields:    []string{},
			IsDefault: true,
		}}, categories...)
		defaultIdx = 0
	}
	categories[defaultIdx].Fields = append(categories[defaultIdx].Fields, unassigned...)

	return categories, nil
}

// Set validates and stores the categories of a document.
func (c *Categories) Set(document string, categories []Category) error {
	if strings.TrimSpace(document) == "" {
		return fmt.Errorf("document name cannot be empty")
	}
	if err := ValidateCategories(categories); err != nil {
		return err
	}

	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	return c.kv.Set(categoryPrefix+document, data)
}

// ValidateCategories checks IDs are present and unique, at most one
// category is the default, and every field belongs to at most one category.
func ValidateCategories(categories []Category) error {
	ids := make(map[string]bool)
	owner := make(map[string]string)
	defaults := 0

	for _, cat := range categories {
		if strings.TrimSpace(cat.ID) == "" {
			return fmt.Errorf("category %q has no id", cat.Name)
		}
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category %q has no name", cat.ID)
		}
		if ids[cat.ID] {
			return fmt.Errorf("duplicate category id %q", cat.ID)
		}
		ids[cat.ID] = true

		if cat.IsDefault {
			defaults++
		}

		for _, f := range cat.Fields {
			if prev, taken := owner[f]; taken {
				return fmt.Errorf("field %q is in both %q and %q", f, prev, cat.ID)
			}
			owner[f] = cat.ID
		}
	}

	if defaults > 1 {
		return fmt.Errorf("%d default categories, at most one allowed", defaults)
	}
	return nil
}
