package forms

import (
	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
)

// FieldType is the editing widget a field is presented with
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeSelect    FieldType = "select"
	FieldTypeSignature FieldType = "signature"
)

// Rect is a widget bounding box in PDF user space, origin lower-left
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// defaultRect is used when a field's first widget has no readable /Rect.
var defaultRect = Rect{X: 0, Y: 0, Width: 200, Height: 30}

// FieldDescriptor is one logical form field, aggregated over all of its
// widgets.
type FieldDescriptor struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Value    string    `json:"value"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`

	// Page is the page of the first widget occurrence, not necessarily
	// the smallest entry of Pages.
	Page int  `json:"page"`
	Rect Rect `json:"rect"`

	UsageCount int   `json:"usageCount"`
	Pages      []int `json:"pages"`
}

// ParseResult is the outcome of one extraction
type ParseResult struct {
	Fields    []FieldDescriptor `json:"fields"`
	PageCount int               `json:"pageCount"`
	Title     string            `json:"title,omitempty"`
}

// FillOptions controls a fill operation
type FillOptions struct {
	// Flatten bakes values into page content when at least one field
	// was written.
	Flatten bool
}

// DefaultFillOptions returns the options used by Filler.Fill
func DefaultFillOptions() FillOptions {
	return FillOptions{Flatten: true}
}

// FillResult is the outcome of one fill
type FillResult struct {
	Data      []byte                     `json:"-"`
	Filled    int                        `json:"filled"`
	Flattened bool                       `json:"flattened"`
	Skipped   *pdferrors.ErrorCollection `json:"skipped"`
}
