package forms

import (
	"log"
	"sort"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
)

// Extractor discovers the form fields of a document
type Extractor struct {
	debugMode bool
}

// NewExtractor creates a new field extractor
func NewExtractor(debugMode bool) *Extractor {
	return &Extractor{debugMode: debugMode}
}

// Extract decodes data and returns one descriptor per distinct field name.
// filename is used only to derive the title.
func (e *Extractor) Extract(data []byte, filename string) (*ParseResult, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}

	raw := e.rawFields(doc)
	fields := Deduplicate(raw)

	if e.debugMode {
		log.Printf("[forms] %d raw records, %d distinct fields, %d pages", len(raw), len(fields), doc.pageCount())
	}

	if len(fields) == 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeNoFieldsDetected, "")
	}

	return &ParseResult{
		Fields:    fields,
		PageCount: doc.pageCount(),
		Title:     Title(filename),
	}, nil
}

// rawFields emits one record per widget with a resolved page, or a single
// page 1 record when none of a field's widgets resolves.
func (e *Extractor) rawFields(doc *document) []FieldDescriptor {
	var raw []FieldDescriptor

	for _, tf := range doc.terminalFields() {
		kind := doc.classify(tf)

		base := FieldDescriptor{
			Name:     tf.name,
			Type:     kind.FieldType(),
			Value:    doc.value(tf, kind),
			Required: doc.isRequired(tf),
			Options:  doc.options(tf, kind),
			Rect:     doc.fieldRect(tf),
		}

		var pages []int
		for _, w := range tf.widgets {
			if pageNr, ok := doc.widgetPage(w); ok {
				pages = append(pages, pageNr)
			}
		}
		if len(pages) == 0 {
			if e.debugMode {
				log.Printf("[forms] field %q: no widget page resolved, defaulting to page 1", tf.name)
			}
			pages = []int{1}
		}

		if e.debugMode {
			log.Printf("[forms] field %q: kind=%s pages=%v", tf.name, kind, pages)
		}

		for _, p := range pages {
			rec := base
			rec.Page = p
			raw = append(raw, rec)
		}
	}

	return raw
}

// Deduplicate collapses raw records sharing a name into the first one seen,
// setting UsageCount to the group size and Pages to its sorted distinct
// pages. The representative keeps its own Page.
func Deduplicate(raw []FieldDescriptor) []FieldDescriptor {
	index := make(map[string]int)
	pageSets := make(map[string]map[int]struct{})
	var out []FieldDescriptor

	for _, rec := range raw {
		i, seen := index[rec.Name]
		if !seen {
			i = len(out)
			index[rec.Name] = i
			pageSets[rec.Name] = make(map[int]struct{})
			rec.UsageCount = 0
			rec.Pages = nil
			out = append(out, rec)
		}
		out[i].UsageCount++
		pageSets[rec.Name][rec.Page] = struct{}{}
	}

	for i := range out {
		set := pageSets[out[i].Name]
		pages := make([]int, 0, len(set))
		for p := range set {
			pages = append(pages, p)
		}
		sort.Ints(pages)
		out[i].Pages = pages
	}

	return out
}

// Title strips an exact trailing ".pdf" from a filename.
func Title(filename string) string {
	return strings.TrimSuffix(filename, ".pdf")
}
