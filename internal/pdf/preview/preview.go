// Package preview builds the per-page view a client renders while the user
// edits a form: the page text plus the fields placed on that page.
package preview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
)

// FieldMark is one field drawn on a page
type FieldMark struct {
	Name     string          `json:"name"`
	Type     forms.FieldType `json:"type"`
	Rect     forms.Rect      `json:"rect"`
	Required bool            `json:"required"`
}

// Page is the overlay of one page
type Page struct {
	Page   int         `json:"page"`
	Text   string      `json:"text"`
	Fields []FieldMark `json:"fields"`
	Error  string      `json:"error,omitempty"`
}

// Overlay is the preview of a whole document
type Overlay struct {
	PageCount int    `json:"pageCount"`
	Pages     []Page `json:"pages"`
}

// Build reads page text from data and places every field of result on each
// page it appears on. Pages whose text cannot be read are still listed.
func Build(data []byte, result *forms.ParseResult) (*Overlay, error) {
	if result == nil {
		return nil, fmt.Errorf("no parse result")
	}

	texts, err := pageTexts(data, result.PageCount)
	if err != nil {
		return nil, err
	}

	overlay := &Overlay{PageCount: result.PageCount}
	for i := 1; i <= result.PageCount; i++ {
		p := Page{Page: i, Fields: []FieldMark{}}
		if t, ok := texts[i]; ok {
			p.Text = t.text
			p.Error = t.err
		}
		overlay.Pages = append(overlay.Pages, p)
	}

	for _, f := range result.Fields {
		mark := FieldMark{Name: f.Name, Type: f.Type, Rect: f.Rect, Required: f.Required}
		for _, pageNr := range f.Pages {
			if pageNr < 1 || pageNr > len(overlay.Pages) {
				continue
			}
			overlay.Pages[pageNr-1].Fields = append(overlay.Pages[pageNr-1].Fields, mark)
		}
	}

	return overlay, nil
}

type pageText struct {
	text string
	err  string
}

func pageTexts(data []byte, pageCount int) (texts map[int]pageText, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = fmt.Errorf("failed to read page text: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	texts = make(map[int]pageText)
	total := reader.NumPage()
	if total > pageCount {
		total = pageCount
	}

	for i := 1; i <= total; i++ {
		texts[i] = readPage(reader, i)
	}

	return texts, nil
}

func readPage(reader *pdf.Reader, pageNr int) (pt pageText) {
	defer func() {
		if r := recover(); r != nil {
			pt = pageText{err: fmt.Sprintf("page %d: %v", pageNr, r)}
		}
	}()

	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return pageText{err: fmt.Sprintf("page %d not found", pageNr)}
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return pageText{err: fmt.Sprintf("page %d: %v", pageNr, err)}
	}
	return pageText{text: strings.TrimSpace(text)}
}
