// Package inspect reads the interactive form of a document with a decoder
// independent from the one used to write it.
package inspect

import (
	"bytes"
	"fmt"

	"github.com/digitorus/pdf"
)

// maxDepth bounds field tree recursion on malformed documents.
const maxDepth = 32

// Report describes the interactive state of a document
type Report struct {
	Pages             int      `json:"pages"`
	HasAcroForm       bool     `json:"hasAcroForm"`
	InteractiveFields int      `json:"interactiveFields"`
	FieldNames        []string `json:"fieldNames"`
}

// Interactive reports whether any form field remains.
func (r *Report) Interactive() bool {
	return r.InteractiveFields > 0
}

// Inspect decodes data and lists its terminal form fields.
func Inspect(data []byte) (report *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("failed to inspect PDF: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	report = &Report{Pages: rdr.NumPage(), FieldNames: []string{}}

	acroForm := rdr.Trailer().Key("Root").Key("AcroForm")
	if acroForm.IsNull() {
		return report, nil
	}
	report.HasAcroForm = true

	fields := acroForm.Key("Fields")
	if fields.IsNull() || fields.Kind() != pdf.Array {
		return report, nil
	}

	for i := 0; i < fields.Len(); i++ {
		collect(fields.Index(i), "", 0, &report.FieldNames)
	}
	report.InteractiveFields = len(report.FieldNames)

	return report, nil
}

func collect(v pdf.Value, prefix string, depth int, names *[]string) {
	if v.IsNull() || depth > maxDepth {
		return
	}

	name := prefix
	if partial := v.Key("T").Text(); partial != "" {
		if name != "" {
			name += "."
		}
		name += partial
	}

	kids := v.Key("Kids")
	hasFieldKids := false
	if kids.Kind() == pdf.Array {
		for i := 0; i < kids.Len(); i++ {
			if !kids.Index(i).Key("T").IsNull() {
				hasFieldKids = true
				collect(kids.Index(i), name, depth+1, names)
			}
		}
	}

	if !hasFieldKids {
		*names = append(*names, name)
	}
}
