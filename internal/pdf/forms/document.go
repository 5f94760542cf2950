package forms

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
)

// maxInheritDepth bounds /Parent walks on malformed field trees.
const maxInheritDepth = 32

var configOnce sync.Once

// document is one decoded PDF plus the page lookups the form code needs.
// It is never shared between an extraction and a fill.
type document struct {
	ctx *model.Context

	pages     []types.Dict
	pageByObj map[int]int

	// annotPage maps an annotation object number to the first page whose
	// /Annots lists it. Built on first use.
	annotPage map[int]int

	debug bool
}

func newConfiguration() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// decode parses raw bytes into a document. Any failure, including a panic
// inside the parser, is reported as InvalidDocument.
func decode(data []byte) (doc *document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = pdferrors.InvalidDocument(fmt.Errorf("decoder panic: %v", r))
		}
	}()

	if len(data) == 0 {
		return nil, pdferrors.InvalidDocument(fmt.Errorf("empty input"))
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, pdferrors.InvalidDocument(fmt.Errorf("failed to read PDF context: %w", err))
	}

	if _, err := ctx.Catalog(); err != nil {
		return nil, pdferrors.InvalidDocument(fmt.Errorf("failed to get catalog: %w", err))
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, pdferrors.InvalidDocument(fmt.Errorf("failed to ensure page count: %w", err))
	}

	doc = &document{
		ctx:       ctx,
		pageByObj: make(map[int]int),
	}
	doc.indexPages()

	return doc, nil
}

// encode serializes the document.
func (d *document) encode() (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = pdferrors.SerializationFailed(fmt.Errorf("encoder panic: %v", r))
		}
	}()

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, pdferrors.SerializationFailed(err)
	}
	return buf.Bytes(), nil
}

func (d *document) pageCount() int {
	return d.ctx.PageCount
}

func (d *document) indexPages() {
	for i := 1; i <= d.ctx.PageCount; i++ {
		pageDict, indRef, _, err := d.ctx.PageDict(i, false)
		if err != nil {
			pageDict = nil
		}
		d.pages = append(d.pages, pageDict)

		if err != nil || indRef == nil {
			continue
		}
		objNr := int(indRef.ObjectNumber)
		if _, seen := d.pageByObj[objNr]; !seen {
			d.pageByObj[objNr] = i
		}
	}
}

// page returns the dictionary of a 1-based page number, or nil.
func (d *document) page(pageNr int) types.Dict {
	if pageNr < 1 || pageNr > len(d.pages) {
		return nil
	}
	return d.pages[pageNr-1]
}

// pageOfRef matches a page reference against the page tree by identity.
func (d *document) pageOfRef(o types.Object) (int, bool) {
	ir, ok := o.(types.IndirectRef)
	if !ok {
		return 0, false
	}
	pageNr, found := d.pageByObj[int(ir.ObjectNumber)]
	return pageNr, found
}

// pageOfAnnotation scans every page's /Annots for the given object.
func (d *document) pageOfAnnotation(objNr int) (int, bool) {
	if objNr == 0 {
		return 0, false
	}

	if d.annotPage == nil {
		d.annotPage = make(map[int]int)
		for i, pageDict := range d.pages {
			if pageDict == nil {
				continue
			}
			for _, entry := range d.array(pageDict["Annots"]) {
				n := refNumber(entry)
				if n == 0 {
					continue
				}
				if _, seen := d.annotPage[n]; !seen {
					d.annotPage[n] = i + 1
				}
			}
		}
	}

	pageNr, found := d.annotPage[objNr]
	return pageNr, found
}

// dict dereferences o as a dictionary, or returns nil.
func (d *document) dict(o types.Object) types.Dict {
	if o == nil {
		return nil
	}
	dict, err := d.ctx.DereferenceDict(o)
	if err != nil {
		return nil
	}
	return dict
}

// array dereferences o as an array, or returns nil.
func (d *document) array(o types.Object) types.Array {
	if o == nil {
		return nil
	}
	arr, err := d.ctx.DereferenceArray(o)
	if err != nil {
		return nil
	}
	return arr
}

// text dereferences a string or hex string, decoding UTF-16 and
// PDFDocEncoding.
func (d *document) text(o types.Object) (string, error) {
	if o == nil {
		return "", fmt.Errorf("missing string")
	}
	return d.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil)
}

func (d *document) name(o types.Object) (string, error) {
	if o == nil {
		return "", fmt.Errorf("missing name")
	}
	n, err := d.ctx.DereferenceName(o, model.V10, nil)
	if err != nil {
		return "", err
	}
	return string(n), nil
}

func (d *document) integer(o types.Object) (int, error) {
	if o == nil {
		return 0, fmt.Errorf("missing integer")
	}
	i, err := d.ctx.DereferenceInteger(o)
	if err != nil {
		return 0, err
	}
	if i == nil {
		return 0, fmt.Errorf("missing integer")
	}
	return int(*i), nil
}

func (d *document) number(o types.Object) (float64, error) {
	if o == nil {
		return 0, fmt.Errorf("missing number")
	}
	return d.ctx.DereferenceNumber(o)
}

// numbers reads an array of exactly n numbers.
func (d *document) numbers(o types.Object, n int) ([]float64, error) {
	arr := d.array(o)
	if len(arr) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(arr))
	}
	out := make([]float64, n)
	for i, item := range arr {
		f, err := d.number(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// inherited looks key up in the field dictionary and then its /Parent
// chain.
func (d *document) inherited(field types.Dict, key string) (types.Object, bool) {
	for depth := 0; field != nil && depth < maxInheritDepth; depth++ {
		if o, found := field.Find(key); found && o != nil {
			return o, true
		}
		parent, found := field.Find("Parent")
		if !found {
			break
		}
		field = d.dict(parent)
	}
	return nil, false
}

// refNumber returns the object number of an indirect reference, or 0.
func refNumber(o types.Object) int {
	if ir, ok := o.(types.IndirectRef); ok {
		return int(ir.ObjectNumber)
	}
	return 0
}
