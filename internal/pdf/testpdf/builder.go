// Package testpdf writes small AcroForm documents for tests. The output is a
// classic cross-reference-table PDF with exact byte offsets, readable by
// pdfcpu, ledongthuc/pdf and digitorus/pdf alike.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Builder collects numbered objects and serializes them with an xref table.
type Builder struct {
	objects []string
}

// Reserve allocates an object number to be filled in later with Set.
func (b *Builder) Reserve() int {
	b.objects = append(b.objects, "null")
	return len(b.objects)
}

// Set replaces the body of object n.
func (b *Builder) Set(n int, body string) {
	b.objects[n-1] = body
}

// Add appends an object and returns its number.
func (b *Builder) Add(body string) int {
	n := b.Reserve()
	b.Set(n, body)
	return n
}

// Stream appends a stream object. dict holds the dictionary entries without
// the enclosing brackets; /Length is computed.
func (b *Builder) Stream(dict, content string) int {
	return b.Add(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(content), content))
}

// Bytes serializes all objects with root as the document catalog.
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(b.objects)+1, root, xref)

	return buf.Bytes()
}

// Widget places one widget annotation of a field.
type Widget struct {
	Page int
	Rect [4]float64

	// NoPageRef omits the widget's /P entry.
	NoPageRef bool
	// StrayPageRef points /P at an object that is not a page.
	StrayPageRef bool
	// NotInAnnots keeps the widget out of its page's /Annots array.
	NotInAnnots bool
	// OnState names the on appearance of a button widget. Defaults to "Yes".
	OnState string
	// NoAppearance omits /AP.
	NoAppearance bool
	Hidden       bool
}

// Field describes a form field. A field with Kids is a non-terminal node;
// otherwise its Widgets are its annotations (one widget is merged into the
// field dictionary).
type Field struct {
	Name string
	// FT is the field type name (Tx, Btn, Ch, Sig); empty inherits.
	FT string
	// Flags is written as /Ff when non-nil.
	Flags *int
	// Value is the raw PDF syntax for /V, e.g. "(Bob)" or "/Yes".
	Value   string
	Options []string
	// OptionPairs are written as [export display] pairs in /Opt.
	OptionPairs [][2]string
	MaxLen      int
	DA          string
	Widgets     []Widget
	Kids        []Field
}

// Flags returns a pointer for Field.Flags.
func Flags(ff int) *int {
	return &ff
}

// Form is a whole document.
type Form struct {
	Pages  int
	Fields []Field
	// NoAcroForm omits the catalog's /AcroForm entry.
	NoAcroForm bool
	// NeedAppearances sets the AcroForm's /NeedAppearances flag.
	NeedAppearances bool
}

type pageState struct {
	num    int
	annots []int
}

type formWriter struct {
	b     *Builder
	pages []*pageState
}

// Bytes renders the form as a PDF.
func (f Form) Bytes() []byte {
	pageCount := f.Pages
	if pageCount < 1 {
		pageCount = 1
	}

	b := &Builder{}
	catalog := b.Reserve()
	pagesNum := b.Reserve()
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	w := &formWriter{b: b}
	for i := 0; i < pageCount; i++ {
		w.pages = append(w.pages, &pageState{num: b.Reserve()})
	}

	fieldRefs := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		fieldRefs = append(fieldRefs, ref(w.writeField(field, 0)))
	}

	kids := make([]string, 0, pageCount)
	for i, p := range w.pages {
		content := b.Stream("", fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Page %d) Tj ET", i+1))
		annots := ""
		if len(p.annots) > 0 {
			refs := make([]string, 0, len(p.annots))
			for _, a := range p.annots {
				refs = append(refs, ref(a))
			}
			annots = fmt.Sprintf(" /Annots [%s]", strings.Join(refs, " "))
		}
		b.Set(p.num, fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %s >> >> /Contents %s%s >>",
			ref(pagesNum), ref(font), ref(content), annots))
		kids = append(kids, ref(p.num))
	}
	b.Set(pagesNum, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount))

	acroForm := ""
	if !f.NoAcroForm {
		need := ""
		if f.NeedAppearances {
			need = " /NeedAppearances true"
		}
		form := b.Add(fmt.Sprintf("<< /Fields [%s] /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv %s >> >>%s >>",
			strings.Join(fieldRefs, " "), ref(font), need))
		acroForm = " /AcroForm " + ref(form)
	}
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s%s >>", ref(pagesNum), acroForm))

	return b.Bytes(catalog)
}

func (w *formWriter) writeField(f Field, parent int) int {
	num := w.b.Reserve()

	entries := []string{fmt.Sprintf("/T (%s)", f.Name)}
	if parent != 0 {
		entries = append(entries, "/Parent "+ref(parent))
	}
	if f.FT != "" {
		entries = append(entries, "/FT /"+f.FT)
	}
	if f.Flags != nil {
		entries = append(entries, fmt.Sprintf("/Ff %d", *f.Flags))
	}
	if f.Value != "" {
		entries = append(entries, "/V "+f.Value)
	}
	if f.MaxLen > 0 {
		entries = append(entries, fmt.Sprintf("/MaxLen %d", f.MaxLen))
	}
	if f.DA != "" {
		entries = append(entries, fmt.Sprintf("/DA (%s)", f.DA))
	}
	if len(f.Options) > 0 || len(f.OptionPairs) > 0 {
		opts := make([]string, 0, len(f.Options)+len(f.OptionPairs))
		for _, o := range f.Options {
			opts = append(opts, "("+o+")")
		}
		for _, p := range f.OptionPairs {
			opts = append(opts, fmt.Sprintf("[(%s) (%s)]", p[0], p[1]))
		}
		entries = append(entries, fmt.Sprintf("/Opt [%s]", strings.Join(opts, " ")))
	}

	switch {
	case len(f.Kids) > 0:
		kids := make([]string, 0, len(f.Kids))
		for _, kid := range f.Kids {
			kids = append(kids, ref(w.writeField(kid, num)))
		}
		entries = append(entries, fmt.Sprintf("/Kids [%s]", strings.Join(kids, " ")))
	case len(f.Widgets) == 1:
		entries = append(entries, w.widgetEntries(f, f.Widgets[0], num)...)
	case len(f.Widgets) > 1:
		kids := make([]string, 0, len(f.Widgets))
		for _, wd := range f.Widgets {
			kid := w.b.Reserve()
			body := append([]string{"/Parent " + ref(num)}, w.widgetEntries(f, wd, kid)...)
			w.b.Set(kid, "<< "+strings.Join(body, " ")+" >>")
			kids = append(kids, ref(kid))
		}
		entries = append(entries, fmt.Sprintf("/Kids [%s]", strings.Join(kids, " ")))
	}

	w.b.Set(num, "<< "+strings.Join(entries, " ")+" >>")
	return num
}

func (w *formWriter) widgetEntries(f Field, wd Widget, num int) []string {
	page := wd.Page
	if page < 1 || page > len(w.pages) {
		page = 1
	}
	p := w.pages[page-1]

	flags := 4
	if wd.Hidden {
		flags |= 2
	}

	entries := []string{
		"/Type /Annot", "/Subtype /Widget",
		fmt.Sprintf("/Rect [%g %g %g %g]", wd.Rect[0], wd.Rect[1], wd.Rect[2], wd.Rect[3]),
		fmt.Sprintf("/F %d", flags),
	}
	switch {
	case wd.StrayPageRef:
		entries = append(entries, "/P "+ref(w.b.Add("<< /Type /Stray >>")))
	case !wd.NoPageRef:
		entries = append(entries, "/P "+ref(p.num))
	}
	if !wd.NotInAnnots {
		p.annots = append(p.annots, num)
	}

	if f.FT == "Btn" && !wd.NoAppearance {
		on := wd.OnState
		if on == "" {
			on = "Yes"
		}
		width := wd.Rect[2] - wd.Rect[0]
		height := wd.Rect[3] - wd.Rect[1]
		bbox := fmt.Sprintf("/Type /XObject /Subtype /Form /BBox [0 0 %g %g]", width, height)
		onStream := w.b.Stream(bbox, fmt.Sprintf("0 g 1 1 %g %g re f", width-2, height-2))
		offStream := w.b.Stream(bbox, "")
		entries = append(entries, fmt.Sprintf("/AP << /N << /%s %s /Off %s >> >>", on, ref(onStream), ref(offStream)))

		state := "Off"
		if f.Value == "/"+on {
			state = on
		}
		entries = append(entries, "/AS /"+state)
	}

	return entries
}

func ref(n int) string {
	return fmt.Sprintf("%d 0 R", n)
}
