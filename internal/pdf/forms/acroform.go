package forms

import (
	"fmt"
	"math"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// widget is one annotation of a terminal field. objNr is 0 for widgets
// stored inline in a /Kids array.
type widget struct {
	dict  types.Dict
	objNr int
}

// terminalField is a field dictionary without field-typed kids, together
// with its widget annotations.
type terminalField struct {
	name    string
	dict    types.Dict
	objNr   int
	widgets []widget
}

// acroForm returns the catalog's interactive form dictionary, or nil.
func (d *document) acroForm() types.Dict {
	catalog, err := d.ctx.Catalog()
	if err != nil {
		return nil
	}
	return d.dict(catalog["AcroForm"])
}

// terminalFields walks the AcroForm field tree in stored order and returns
// every terminal field with its fully qualified name.
func (d *document) terminalFields() []*terminalField {
	form := d.acroForm()
	if form == nil {
		return nil
	}

	var fields []*terminalField
	visited := make(map[int]bool)
	for _, o := range d.array(form["Fields"]) {
		d.collectFields(o, "", visited, &fields, 0)
	}

	for i, tf := range fields {
		if tf.name == "" {
			tf.name = fmt.Sprintf("field_%d", i+1)
		}
	}

	return fields
}

func (d *document) collectFields(o types.Object, parentName string, visited map[int]bool, out *[]*terminalField, depth int) {
	if depth > maxInheritDepth {
		return
	}

	objNr := refNumber(o)
	if objNr != 0 {
		if visited[objNr] {
			return
		}
		visited[objNr] = true
	}

	fieldDict := d.dict(o)
	if fieldDict == nil {
		return
	}

	name := parentName
	if t, found := fieldDict.Find("T"); found {
		if partial, err := d.text(t); err == nil && partial != "" {
			if name != "" {
				name += "."
			}
			name += partial
		}
	}

	var fieldKids, widgetKids []types.Object
	for _, kid := range d.array(fieldDict["Kids"]) {
		kidDict := d.dict(kid)
		if kidDict == nil {
			continue
		}
		if _, hasName := kidDict.Find("T"); hasName {
			fieldKids = append(fieldKids, kid)
		} else {
			widgetKids = append(widgetKids, kid)
		}
	}

	if len(fieldKids) > 0 {
		for _, kid := range fieldKids {
			d.collectFields(kid, name, visited, out, depth+1)
		}
		return
	}

	tf := &terminalField{name: name, dict: fieldDict, objNr: objNr}
	if _, hasKids := fieldDict.Find("Kids"); hasKids {
		for _, kid := range widgetKids {
			tf.widgets = append(tf.widgets, widget{dict: d.dict(kid), objNr: refNumber(kid)})
		}
	} else {
		// Field and widget share one dictionary.
		tf.widgets = []widget{{dict: fieldDict, objNr: objNr}}
	}

	*out = append(*out, tf)
}

// widgetPage resolves the page a widget sits on from its /P entry. Only a
// widget without /P falls back to a scan of every page's /Annots; a /P
// that matches no page leaves the widget unresolved.
func (d *document) widgetPage(w widget) (int, bool) {
	if p, found := w.dict.Find("P"); found {
		return d.pageOfRef(p)
	}
	return d.pageOfAnnotation(w.objNr)
}

// widgetRect reads and normalizes a widget's /Rect as (llx, lly, urx, ury).
func (d *document) widgetRect(w widget) ([4]float64, error) {
	var r [4]float64
	nums, err := d.numbers(w.dict["Rect"], 4)
	if err != nil {
		return r, err
	}
	r[0], r[2] = math.Min(nums[0], nums[2]), math.Max(nums[0], nums[2])
	r[1], r[3] = math.Min(nums[1], nums[3]), math.Max(nums[1], nums[3])
	return r, nil
}

// fieldRect is the display rectangle of a field: its first widget only.
// Fallback: defaultRect.
func (d *document) fieldRect(tf *terminalField) Rect {
	if len(tf.widgets) == 0 {
		return defaultRect
	}
	r, err := d.widgetRect(tf.widgets[0])
	if err != nil {
		return defaultRect
	}
	return Rect{X: r[0], Y: r[1], Width: r[2] - r[0], Height: r[3] - r[1]}
}

// onStates lists the non-Off names of a widget's normal appearance
// dictionary.
func (d *document) onStates(w widget) []string {
	ap := d.dict(w.dict["AP"])
	if ap == nil {
		return nil
	}
	normal := d.dict(ap["N"])
	if normal == nil {
		return nil
	}

	states := make([]string, 0, len(normal))
	for k := range normal {
		if k != "Off" {
			states = append(states, k)
		}
	}
	sort.Strings(states)
	return states
}

func hasState(states []string, state string) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}
