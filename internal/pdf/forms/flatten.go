package forms

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// annotFlagHidden is the Hidden bit of an annotation's /F entry.
const annotFlagHidden = 1 << 1

// flatten draws every widget's current normal appearance into its page,
// removes the widgets from /Annots and empties the AcroForm field list.
func (d *document) flatten(fields []*terminalField) error {
	draws := make(map[int][]string)
	removed := make(map[int]bool)

	for _, tf := range fields {
		kind := d.classify(tf)
		for _, w := range tf.widgets {
			if w.objNr != 0 {
				removed[w.objNr] = true
			}

			pageNr, ok := d.widgetPage(w)
			if !ok {
				if d.debug {
					log.Printf("[forms] flatten: widget of %q has no page, dropped", tf.name)
				}
				continue
			}
			if d.isHidden(w) {
				continue
			}
			d.ensureAppearance(tf, kind, w)

			op, err := d.widgetDrawing(d.page(pageNr), w)
			if err != nil {
				if d.debug {
					log.Printf("[forms] flatten: widget of %q not drawn: %v", tf.name, err)
				}
				continue
			}
			draws[pageNr] = append(draws[pageNr], op)
		}
	}

	for i, page := range d.pages {
		if page == nil {
			continue
		}
		if ops := draws[i+1]; len(ops) > 0 {
			if err := d.appendPageContent(page, strings.Join(ops, "")); err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
		}
		d.removeAnnots(page, removed)
	}

	if form := d.acroForm(); form != nil {
		form["Fields"] = types.Array{}
		delete(form, "NeedAppearances")
		delete(form, "XFA")
	}

	return nil
}

// ensureAppearance builds a normal appearance from the field's current
// value for a widget that has none, so values the viewer was expected to
// render with /NeedAppearances are kept.
func (d *document) ensureAppearance(tf *terminalField, kind ControlKind, w widget) {
	if _, _, err := d.normalAppearance(w); err == nil {
		return
	}

	var err error
	switch kind {
	case TextControl, DropdownControl, UnknownControl:
		value := d.value(tf, kind)
		if value == "" {
			return
		}
		flags, _ := d.fieldFlags(tf)
		err = d.setTextAppearance(tf, w, value, kind == TextControl && flags&flagMultiline != 0)
	case CheckboxControl:
		o, found := d.inherited(tf.dict, "V")
		if !found {
			return
		}
		on, nameErr := d.name(o)
		if nameErr != nil || on == "" || on == "Off" {
			return
		}
		if !hasState(d.onStates(w), on) {
			err = d.setCheckAppearance(tf, w, on)
		}
		if err == nil {
			w.dict["AS"] = types.Name(on)
		}
	default:
		return
	}

	if err != nil && d.debug {
		log.Printf("[forms] flatten: no appearance built for %q: %v", tf.name, err)
	}
}

func (d *document) isHidden(w widget) bool {
	o, found := w.dict.Find("F")
	if !found {
		return false
	}
	flags, err := d.integer(o)
	return err == nil && flags&annotFlagHidden != 0
}

// normalAppearance picks the widget's /AP /N stream, selecting the /AS
// state for state dictionaries.
func (d *document) normalAppearance(w widget) (types.IndirectRef, types.StreamDict, error) {
	var none types.StreamDict

	ap := d.dict(w.dict["AP"])
	if ap == nil {
		return types.IndirectRef{}, none, fmt.Errorf("no appearance dictionary")
	}
	n, found := ap.Find("N")
	if !found {
		return types.IndirectRef{}, none, fmt.Errorf("no normal appearance")
	}

	if ir, ok := n.(types.IndirectRef); ok {
		o, err := d.ctx.Dereference(ir)
		if err != nil {
			return types.IndirectRef{}, none, err
		}
		if sd, isStream := o.(types.StreamDict); isStream {
			return ir, sd, nil
		}
	}

	states := d.dict(n)
	if states == nil {
		return types.IndirectRef{}, none, fmt.Errorf("malformed normal appearance")
	}
	as, err := d.name(w.dict["AS"])
	if err != nil {
		return types.IndirectRef{}, none, fmt.Errorf("state appearance without /AS")
	}
	ir, ok := states[as].(types.IndirectRef)
	if !ok {
		return types.IndirectRef{}, none, fmt.Errorf("no appearance for state %q", as)
	}
	o, err := d.ctx.Dereference(ir)
	if err != nil {
		return types.IndirectRef{}, none, err
	}
	sd, isStream := o.(types.StreamDict)
	if !isStream {
		return types.IndirectRef{}, none, fmt.Errorf("appearance for state %q is not a stream", as)
	}
	return ir, sd, nil
}

// widgetDrawing registers the widget's appearance on the page and returns
// the operators placing it over the widget rectangle.
func (d *document) widgetDrawing(page types.Dict, w widget) (string, error) {
	if page == nil {
		return "", fmt.Errorf("page not loaded")
	}

	ir, sd, err := d.normalAppearance(w)
	if err != nil {
		return "", err
	}
	rect, err := d.widgetRect(w)
	if err != nil {
		return "", err
	}

	bbox, err := d.numbers(sd.Dict["BBox"], 4)
	if err != nil {
		return "", fmt.Errorf("appearance has no /BBox: %w", err)
	}
	if _, found := sd.Dict.Find("Subtype"); !found {
		sd.Dict["Subtype"] = types.Name("Form")
	}
	if matrix, err := d.numbers(sd.Dict["Matrix"], 6); err == nil {
		bbox = transformBox(bbox, matrix)
	}

	bw, bh := bbox[2]-bbox[0], bbox[3]-bbox[1]
	if bw == 0 || bh == 0 {
		return "", fmt.Errorf("appearance has an empty /BBox")
	}
	sx := (rect[2] - rect[0]) / bw
	sy := (rect[3] - rect[1]) / bh
	tx := rect[0] - bbox[0]*sx
	ty := rect[1] - bbox[1]*sy

	name, err := d.registerXObject(page, ir)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("q %s 0 0 %s %s %s cm /%s Do Q\n",
		formatFixed(sx, 4), formatFixed(sy, 4), formatFixed(tx, 4), formatFixed(ty, 4), name), nil
}

// transformBox maps a rectangle through an affine matrix and returns the
// bounding box of the result.
func transformBox(box, m []float64) []float64 {
	xs := [4]float64{box[0], box[2], box[0], box[2]}
	ys := [4]float64{box[1], box[1], box[3], box[3]}

	out := []float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for i := range xs {
		x := m[0]*xs[i] + m[2]*ys[i] + m[4]
		y := m[1]*xs[i] + m[3]*ys[i] + m[5]
		out[0], out[1] = math.Min(out[0], x), math.Min(out[1], y)
		out[2], out[3] = math.Max(out[2], x), math.Max(out[3], y)
	}
	return out
}

// pageResources returns the page's own /Resources, copying inherited
// resources down when the page has none.
func (d *document) pageResources(page types.Dict) types.Dict {
	if res := d.dict(page["Resources"]); res != nil {
		return res
	}

	var res types.Dict
	parent := d.dict(page["Parent"])
	for depth := 0; parent != nil && depth < maxInheritDepth; depth++ {
		if inherited := d.dict(parent["Resources"]); inherited != nil {
			if clone, ok := inherited.Clone().(types.Dict); ok {
				res = clone
			}
			break
		}
		parent = d.dict(parent["Parent"])
	}
	if res == nil {
		res = types.Dict{}
	}
	page["Resources"] = res
	return res
}

// registerXObject adds ir to the page's XObject resources under a fresh
// name.
func (d *document) registerXObject(page types.Dict, ir types.IndirectRef) (string, error) {
	res := d.pageResources(page)

	xobjects := d.dict(res["XObject"])
	if xobjects == nil {
		xobjects = types.Dict{}
		res["XObject"] = xobjects
	}

	for i := 0; ; i++ {
		name := fmt.Sprintf("FlatW%d", int(ir.ObjectNumber)+i)
		existing, taken := xobjects[name]
		if !taken {
			xobjects[name] = ir
			return name, nil
		}
		if ref, ok := existing.(types.IndirectRef); ok && ref.ObjectNumber == ir.ObjectNumber {
			return name, nil
		}
	}
}

// appendPageContent wraps the existing content in q/Q and appends ops.
func (d *document) appendPageContent(page types.Dict, ops string) error {
	pre, err := d.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	post, err := d.newContentStream([]byte("Q\n" + ops))
	if err != nil {
		return err
	}

	contents := types.Array{*pre}
	if o, found := page.Find("Contents"); found && o != nil {
		deref, err := d.ctx.Dereference(o)
		if err != nil {
			return err
		}
		switch c := deref.(type) {
		case types.Array:
			contents = append(contents, c...)
		case types.StreamDict:
			contents = append(contents, o)
		}
	}
	contents = append(contents, *post)

	page["Contents"] = contents
	return nil
}

func (d *document) newContentStream(content []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// removeAnnots drops removed widgets from a page's /Annots.
func (d *document) removeAnnots(page types.Dict, removed map[int]bool) {
	annots := d.array(page["Annots"])
	if annots == nil {
		return
	}

	kept := make(types.Array, 0, len(annots))
	for _, a := range annots {
		if removed[refNumber(a)] {
			continue
		}
		kept = append(kept, a)
	}

	if len(kept) == len(annots) {
		return
	}
	if len(kept) == 0 {
		delete(page, "Annots")
		return
	}
	page["Annots"] = kept
}
