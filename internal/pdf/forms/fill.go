package forms

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
)

// Filler writes values into the fields of a document
type Filler struct {
	debugMode bool
}

// NewFiller creates a new field filler
func NewFiller(debugMode bool) *Filler {
	return &Filler{debugMode: debugMode}
}

// Fill writes values and flattens the form when anything was written.
func (f *Filler) Fill(data []byte, values map[string]string) (*FillResult, error) {
	return f.FillWithOptions(data, values, DefaultFillOptions())
}

// FillWithOptions writes values by field name. Blank values are left
// untouched. Per-field failures are collected in FillResult.Skipped and
// never abort the fill; only decoding and serialization are fatal.
func (f *Filler) FillWithOptions(data []byte, values map[string]string, opts FillOptions) (*FillResult, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}
	doc.debug = f.debugMode

	fields := doc.terminalFields()
	index := make(map[string]*terminalField, len(fields))
	for _, tf := range fields {
		if _, dup := index[tf.name]; !dup {
			index[tf.name] = tf
		}
	}

	if f.debugMode {
		names := make([]string, 0, len(index))
		for name := range index {
			names = append(names, name)
		}
		sort.Strings(names)
		log.Printf("[forms] fill: %d values, document fields: %v", len(values), names)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &FillResult{Skipped: pdferrors.NewErrorCollection()}

	for _, name := range names {
		value := values[name]
		if strings.TrimSpace(value) == "" {
			continue
		}

		tf, ok := index[name]
		if !ok {
			if f.debugMode {
				log.Printf("[forms] fill: field %q not in document", name)
			}
			result.Skipped.Add(pdferrors.FieldError(pdferrors.ErrorTypeFieldNotFound, name, ""))
			continue
		}

		if err := doc.writeField(tf, value); err != nil {
			if f.debugMode {
				log.Printf("[forms] fill: field %q skipped: %v", name, err)
			}
			result.Skipped.Add(asFieldError(name, err))
			continue
		}
		result.Filled++
	}

	if result.Filled > 0 && opts.Flatten {
		if err := doc.flatten(fields); err != nil {
			return nil, pdferrors.SerializationFailed(fmt.Errorf("flatten: %w", err))
		}
		result.Flattened = true
	}

	out, err := doc.encode()
	if err != nil {
		return nil, err
	}
	result.Data = out

	if f.debugMode {
		log.Printf("[forms] fill: %d written, %s, flattened=%v", result.Filled, result.Skipped.Summary(), result.Flattened)
	}

	return result, nil
}

// asFieldError keeps typed field errors and wraps anything else as
// FieldWriteSkipped.
func asFieldError(name string, err error) *pdferrors.PDFError {
	if pe, ok := err.(*pdferrors.PDFError); ok {
		if pe.Field == "" {
			pe.Field = name
		}
		return pe
	}
	pe := pdferrors.WrapError(pdferrors.ErrorTypeFieldWriteSkipped, err)
	pe.Field = name
	return pe
}

// writeField dispatches on the field's control kind.
func (d *document) writeField(tf *terminalField, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while writing: %v", r)
		}
	}()

	kind := d.classify(tf)
	switch kind {
	case TextControl:
		return d.setText(tf, value)
	case CheckboxControl:
		return d.setChecked(tf, isTruthy(value))
	case RadioControl:
		return d.selectRadio(tf, value)
	case DropdownControl:
		return d.selectChoice(tf, value)
	case SignatureControl:
		return pdferrors.FieldError(pdferrors.ErrorTypeUnsupportedControl, tf.name, "signature fields cannot be filled")
	case UnknownControl:
		switch d.fieldKind(tf) {
		case "Tx", "Ch":
			return d.setText(tf, value)
		default:
			return pdferrors.FieldError(pdferrors.ErrorTypeUnsupportedControl, tf.name, "")
		}
	default:
		return pdferrors.FieldError(pdferrors.ErrorTypeUnsupportedControl, tf.name, "")
	}
}

// isTruthy decides the checked state of a checkbox value.
func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func (d *document) setText(tf *terminalField, value string) error {
	if o, found := d.inherited(tf.dict, "MaxLen"); found {
		if maxLen, err := d.integer(o); err == nil && maxLen > 0 && utf8.RuneCountInString(value) > maxLen {
			return pdferrors.FieldError(pdferrors.ErrorTypeValueTooLong, tf.name,
				fmt.Sprintf("value has %d characters, field allows %d", utf8.RuneCountInString(value), maxLen))
		}
	}

	tf.dict["V"] = encodeText(value)
	delete(tf.dict, "RV")

	flags, _ := d.fieldFlags(tf)
	d.refreshTextAppearances(tf, value, flags&flagMultiline != 0)
	return nil
}

// refreshTextAppearances regenerates every widget appearance. A widget
// whose appearance cannot be built keeps its old one.
func (d *document) refreshTextAppearances(tf *terminalField, display string, multiline bool) {
	for _, w := range tf.widgets {
		if err := d.setTextAppearance(tf, w, display, multiline); err != nil && d.debug {
			log.Printf("[forms] field %q: appearance not regenerated: %v", tf.name, err)
		}
	}
}

func (d *document) setChecked(tf *terminalField, checked bool) error {
	if !checked {
		tf.dict["V"] = types.Name("Off")
		for _, w := range tf.widgets {
			w.dict["AS"] = types.Name("Off")
		}
		return nil
	}

	on := ""
	for _, w := range tf.widgets {
		if states := d.onStates(w); len(states) > 0 {
			on = states[0]
			break
		}
	}
	if on == "" {
		on = "Yes"
	}

	tf.dict["V"] = types.Name(on)
	for _, w := range tf.widgets {
		states := d.onStates(w)
		if len(states) == 0 {
			if err := d.setCheckAppearance(tf, w, on); err != nil {
				return err
			}
			states = []string{on}
		}
		if hasState(states, on) {
			w.dict["AS"] = types.Name(on)
		} else {
			w.dict["AS"] = types.Name("Off")
		}
	}
	return nil
}

func (d *document) selectRadio(tf *terminalField, value string) error {
	options := d.radioOptions(tf)
	idx := -1
	for i, o := range options {
		if o == value {
			idx = i
			break
		}
	}
	if idx < 0 {
		return pdferrors.FieldError(pdferrors.ErrorTypeInvalidOptionValue, tf.name,
			fmt.Sprintf("%q is not one of %v", value, options))
	}

	on := value
	if _, err := d.fieldOptions(tf); err == nil {
		// /Opt present: widget i carries option i, its on-state may be an index.
		on = strconv.Itoa(idx)
		if idx < len(tf.widgets) {
			if states := d.onStates(tf.widgets[idx]); len(states) > 0 {
				on = states[0]
			}
		}
	}

	tf.dict["V"] = types.Name(on)
	for _, w := range tf.widgets {
		if hasState(d.onStates(w), on) {
			w.dict["AS"] = types.Name(on)
		} else {
			w.dict["AS"] = types.Name("Off")
		}
	}
	return nil
}

func (d *document) selectChoice(tf *terminalField, value string) error {
	opts, _ := d.fieldOptions(tf) // no /Opt: only editable combos accept values

	export, display := "", ""
	for _, o := range opts {
		if o.display == value || o.export == value {
			export, display = o.export, o.display
			break
		}
	}

	if export == "" && display == "" {
		flags, _ := d.fieldFlags(tf)
		if flags&flagEdit == 0 {
			names := make([]string, len(opts))
			for i, o := range opts {
				names[i] = o.display
			}
			return pdferrors.FieldError(pdferrors.ErrorTypeInvalidOptionValue, tf.name,
				fmt.Sprintf("%q is not one of %v", value, names))
		}
		export, display = value, value
	}

	tf.dict["V"] = encodeText(export)
	delete(tf.dict, "I")
	d.refreshTextAppearances(tf, display, false)
	return nil
}

