package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ControlKind is the concrete control behind a terminal field. It is
// decided once per field and drives both reading and writing.
type ControlKind int

const (
	UnknownControl ControlKind = iota
	TextControl
	CheckboxControl
	RadioControl
	DropdownControl
	SignatureControl
)

// Field flag bits (/Ff), PDF 32000-1 tables 221, 226, 228, 230.
const (
	flagRequired   = 1 << 1
	flagMultiline  = 1 << 12
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
	flagCombo      = 1 << 17
	flagEdit       = 1 << 18
)

func (k ControlKind) String() string {
	switch k {
	case TextControl:
		return "text"
	case CheckboxControl:
		return "checkbox"
	case RadioControl:
		return "radio"
	case DropdownControl:
		return "dropdown"
	case SignatureControl:
		return "signature"
	default:
		return "unknown"
	}
}

// FieldType maps a control kind to the type reported to callers. Unknown
// controls are presented as text.
func (k ControlKind) FieldType() FieldType {
	switch k {
	case CheckboxControl:
		return FieldTypeCheckbox
	case RadioControl:
		return FieldTypeRadio
	case DropdownControl:
		return FieldTypeSelect
	case SignatureControl:
		return FieldTypeSignature
	case TextControl, UnknownControl:
		return FieldTypeText
	default:
		return FieldTypeText
	}
}

// fieldFlags reads the inheritable /Ff entry.
func (d *document) fieldFlags(tf *terminalField) (int, error) {
	o, found := d.inherited(tf.dict, "Ff")
	if !found {
		return 0, fmt.Errorf("field %q has no /Ff", tf.name)
	}
	return d.integer(o)
}

// fieldKind reads the inheritable /FT entry.
func (d *document) fieldKind(tf *terminalField) string {
	o, found := d.inherited(tf.dict, "FT")
	if !found {
		return ""
	}
	ft, err := d.name(o)
	if err != nil {
		return ""
	}
	return ft
}

func (d *document) classify(tf *terminalField) ControlKind {
	ft := d.fieldKind(tf)
	flags, _ := d.fieldFlags(tf) // missing /Ff reads as no bits set

	switch {
	case ft == "Tx":
		return TextControl
	case ft == "Sig" || strings.Contains(strings.ToLower(ft), "signature"):
		return SignatureControl
	case ft == "Btn":
		switch {
		case flags&flagPushbutton != 0:
			return UnknownControl
		case flags&flagRadio != 0:
			return RadioControl
		default:
			return CheckboxControl
		}
	case ft == "Ch":
		if flags&flagCombo != 0 {
			return DropdownControl
		}
		return UnknownControl
	default:
		return UnknownControl
	}
}

var requiredNamePattern = regexp.MustCompile(`(?i)(\*|required|mandatory)`)

// IsRequiredName reports whether a field name marks the field as required
// when the document carries no flags for it.
func IsRequiredName(name string) bool {
	return requiredNamePattern.MatchString(name)
}

// isRequired uses the required flag bit when /Ff is readable and the name
// heuristic otherwise.
func (d *document) isRequired(tf *terminalField) bool {
	flags, err := d.fieldFlags(tf)
	if err != nil {
		return IsRequiredName(tf.name)
	}
	return flags&flagRequired != 0
}

// choiceOption is one /Opt entry of a choice or radio field.
type choiceOption struct {
	export  string
	display string
}

// fieldOptions reads the inheritable /Opt array. Entries are either a
// string or an [export display] pair.
func (d *document) fieldOptions(tf *terminalField) ([]choiceOption, error) {
	o, found := d.inherited(tf.dict, "Opt")
	if !found {
		return nil, fmt.Errorf("field %q has no /Opt", tf.name)
	}

	arr := d.array(o)
	if arr == nil {
		return nil, fmt.Errorf("field %q has malformed /Opt", tf.name)
	}

	opts := make([]choiceOption, 0, len(arr))
	for _, entry := range arr {
		if pair := d.array(entry); pair != nil {
			if len(pair) != 2 {
				continue
			}
			export, err1 := d.text(pair[0])
			display, err2 := d.text(pair[1])
			if err1 != nil || err2 != nil {
				continue
			}
			opts = append(opts, choiceOption{export: export, display: display})
			continue
		}
		s, err := d.text(entry)
		if err != nil {
			continue
		}
		opts = append(opts, choiceOption{export: s, display: s})
	}
	return opts, nil
}

// radioOptions lists the selectable values of a radio group: /Opt when
// present, otherwise the widgets' on-states in widget order.
func (d *document) radioOptions(tf *terminalField) []string {
	if opts, err := d.fieldOptions(tf); err == nil && len(opts) > 0 {
		values := make([]string, len(opts))
		for i, o := range opts {
			values[i] = o.export
		}
		return values
	}

	var values []string
	seen := make(map[string]bool)
	for _, w := range tf.widgets {
		for _, state := range d.onStates(w) {
			if !seen[state] {
				seen[state] = true
				values = append(values, state)
			}
		}
	}
	return values
}

// options reads the option list for radio and dropdown controls.
// Fallback: nil, leaving options absent.
func (d *document) options(tf *terminalField, kind ControlKind) []string {
	switch kind {
	case RadioControl:
		return d.radioOptions(tf)
	case DropdownControl:
		opts, err := d.fieldOptions(tf)
		if err != nil || len(opts) == 0 {
			return nil
		}
		values := make([]string, len(opts))
		for i, o := range opts {
			values[i] = o.display
		}
		return values
	case TextControl, CheckboxControl, SignatureControl, UnknownControl:
		return nil
	default:
		return nil
	}
}

// value reads the current value of a field as a string. Every failure
// falls back to "" (checkbox: "false").
func (d *document) value(tf *terminalField, kind ControlKind) string {
	switch kind {
	case TextControl:
		return d.textValue(tf)
	case CheckboxControl:
		if d.isChecked(tf) {
			return "true"
		}
		return "false"
	case RadioControl:
		return d.radioValue(tf)
	case DropdownControl:
		return d.choiceValue(tf)
	case SignatureControl:
		return ""
	case UnknownControl:
		return d.textValue(tf)
	default:
		return ""
	}
}

func (d *document) textValue(tf *terminalField) string {
	o, found := d.inherited(tf.dict, "V")
	if !found {
		return ""
	}
	s, err := d.text(o)
	if err != nil {
		return ""
	}
	return s
}

func (d *document) isChecked(tf *terminalField) bool {
	o, found := d.inherited(tf.dict, "V")
	if !found {
		return false
	}
	v, err := d.name(o)
	if err != nil || v == "" || v == "Off" {
		return false
	}

	sawStates := false
	for _, w := range tf.widgets {
		states := d.onStates(w)
		if len(states) > 0 {
			sawStates = true
		}
		if hasState(states, v) {
			return true
		}
	}
	return !sawStates
}

func (d *document) radioValue(tf *terminalField) string {
	o, found := d.inherited(tf.dict, "V")
	if !found {
		return ""
	}
	v, err := d.name(o)
	if err != nil || v == "Off" {
		return ""
	}

	// With /Opt, on-states may be widget indices.
	if opts, err := d.fieldOptions(tf); err == nil {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 && i < len(opts) {
			return opts[i].export
		}
	}
	return v
}

func (d *document) choiceValue(tf *terminalField) string {
	o, found := d.inherited(tf.dict, "V")
	if !found {
		return ""
	}

	if deref, err := d.ctx.Dereference(o); err == nil {
		if a, isArray := deref.(types.Array); isArray {
			if len(a) == 0 {
				return ""
			}
			o = a[0]
		}
	}

	if s, err := d.text(o); err == nil {
		return d.choiceDisplay(tf, s)
	}
	if n, err := d.name(o); err == nil {
		return d.choiceDisplay(tf, n)
	}
	return ""
}

// choiceDisplay maps an export value to its display text.
func (d *document) choiceDisplay(tf *terminalField, export string) string {
	opts, err := d.fieldOptions(tf)
	if err != nil {
		return export
	}
	for _, o := range opts {
		if o.export == export {
			return o.display
		}
	}
	return export
}
