package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	defaultFontSize = 12.0
	minFontSize     = 4.0
	textPadding     = 2.0

	// helveticaAvgWidth approximates Helvetica glyph width in em.
	helveticaAvgWidth = 0.52
)

func helveticaResources() types.Dict {
	return types.Dict{
		"Font": types.Dict{
			"Helv": types.Dict{
				"Type":     types.Name("Font"),
				"Subtype":  types.Name("Type1"),
				"BaseFont": types.Name("Helvetica"),
				"Encoding": types.Name("WinAnsiEncoding"),
			},
		},
	}
}

func zapfResources() types.Dict {
	return types.Dict{
		"Font": types.Dict{
			"ZaDb": types.Dict{
				"Type":     types.Name("Font"),
				"Subtype":  types.Name("Type1"),
				"BaseFont": types.Name("ZapfDingbats"),
			},
		},
	}
}

// formatNumber writes a content stream operand with at most two decimals.
func formatNumber(f float64) string {
	return formatFixed(f, 2)
}

func formatFixed(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// daFontSize returns the size operand of the Tf operator in a default
// appearance string, or 0 for auto size.
func daFontSize(da string) float64 {
	tokens := strings.Fields(da)
	for i, tok := range tokens {
		if tok != "Tf" || i == 0 {
			continue
		}
		size, err := strconv.ParseFloat(tokens[i-1], 64)
		if err != nil || size < 0 {
			return 0
		}
		return size
	}
	return 0
}

// defaultAppearance reads the field's inheritable /DA, falling back to the
// AcroForm's.
func (d *document) defaultAppearance(tf *terminalField) string {
	if o, found := d.inherited(tf.dict, "DA"); found {
		if da, err := d.text(o); err == nil {
			return da
		}
	}
	if form := d.acroForm(); form != nil {
		if da, err := d.text(form["DA"]); err == nil {
			return da
		}
	}
	return ""
}

// fitFontSize picks a size for auto-sized text so one line fits the box.
func fitFontSize(text string, width, height float64) float64 {
	size := defaultFontSize
	if h := (height - 2*textPadding) * 0.8; h < size {
		size = h
	}
	if n := len([]rune(text)); n > 0 {
		if w := (width - 2*textPadding) / (float64(n) * helveticaAvgWidth); w < size {
			size = w
		}
	}
	if size < minFontSize {
		size = minFontSize
	}
	return size
}

// textAppearance renders text into a Helvetica appearance stream for a box
// of the given size.
func textAppearance(text string, width, height, size float64, multiline bool) []byte {
	if size <= 0 {
		probe := text
		if multiline {
			probe = longestLine(text)
		}
		size = fitFontSize(probe, width, height)
	}

	var sb strings.Builder
	sb.WriteString("/Tx BMC\nq\n")
	fmt.Fprintf(&sb, "%s %s %s %s re W n\n",
		formatNumber(1), formatNumber(1), formatNumber(width-2), formatNumber(height-2))
	sb.WriteString("BT\n")
	fmt.Fprintf(&sb, "/Helv %s Tf\n0 g\n", formatNumber(size))

	if multiline {
		leading := size * 1.15
		fmt.Fprintf(&sb, "%s TL\n", formatNumber(leading))
		fmt.Fprintf(&sb, "%s %s Td\n", formatNumber(textPadding), formatNumber(height-textPadding-size))
		for i, line := range strings.Split(normalizeNewlines(text), "\n") {
			if i > 0 {
				sb.WriteString("T*\n")
			}
			fmt.Fprintf(&sb, "(%s) Tj\n", escapeLiteral(winAnsi(line)))
		}
	} else {
		baseline := (height-size)/2 + size*0.22
		fmt.Fprintf(&sb, "%s %s Td\n", formatNumber(textPadding), formatNumber(baseline))
		fmt.Fprintf(&sb, "(%s) Tj\n", escapeLiteral(winAnsi(singleLine(text))))
	}

	sb.WriteString("ET\nQ\nEMC\n")
	return []byte(sb.String())
}

// checkAppearance draws a ZapfDingbats check mark centred in the box.
func checkAppearance(width, height float64) []byte {
	size := height * 0.8
	if width < height {
		size = width * 0.8
	}
	x := (width - size*0.75) / 2
	y := (height - size*0.7) / 2

	var sb strings.Builder
	sb.WriteString("q\n0 g\nBT\n")
	fmt.Fprintf(&sb, "/ZaDb %s Tf\n", formatNumber(size))
	fmt.Fprintf(&sb, "%s %s Td\n", formatNumber(x), formatNumber(y))
	sb.WriteString("(4) Tj\nET\nQ\n")
	return []byte(sb.String())
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(normalizeNewlines(s)), " ")
}

func longestLine(s string) string {
	longest := ""
	for _, line := range strings.Split(normalizeNewlines(s), "\n") {
		if len(line) > len(longest) {
			longest = line
		}
	}
	return longest
}

// newFormXObject registers a Form XObject stream with the given content.
func (d *document) newFormXObject(content []byte, width, height float64, resources types.Dict) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}

	sd.Dict["Type"] = types.Name("XObject")
	sd.Dict["Subtype"] = types.Name("Form")
	sd.Dict["BBox"] = types.Array{types.Float(0), types.Float(0), types.Float(width), types.Float(height)}
	sd.Dict["Resources"] = resources

	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// setTextAppearance replaces a widget's normal appearance with one showing
// text.
func (d *document) setTextAppearance(tf *terminalField, w widget, text string, multiline bool) error {
	r, err := d.widgetRect(w)
	if err != nil {
		return fmt.Errorf("widget of %q has no usable /Rect: %w", tf.name, err)
	}
	width, height := r[2]-r[0], r[3]-r[1]
	if width <= 0 || height <= 0 {
		return fmt.Errorf("widget of %q has an empty /Rect", tf.name)
	}

	content := textAppearance(text, width, height, daFontSize(d.defaultAppearance(tf)), multiline)
	ir, err := d.newFormXObject(content, width, height, helveticaResources())
	if err != nil {
		return err
	}

	w.dict["AP"] = types.Dict{"N": *ir}
	delete(w.dict, "AS")
	return nil
}

// setCheckAppearance gives a button widget without appearances an on and
// an off state.
func (d *document) setCheckAppearance(tf *terminalField, w widget, on string) error {
	r, err := d.widgetRect(w)
	if err != nil {
		return fmt.Errorf("widget of %q has no usable /Rect: %w", tf.name, err)
	}
	width, height := r[2]-r[0], r[3]-r[1]
	if width <= 0 || height <= 0 {
		return fmt.Errorf("widget of %q has an empty /Rect", tf.name)
	}

	onRef, err := d.newFormXObject(checkAppearance(width, height), width, height, zapfResources())
	if err != nil {
		return err
	}
	offRef, err := d.newFormXObject([]byte("q\nQ\n"), width, height, types.Dict{})
	if err != nil {
		return err
	}

	w.dict["AP"] = types.Dict{
		"N": types.Dict{
			on:    *onRef,
			"Off": *offRef,
		},
	}
	return nil
}
