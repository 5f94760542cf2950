package forms

import (
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeText(t *testing.T) {
	ascii := encodeText("Hello (world)")
	lit, ok := ascii.(types.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, `Hello \(world\)`, string(lit))

	unicode := encodeText("é")
	hex, ok := unicode.(types.HexLiteral)
	require.True(t, ok)
	assert.Equal(t, "feff00e9", strings.ToLower(string(hex)))
}

func TestEscapeLiteral(t *testing.T) {
	assert.Equal(t, `a\\b\(c\)\r\n`, escapeLiteral("a\\b(c)\r\n"))
	assert.Equal(t, "plain", escapeLiteral("plain"))
}

func TestWinAnsi(t *testing.T) {
	assert.Equal(t, "caf\xe9", winAnsi("café"))
	assert.Equal(t, "ascii", winAnsi("ascii"))
}

func TestDAFontSize(t *testing.T) {
	tests := []struct {
		da   string
		want float64
	}{
		{"/Helv 12 Tf 0 g", 12},
		{"0 g /Helv 9.5 Tf", 9.5},
		{"/Helv 0 Tf 0 g", 0},
		{"", 0},
		{"Tf", 0},
		{"/Helv x Tf", 0},
	}

	for _, tt := range tests {
		t.Run(tt.da, func(t *testing.T) {
			assert.Equal(t, tt.want, daFontSize(tt.da))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "12", formatNumber(12))
	assert.Equal(t, "12.5", formatNumber(12.5))
	assert.Equal(t, "3.33", formatNumber(10.0/3))
	assert.Equal(t, "0.3333", formatFixed(1.0/3, 4))
}

func TestFitFontSize(t *testing.T) {
	assert.Equal(t, defaultFontSize, fitFontSize("hi", 300, 40))
	assert.Less(t, fitFontSize(strings.Repeat("w", 80), 100, 40), defaultFontSize)
	assert.Equal(t, minFontSize, fitFontSize(strings.Repeat("w", 500), 50, 40))
}

func TestTextAppearance(t *testing.T) {
	single := string(textAppearance("Alice", 200, 20, 12, false))
	assert.True(t, strings.HasPrefix(single, "/Tx BMC"))
	assert.Contains(t, single, "/Helv 12 Tf")
	assert.Contains(t, single, "(Alice) Tj")
	assert.Contains(t, single, "1 1 198 18 re W n")

	multi := string(textAppearance("one\ntwo", 200, 60, 10, true))
	assert.Contains(t, multi, "(one) Tj\nT*\n(two) Tj")
	assert.Contains(t, multi, "11.5 TL")
}

func TestTransformBox(t *testing.T) {
	rotated := transformBox([]float64{0, 0, 20, 10}, []float64{0, 1, -1, 0, 0, 0})
	assert.InDeltaSlice(t, []float64{-10, 0, 0, 20}, rotated, 1e-9)

	identity := transformBox([]float64{1, 2, 3, 4}, []float64{1, 0, 0, 1, 0, 0})
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4}, identity, 1e-9)
}
