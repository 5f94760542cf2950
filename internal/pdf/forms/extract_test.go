package forms

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/testpdf"
)

func extract(t *testing.T, data []byte) *ParseResult {
	t.Helper()
	result, err := NewExtractor(false).Extract(data, "form.pdf")
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func fieldByName(t *testing.T, result *ParseResult, name string) FieldDescriptor {
	t.Helper()
	for _, f := range result.Fields {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "field not found", "no field %q in %+v", name, result.Fields)
	return FieldDescriptor{}
}

func TestExtractSingleTextField(t *testing.T) {
	result := extract(t, testpdf.SingleText())

	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, "form", result.Title)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, FieldDescriptor{
		Name:       "Name",
		Type:       FieldTypeText,
		Value:      "",
		Required:   false,
		Page:       1,
		Rect:       Rect{X: 100, Y: 700, Width: 200, Height: 20},
		UsageCount: 1,
		Pages:      []int{1},
	}, result.Fields[0])
}

func TestExtractRepeatedWidgetsCollapse(t *testing.T) {
	result := extract(t, testpdf.RepeatedCheckbox())

	assert.Equal(t, 3, result.PageCount)
	require.Len(t, result.Fields, 1)

	agree := result.Fields[0]
	assert.Equal(t, "Agree", agree.Name)
	assert.Equal(t, FieldTypeCheckbox, agree.Type)
	assert.Equal(t, "false", agree.Value)
	assert.Equal(t, 2, agree.UsageCount)
	assert.Equal(t, []int{1, 3}, agree.Pages)
	assert.Equal(t, 1, agree.Page)
}

func TestExtractMixedControls(t *testing.T) {
	result := extract(t, testpdf.Mixed())
	assert.Equal(t, 2, result.PageCount)

	tests := []struct {
		name     string
		typ      FieldType
		value    string
		required bool
		options  []string
		page     int
	}{
		{"Name", FieldTypeText, "Bob", true, nil, 1},
		{"Subscribe", FieldTypeCheckbox, "true", false, nil, 1},
		{"Size", FieldTypeRadio, "M", false, []string{"S", "M", "L"}, 1},
		{"Country", FieldTypeSelect, "Canada", false, []string{"USA", "Canada", "Mexico"}, 2},
		{"Signature", FieldTypeSignature, "", false, nil, 2},
		{"Submit", FieldTypeText, "", false, nil, 2},
	}

	require.Len(t, result.Fields, len(tests))
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := result.Fields[i]
			assert.Equal(t, tt.name, f.Name, "document order is preserved")
			assert.Equal(t, tt.typ, f.Type)
			assert.Equal(t, tt.value, f.Value)
			assert.Equal(t, tt.required, f.Required)
			assert.Equal(t, tt.options, f.Options)
			assert.Equal(t, tt.page, f.Page)
			assert.Equal(t, []int{tt.page}, f.Pages)
		})
	}

	size := fieldByName(t, result, "Size")
	assert.Equal(t, 3, size.UsageCount, "three widgets on one page")
	assert.Equal(t, Rect{X: 100, Y: 600, Width: 12, Height: 12}, size.Rect, "rect comes from the first widget")
}

func TestExtractPageIsFirstOccurrence(t *testing.T) {
	data := testpdf.Form{
		Pages: 3,
		Fields: []testpdf.Field{{
			Name: "Initials",
			FT:   "Tx",
			Widgets: []testpdf.Widget{
				{Page: 3, Rect: [4]float64{10, 10, 60, 30}},
				{Page: 1, Rect: [4]float64{10, 10, 60, 30}},
			},
		}},
	}.Bytes()

	f := extract(t, data).Fields[0]
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, []int{1, 3}, f.Pages)
	assert.Equal(t, 2, f.UsageCount)
}

func TestExtractUsageCountsWidgetsNotPages(t *testing.T) {
	data := testpdf.Form{
		Pages: 2,
		Fields: []testpdf.Field{{
			Name: "Date",
			FT:   "Tx",
			Widgets: []testpdf.Widget{
				{Page: 2, Rect: [4]float64{10, 10, 60, 30}},
				{Page: 2, Rect: [4]float64{10, 50, 60, 70}},
				{Page: 1, Rect: [4]float64{10, 10, 60, 30}},
			},
		}},
	}.Bytes()

	f := extract(t, data).Fields[0]
	assert.Equal(t, 3, f.UsageCount)
	assert.Equal(t, []int{1, 2}, f.Pages)
	assert.GreaterOrEqual(t, f.UsageCount, len(f.Pages))
}

func TestExtractPageResolution(t *testing.T) {
	tests := []struct {
		name    string
		widgets []testpdf.Widget
		pages   []int
		usage   int
	}{
		{
			name:    "direct page reference",
			widgets: []testpdf.Widget{{Page: 2, NotInAnnots: true}},
			pages:   []int{2},
			usage:   1,
		},
		{
			name:    "annotation scan fallback",
			widgets: []testpdf.Widget{{Page: 2, NoPageRef: true}},
			pages:   []int{2},
			usage:   1,
		},
		{
			name:    "page reference to a non-page is not rescanned",
			widgets: []testpdf.Widget{{Page: 2, StrayPageRef: true}},
			pages:   []int{1},
			usage:   1,
		},
		{
			name:    "unresolvable defaults to page 1",
			widgets: []testpdf.Widget{{Page: 2, NoPageRef: true, NotInAnnots: true}},
			pages:   []int{1},
			usage:   1,
		},
		{
			name: "unresolvable widget contributes nothing",
			widgets: []testpdf.Widget{
				{Page: 2},
				{Page: 3, NoPageRef: true, NotInAnnots: true},
			},
			pages: []int{2},
			usage: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range tt.widgets {
				tt.widgets[i].Rect = [4]float64{10, 10, 100, 30}
			}
			data := testpdf.Form{
				Pages:  3,
				Fields: []testpdf.Field{{Name: "Where", FT: "Tx", Widgets: tt.widgets}},
			}.Bytes()

			f := extract(t, data).Fields[0]
			assert.Equal(t, tt.pages, f.Pages)
			assert.Equal(t, tt.pages[0], f.Page)
			assert.Equal(t, tt.usage, f.UsageCount)
		})
	}
}

func TestExtractHierarchicalNames(t *testing.T) {
	data := testpdf.Form{
		Pages: 1,
		Fields: []testpdf.Field{{
			Name: "person",
			FT:   "Tx",
			Kids: []testpdf.Field{
				{Name: "first", Widgets: []testpdf.Widget{{Page: 1, Rect: [4]float64{10, 10, 100, 30}}}},
				{Name: "last", Widgets: []testpdf.Widget{{Page: 1, Rect: [4]float64{10, 40, 100, 60}}}},
			},
		}},
	}.Bytes()

	result := extract(t, data)
	require.Len(t, result.Fields, 2)
	assert.Equal(t, "person.first", result.Fields[0].Name)
	assert.Equal(t, "person.last", result.Fields[1].Name)
	for _, f := range result.Fields {
		assert.Equal(t, FieldTypeText, f.Type, "type is inherited from the parent")
	}
}

func TestExtractRequired(t *testing.T) {
	tests := []struct {
		name     string
		flags    *int
		required bool
	}{
		{"Email*", nil, true},
		{"Phone (Required)", nil, true},
		{"MANDATORY_ID", nil, true},
		{"Notes", nil, false},
		{"Mandatory Notes", testpdf.Flags(0), false},
		{"Zip", testpdf.Flags(2), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testpdf.Form{
				Pages: 1,
				Fields: []testpdf.Field{{
					Name: tt.name, FT: "Tx", Flags: tt.flags,
					Widgets: []testpdf.Widget{{Page: 1, Rect: [4]float64{10, 10, 100, 30}}},
				}},
			}.Bytes()

			assert.Equal(t, tt.required, extract(t, data).Fields[0].Required)
		})
	}
}

func TestExtractDropdownOptionPairs(t *testing.T) {
	data := testpdf.Form{
		Pages: 1,
		Fields: []testpdf.Field{{
			Name: "Country", FT: "Ch", Flags: testpdf.Flags(1 << 17), Value: "(ca)",
			OptionPairs: [][2]string{{"us", "United States"}, {"ca", "Canada"}},
			Widgets:     []testpdf.Widget{{Page: 1, Rect: [4]float64{10, 10, 200, 30}}},
		}},
	}.Bytes()

	f := extract(t, data).Fields[0]
	assert.Equal(t, FieldTypeSelect, f.Type)
	assert.Equal(t, []string{"United States", "Canada"}, f.Options)
	assert.Equal(t, "Canada", f.Value)
}

func TestExtractNoFields(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty field list", testpdf.Form{Pages: 1}.Bytes()},
		{"no AcroForm", testpdf.Form{Pages: 2, NoAcroForm: true}.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(false).Extract(tt.data, "empty.pdf")
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, pdferrors.ErrNoFieldsDetected))
		})
	}
}

func TestExtractInvalidDocument(t *testing.T) {
	valid := testpdf.SingleText()

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"not a pdf", []byte("this is not a PDF document")},
		{"truncated", valid[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(false).Extract(tt.data, "bad.pdf")
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, pdferrors.ErrInvalidDocument), "got %v", err)
		})
	}
}

func TestDeduplicate(t *testing.T) {
	raw := []FieldDescriptor{
		{Name: "A", Page: 2},
		{Name: "B", Page: 1},
		{Name: "A", Page: 1},
		{Name: "A", Page: 2},
	}

	out := Deduplicate(raw)
	require.Len(t, out, 2)

	assert.Equal(t, "A", out[0].Name)
	assert.Equal(t, 2, out[0].Page)
	assert.Equal(t, 3, out[0].UsageCount)
	assert.Equal(t, []int{1, 2}, out[0].Pages)

	assert.Equal(t, "B", out[1].Name)
	assert.Equal(t, 1, out[1].UsageCount)
	assert.Equal(t, []int{1}, out[1].Pages)

	assert.Empty(t, Deduplicate(nil))
}

func TestTitle(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"form.pdf", "form"},
		{"FORM.PDF", "FORM.PDF"},
		{"a.pdf.pdf", "a.pdf"},
		{"report", "report"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.filename))
		})
	}
}

func TestControlKindFieldType(t *testing.T) {
	assert.Equal(t, FieldTypeText, UnknownControl.FieldType())
	assert.Equal(t, FieldTypeSelect, DropdownControl.FieldType())
	assert.Equal(t, "dropdown", DropdownControl.String())
}
