package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/inspect"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/testpdf"
	"github.com/a3tai/mcp-pdf-forms/internal/store"
)

func newTestService(t *testing.T, flatten bool) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	service, err := NewService(Options{
		MaxFileSize: 1024 * 1024,
		Directory:   dir,
		CacheSize:   4,
		Flatten:     flatten,
	})
	require.NoError(t, err)
	return service, dir
}

func boolPtr(b bool) *bool {
	return &b
}

func TestNewService(t *testing.T) {
	_, err := NewService(Options{MaxFileSize: 1})
	assert.Error(t, err)

	service, dir := newTestService(t, true)
	assert.Equal(t, filepath.Join(service.inputPaths.Roots()[0], "filled"), service.outputPaths.Roots()[0])
	assert.Equal(t, int64(1024*1024), service.GetMaxFileSize())
	assert.NotEmpty(t, dir)
}

func TestService_PDFFormExtract(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "mixed.pdf", testpdf.Mixed())

	result, err := service.PDFFormExtract(PDFFormExtractRequest{Path: "mixed.pdf"})
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, filepath.Join(service.inputPaths.Roots()[0], "mixed.pdf"), result.Path)
	assert.Equal(t, 2, result.Result.PageCount)
	assert.Equal(t, "mixed", result.Result.Title)
	assert.Len(t, result.Result.Fields, 6)

	again, err := service.PDFFormExtract(PDFFormExtractRequest{Path: result.Path})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, int64(1), service.CacheStats().Hits)

	session, err := service.sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "mixed.pdf", session.FileName)
	assert.Equal(t, int64(len(testpdf.Mixed())), session.FileSize)
}

func TestService_PDFFormExtractErrors(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "plain.pdf", testpdf.Form{Pages: 1, NoAcroForm: true}.Bytes())
	writeFile(t, dir, "broken.pdf", []byte("not a pdf"))

	_, err := service.PDFFormExtract(PDFFormExtractRequest{Path: "plain.pdf"})
	assert.Equal(t, pdferrors.ErrorTypeNoFieldsDetected, pdferrors.TypeOf(err))

	_, err = service.PDFFormExtract(PDFFormExtractRequest{Path: "broken.pdf"})
	assert.Equal(t, pdferrors.ErrorTypeInvalidDocument, pdferrors.TypeOf(err))

	_, err = service.PDFFormExtract(PDFFormExtractRequest{Path: "../outside.pdf"})
	assert.ErrorContains(t, err, "security validation failed")

	_, err = service.PDFFormExtract(PDFFormExtractRequest{Path: "missing.pdf"})
	assert.ErrorContains(t, err, "does not exist")
}

func TestService_PDFFormFillFlattens(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "single.pdf", testpdf.SingleText())

	result, err := service.PDFFormFill(PDFFormFillRequest{
		Path:   "single.pdf",
		Values: map[string]string{"Name": "Alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Filled)
	assert.True(t, result.Flattened)
	assert.False(t, result.Interactive)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, filepath.Join(service.outputPaths.Roots()[0], "single_filled.pdf"), result.OutputPath)

	data, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	report, err := inspect.Inspect(data)
	require.NoError(t, err)
	assert.False(t, report.Interactive())

	_, err = service.PDFFormExtract(PDFFormExtractRequest{Path: result.OutputPath})
	assert.Equal(t, pdferrors.ErrorTypeNoFieldsDetected, pdferrors.TypeOf(err))
}

func TestService_PDFFormFillKeepsFields(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "single.pdf", testpdf.SingleText())

	result, err := service.PDFFormFill(PDFFormFillRequest{
		Path:       "single.pdf",
		Values:     map[string]string{"Name": "Alice", "Nickname": "Al"},
		OutputPath: "out/alice.pdf",
		Flatten:    boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, result.Flattened)
	assert.True(t, result.Interactive)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0], "Nickname")

	extracted, err := service.PDFFormExtract(PDFFormExtractRequest{Path: result.OutputPath})
	require.NoError(t, err)
	require.Len(t, extracted.Result.Fields, 1)
	assert.Equal(t, "Alice", extracted.Result.Fields[0].Value)
}

func TestService_PDFFormFillTemplate(t *testing.T) {
	service, dir := newTestService(t, false)
	writeFile(t, dir, "mixed.pdf", testpdf.Mixed())

	tmpl, err := service.PDFTemplateSave(PDFTemplateSaveRequest{
		Name:   "Home",
		Values: map[string]string{"Name": "Template Name", "Country": "Mexico"},
	})
	require.NoError(t, err)

	result, err := service.PDFFormFill(PDFFormFillRequest{
		Path:     "mixed.pdf",
		Values:   map[string]string{"Name": "Explicit Name"},
		Template: "Home",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Filled)
	assert.False(t, result.Flattened, "server default applies when flatten is unset")

	extracted, err := service.PDFFormExtract(PDFFormExtractRequest{Path: result.OutputPath})
	require.NoError(t, err)
	values := make(map[string]string)
	for _, f := range extracted.Result.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "Explicit Name", values["Name"])
	assert.Equal(t, "Mexico", values["Country"])

	_, err = service.PDFFormFill(PDFFormFillRequest{Path: "mixed.pdf", Template: "Nope"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = service.PDFFormFill(PDFFormFillRequest{Path: "mixed.pdf", Template: tmpl.ID})
	assert.NoError(t, err)
}

func TestService_PDFFormFillBlankValueKeepsTemplate(t *testing.T) {
	service, dir := newTestService(t, false)
	writeFile(t, dir, "mixed.pdf", testpdf.Mixed())

	_, err := service.PDFTemplateSave(PDFTemplateSaveRequest{
		Name:   "Home",
		Values: map[string]string{"Name": "Template Name"},
	})
	require.NoError(t, err)

	result, err := service.PDFFormFill(PDFFormFillRequest{
		Path:     "mixed.pdf",
		Values:   map[string]string{"Name": " ", "City": ""},
		Template: "Home",
	})
	require.NoError(t, err)

	extracted, err := service.PDFFormExtract(PDFFormExtractRequest{Path: result.OutputPath})
	require.NoError(t, err)
	values := make(map[string]string)
	for _, f := range extracted.Result.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "Template Name", values["Name"])
}

func TestService_PDFFormExtractTitlePerFile(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "lease.pdf", testpdf.SingleText())
	writeFile(t, dir, "invoice.pdf", testpdf.SingleText())

	first, err := service.PDFFormExtract(PDFFormExtractRequest{Path: "lease.pdf"})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "lease", first.Result.Title)

	second, err := service.PDFFormExtract(PDFFormExtractRequest{Path: "invoice.pdf"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "invoice", second.Result.Title)
	assert.Equal(t, "lease", first.Result.Title)
}

func TestService_PDFFormFillOutputPath(t *testing.T) {
	service, dir := newTestService(t, true)
	source := writeFile(t, dir, "single.pdf", testpdf.SingleText())
	values := map[string]string{"Name": "Alice"}

	tests := []struct {
		name   string
		output string
	}{
		{name: "outside directories", output: "/etc/filled.pdf"},
		{name: "escapes output dir", output: "../../filled.pdf"},
		{name: "not a pdf", output: "filled.txt"},
		{name: "overwrites source", output: source},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.PDFFormFill(PDFFormFillRequest{Path: "single.pdf", Values: values, OutputPath: tt.output})
			assert.Error(t, err)
		})
	}

	result, err := service.PDFFormFill(PDFFormFillRequest{
		Path:       "single.pdf",
		Values:     values,
		OutputPath: filepath.Join(dir, "copies", "single_copy.pdf"),
	})
	require.NoError(t, err)
	assert.FileExists(t, result.OutputPath)
}

func TestService_PDFFormPreview(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "repeated.pdf", testpdf.RepeatedCheckbox())

	result, err := service.PDFFormPreview(PDFFormPreviewRequest{Path: "repeated.pdf"})
	require.NoError(t, err)
	require.Len(t, result.Overlay.Pages, 3)
	assert.Len(t, result.Overlay.Pages[0].Fields, 1)
	assert.Empty(t, result.Overlay.Pages[1].Fields)
	assert.Len(t, result.Overlay.Pages[2].Fields, 1)
}

func TestService_PDFValidateFile(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "mixed.pdf", testpdf.Mixed())

	result, err := service.PDFValidateFile(PDFValidateFileRequest{Path: "mixed.pdf"})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.True(t, result.HasForm)
	assert.Equal(t, 2, result.Pages)

	_, err = service.PDFValidateFile(PDFValidateFileRequest{Path: "/etc/passwd"})
	assert.Error(t, err)
}

func TestService_PDFSearchDirectory(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "lease.pdf", testpdf.SingleText())
	writeFile(t, dir, "invoice.pdf", testpdf.SingleText())

	result, err := service.PDFSearchDirectory(PDFSearchDirectoryRequest{Query: "lease"})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalCount)
	assert.Equal(t, "lease.pdf", result.Files[0].Name)

	_, err = service.PDFSearchDirectory(PDFSearchDirectoryRequest{Directory: "/etc"})
	assert.Error(t, err)
}

func TestService_Templates(t *testing.T) {
	service, _ := newTestService(t, true)

	saved, err := service.PDFTemplateSave(PDFTemplateSaveRequest{Name: "Work", Values: map[string]string{"Name": "A"}})
	require.NoError(t, err)

	list, err := service.PDFTemplateList()
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, saved.ID, list.Templates[0].ID)

	require.NoError(t, service.PDFTemplateDelete(PDFTemplateDeleteRequest{ID: saved.ID}))
	assert.ErrorIs(t, service.PDFTemplateDelete(PDFTemplateDeleteRequest{ID: saved.ID}), store.ErrNotFound)
}

func TestService_Categories(t *testing.T) {
	service, dir := newTestService(t, true)
	writeFile(t, dir, "mixed.pdf", testpdf.Mixed())

	got, err := service.PDFCategoriesGet(PDFCategoriesGetRequest{Path: "mixed.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "mixed.pdf", got.Document)
	require.Len(t, got.Categories, 1)
	assert.Len(t, got.Categories[0].Fields, 6)

	set, err := service.PDFCategoriesSet(PDFCategoriesSetRequest{
		Path:       "mixed.pdf",
		Categories: []store.Category{{ID: "personal", Name: "Personal", Fields: []string{"Name", "Country"}}},
	})
	require.NoError(t, err)
	require.Len(t, set.Categories, 2)
	assert.Equal(t, store.DefaultCategoryID, set.Categories[0].ID)
	assert.NotContains(t, set.Categories[0].Fields, "Name")
	assert.Equal(t, []string{"Name", "Country"}, set.Categories[1].Fields)

	_, err = service.PDFCategoriesSet(PDFCategoriesSetRequest{
		Path:       "mixed.pdf",
		Categories: []store.Category{{ID: "x", Name: "X", Fields: []string{"Unknown"}}},
	})
	assert.ErrorContains(t, err, "unknown field")
}

func TestService_FileStore(t *testing.T) {
	dir := t.TempDir()
	kv, err := store.NewFileKV(filepath.Join(dir, ".pdf-forms"))
	require.NoError(t, err)

	service, err := NewService(Options{MaxFileSize: 1024 * 1024, Directory: dir, Store: kv})
	require.NoError(t, err)
	_, err = service.PDFTemplateSave(PDFTemplateSaveRequest{Name: "Persisted", Values: map[string]string{"a": "b"}})
	require.NoError(t, err)

	reopened, err := NewService(Options{MaxFileSize: 1024 * 1024, Directory: dir, Store: kv})
	require.NoError(t, err)
	list, err := reopened.PDFTemplateList()
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestService_ParseUsesExtractor(t *testing.T) {
	service, _ := newTestService(t, true)
	data := testpdf.SingleText()

	result, cached, err := service.parse(data, "single.pdf")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []forms.FieldDescriptor{{
		Name:       "Name",
		Type:       forms.FieldTypeText,
		Value:      "",
		Page:       1,
		Rect:       forms.Rect{X: 100, Y: 700, Width: 200, Height: 20},
		UsageCount: 1,
		Pages:      []int{1},
	}}, result.Fields)
}
