package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
)

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func TestTemplatesLifecycle(t *testing.T) {
	templates := NewTemplates(NewMemoryKV())
	templates.now = fixedClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	first, err := templates.Save("Home", "lease.pdf", map[string]string{"Name": "Alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "lease.pdf", first.DocumentName)

	second, err := templates.Save("Work", "", map[string]string{"Name": "A. Smith", "Email": "a@example.com"})
	require.NoError(t, err)

	list, err := templates.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	loaded, err := templates.Load(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", loaded.Fields["Email"])

	byName, err := templates.Resolve("Home")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byName.ID)

	byID, err := templates.Resolve(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", byID.Name)

	require.NoError(t, templates.Delete(first.ID))
	_, err = templates.Load(first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(templates.Delete(first.ID), ErrNotFound))

	_, err = templates.Resolve("Home")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTemplatesSaveValidation(t *testing.T) {
	templates := NewTemplates(NewMemoryKV())

	_, err := templates.Save("  ", "", map[string]string{"a": "b"})
	assert.Error(t, err)

	_, err = templates.Save("Empty", "", nil)
	assert.Error(t, err)
}

func TestTemplatesCopyFields(t *testing.T) {
	templates := NewTemplates(NewMemoryKV())
	fields := map[string]string{"Name": "Alice"}

	tmpl, err := templates.Save("Copy", "", fields)
	require.NoError(t, err)
	fields["Name"] = "Mallory"

	loaded, err := templates.Load(tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", loaded.Fields["Name"])
}

func TestCategoriesSeedDefault(t *testing.T) {
	categories := NewCategories(NewMemoryKV())

	got, err := categories.Get("lease.pdf", []string{"Name", "Email", "Date"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, DefaultCategoryID, got[0].ID)
	assert.True(t, got[0].IsDefault)
	assert.Equal(t, []string{"Name", "Email", "Date"}, got[0].Fields)
}

func TestCategoriesSetAndMerge(t *testing.T) {
	categories := NewCategories(NewMemoryKV())

	require.NoError(t, categories.Set("lease.pdf", []Category{
		{ID: "personal", Name: "Personal", Fields: []string{"Name", "Email"}},
		{ID: DefaultCategoryID, Name: DefaultCategoryName, Fields: []string{}, IsDefault: true},
	}))

	got, err := categories.Get("lease.pdf", []string{"Name", "Email", "Date", "Signature"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Name", "Email"}, got[0].Fields)
	assert.Equal(t, []string{"Date", "Signature"}, got[1].Fields)

	other, err := categories.Get("other.pdf", []string{"X"})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, other[0].Fields, "categories are per document")
}

func TestCategoriesSetWithoutDefault(t *testing.T) {
	categories := NewCategories(NewMemoryKV())
	require.NoError(t, categories.Set("a.pdf", []Category{
		{ID: "p", Name: "Personal", Fields: []string{"Name"}},
	}))

	got, err := categories.Get("a.pdf", []string{"Name", "Zip"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsDefault)
	assert.Equal(t, []string{"Zip"}, got[0].Fields)
}

func TestValidateCategories(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		wantErr    bool
	}{
		{"empty", nil, false},
		{"valid", []Category{{ID: "a", Name: "A", Fields: []string{"x"}}, {ID: "b", Name: "B", Fields: []string{"y"}}}, false},
		{"missing id", []Category{{Name: "A"}}, true},
		{"missing name", []Category{{ID: "a"}}, true},
		{"duplicate id", []Category{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}, true},
		{"field twice", []Category{{ID: "a", Name: "A", Fields: []string{"x"}}, {ID: "b", Name: "B", Fields: []string{"x"}}}, true},
		{"two defaults", []Category{{ID: "a", Name: "A", IsDefault: true}, {ID: "b", Name: "B", IsDefault: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategories(tt.categories)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessions(t *testing.T) {
	sessions := NewSessions(NewMemoryKV())

	_, err := sessions.Load()
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, sessions.Save(Session{}))

	result := &forms.ParseResult{
		Fields:    []forms.FieldDescriptor{{Name: "Name", Type: forms.FieldTypeText, Page: 1, UsageCount: 1, Pages: []int{1}}},
		PageCount: 1,
		Title:     "lease",
	}
	require.NoError(t, sessions.Save(Session{FileName: "lease.pdf", FileSize: 1234, Result: result}))

	loaded, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "lease.pdf", loaded.FileName)
	assert.Equal(t, int64(1234), loaded.FileSize)
	assert.False(t, loaded.UploadTime.IsZero())
	require.NotNil(t, loaded.Result)
	assert.Equal(t, result.Fields, loaded.Result.Fields)

	require.NoError(t, sessions.Clear())
	_, err = sessions.Load()
	assert.True(t, errors.Is(err, ErrNotFound))
}
