package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf/testpdf"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestValidator_ValidateFile(t *testing.T) {
	tempDir := t.TempDir()
	validator := NewValidator(1024 * 1024)

	formPath := writeFile(t, tempDir, "form.pdf", testpdf.Mixed())
	plainPath := writeFile(t, tempDir, "plain.pdf", testpdf.Form{Pages: 2}.Bytes())
	garbagePath := writeFile(t, tempDir, "garbage.pdf", []byte("this is not a pdf at all"))
	textPath := writeFile(t, tempDir, "notes.txt", []byte("hello"))
	emptyPath := writeFile(t, tempDir, "empty.pdf", nil)
	largePath := writeFile(t, tempDir, "large.pdf", make([]byte, 2*1024*1024))

	tests := []struct {
		name        string
		path        string
		expectValid bool
		expectPages int
		expectForm  bool
	}{
		{name: "form", path: formPath, expectValid: true, expectPages: 2, expectForm: true},
		{name: "pdf without form", path: plainPath, expectValid: true, expectPages: 2},
		{name: "garbage", path: garbagePath},
		{name: "wrong extension", path: textPath},
		{name: "empty file", path: emptyPath},
		{name: "too large", path: largePath},
		{name: "directory", path: tempDir},
		{name: "non-existent file", path: filepath.Join(tempDir, "missing.pdf")},
		{name: "empty path", path: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateFile(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Valid != tt.expectValid {
				t.Errorf("expected Valid=%v but got %v (%s)", tt.expectValid, result.Valid, result.Message)
			}
			if result.Path != tt.path {
				t.Errorf("expected Path=%s but got %s", tt.path, result.Path)
			}
			if !tt.expectValid && result.Message == "" {
				t.Errorf("expected validation message for invalid file")
			}
			if result.Pages != tt.expectPages {
				t.Errorf("expected %d pages but got %d", tt.expectPages, result.Pages)
			}
			if result.HasForm != tt.expectForm {
				t.Errorf("expected HasForm=%v but got %v", tt.expectForm, result.HasForm)
			}
		})
	}
}

func TestValidator_ReadFileChecksSizeFirst(t *testing.T) {
	tempDir := t.TempDir()
	validator := NewValidator(10)

	path := writeFile(t, tempDir, "form.pdf", testpdf.SingleText())
	if _, err := validator.ReadFile(path); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestValidator_IsValidPDF(t *testing.T) {
	tempDir := t.TempDir()
	validator := NewValidator(1024 * 1024)

	if !validator.IsValidPDF(writeFile(t, tempDir, "ok.pdf", testpdf.SingleText())) {
		t.Error("expected generated form to be valid")
	}
	if validator.IsValidPDF(writeFile(t, tempDir, "bad.pdf", []byte("%PDF-1.7 broken"))) {
		t.Error("expected truncated file to be invalid")
	}
}

func TestValidator_ValidateFileInfo(t *testing.T) {
	tempDir := t.TempDir()
	validator := NewValidator(100)

	tests := []struct {
		name      string
		file      string
		content   []byte
		wantError bool
	}{
		{name: "valid", file: "a.pdf", content: []byte("0123456789")},
		{name: "upper case extension", file: "b.PDF", content: []byte("0123456789")},
		{name: "not pdf", file: "c.txt", content: []byte("0123456789"), wantError: true},
		{name: "empty", file: "d.pdf", content: nil, wantError: true},
		{name: "too large", file: "e.pdf", content: make([]byte, 101), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tempDir, tt.file, tt.content)
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat failed: %v", err)
			}

			err = validator.ValidateFileInfo(path, info)
			if tt.wantError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
