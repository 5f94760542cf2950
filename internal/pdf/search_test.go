package pdf

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestSearch_SearchDirectory(t *testing.T) {
	search := NewSearch(1024 * 1024)
	tempDir := t.TempDir()

	testFiles := map[string][]byte{
		"lease_agreement.pdf":      make([]byte, 1024),
		"tax-form-2024.pdf":        make([]byte, 2048),
		"forms/application.pdf":    make([]byte, 512),
		".hidden/secret_lease.pdf": make([]byte, 512),
		"report.txt":               []byte("not a pdf"),
		"empty.pdf":                {},
		"large.pdf":                make([]byte, 2*1024*1024),
	}
	for name, content := range testFiles {
		writeFile(t, tempDir, name, content)
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "all PDFs", query: "", expected: []string{"application.pdf", "lease_agreement.pdf", "tax-form-2024.pdf"}},
		{name: "substring", query: "lease", expected: []string{"lease_agreement.pdf"}},
		{name: "case insensitive", query: "TAX", expected: []string{"tax-form-2024.pdf"}},
		{name: "word match", query: "form 2024", expected: []string{"tax-form-2024.pdf"}},
		{name: "no match", query: "invoice", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := search.SearchDirectory(PDFSearchDirectoryRequest{Directory: tempDir, Query: tt.query})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var names []string
			for _, f := range result.Files {
				names = append(names, f.Name)
			}
			sort.Strings(names)

			if len(names) != len(tt.expected) {
				t.Fatalf("expected %v but got %v", tt.expected, names)
			}
			for i := range names {
				if names[i] != tt.expected[i] {
					t.Errorf("expected %v but got %v", tt.expected, names)
				}
			}
			if result.TotalCount != len(tt.expected) {
				t.Errorf("expected total %d but got %d", len(tt.expected), result.TotalCount)
			}
		})
	}
}

func TestSearch_Errors(t *testing.T) {
	search := NewSearch(1024)

	if _, err := search.SearchDirectory(PDFSearchDirectoryRequest{}); err == nil {
		t.Error("expected error for empty directory")
	}
	if _, err := search.SearchDirectory(PDFSearchDirectoryRequest{Directory: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestSearch_FindPDFsInDirectoryLimited(t *testing.T) {
	search := NewSearch(1024)
	tempDir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"} {
		writeFile(t, tempDir, name, []byte("%PDF"))
	}

	files, err := search.FindPDFsInDirectoryLimited(tempDir, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files but got %d", len(files))
	}

	files, err = search.FindPDFsInDirectoryLimited(tempDir, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 4 {
		t.Errorf("expected 4 files but got %d", len(files))
	}
}

func TestMatchesQuery(t *testing.T) {
	tests := []struct {
		filename string
		query    string
		want     bool
	}{
		{"W-9 Request.pdf", "", true},
		{"W-9 Request.pdf", "w-9", true},
		{"W-9 Request.pdf", "request w", true},
		{"W-9 Request.pdf", "invoice", false},
		{"lease.pdf", "pdf", false},
	}

	for _, tt := range tests {
		if got := matchesQuery(tt.filename, tt.query); got != tt.want {
			t.Errorf("matchesQuery(%q, %q) = %v, want %v", tt.filename, tt.query, got, tt.want)
		}
	}
}
