package pdf

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/a3tai/mcp-pdf-forms/internal/descriptions"
)

const (
	// serverInfoFileLimit caps the directory listing in server info
	serverInfoFileLimit = 100
	serverInfoScanLimit = 3 * time.Second
)

// toolUsage lists the parameters of each tool for server info
var toolUsage = []struct {
	name       string
	usage      string
	parameters string
}{
	{"pdf_form_extract", "List the fields of a form", "path (required)"},
	{"pdf_form_fill", "Fill a form and write the result", "path, values (required); output_path, template, flatten (optional)"},
	{"pdf_form_preview", "Show page text with field placement", "path (required)"},
	{"pdf_validate_file", "Validate a PDF and detect its form", "path (required)"},
	{"pdf_search_directory", "Find PDF files by name", "directory, query (optional)"},
	{"pdf_template_save", "Save reusable field values", "name, values (required); document_name (optional)"},
	{"pdf_template_list", "List saved templates", "none"},
	{"pdf_template_delete", "Delete a template", "id (required)"},
	{"pdf_categories_get", "Get field categories of a form", "path (required)"},
	{"pdf_categories_set", "Replace field categories of a form", "path, categories (required)"},
	{"pdf_server_info", "Get server information", "none"},
}

// PDFServerInfo returns server configuration, the available tools and the
// PDF files found in the configured directory.
func (s *Service) PDFServerInfo(ctx context.Context, req PDFServerInfoRequest, serverName, version string) (*PDFServerInfoResult, error) {
	roots := s.inputPaths.Roots()
	directory := roots[0]

	files, err := s.scanDirectory(ctx, directory)
	if err != nil {
		if s.debugMode {
			log.Printf("Failed to list %s: %v", directory, err)
		}
		files = []FileInfo{}
	}

	result := &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  directory,
		OutputDirectory:   s.outputPaths.Roots()[0],
		MaxFileSize:       s.maxFileSize,
		FlattenByDefault:  s.flatten,
		Cache:             s.cache.Stats(),
		AvailableTools:    availableTools(),
		DirectoryContents: files,
		UsageGuidance:     usageGuidance(),
	}

	if session, err := s.sessions.Load(); err == nil {
		result.LastDocument = session.FileName
	}

	return result, nil
}

// scanDirectory lists PDFs below dir, giving up after serverInfoScanLimit
func (s *Service) scanDirectory(ctx context.Context, dir string) ([]FileInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, serverInfoScanLimit)
	defer cancel()

	type scan struct {
		files []FileInfo
		err   error
	}
	done := make(chan scan, 1)

	go func() {
		files, err := s.search.FindPDFsInDirectoryLimited(dir, serverInfoFileLimit)
		done <- scan{files: files, err: err}
	}()

	select {
	case res := <-done:
		if res.files == nil {
			res.files = []FileInfo{}
		}
		return res.files, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("directory scan aborted: %w", ctx.Err())
	}
}

func availableTools() []ToolInfo {
	tools := make([]ToolInfo, 0, len(toolUsage))
	for _, t := range toolUsage {
		tools = append(tools, ToolInfo{
			Name:        t.name,
			Description: descriptions.GetToolDescription(t.name),
			Usage:       t.usage,
			Parameters:  t.parameters,
		})
	}
	return tools
}

func usageGuidance() string {
	return `PDF Forms Server Usage Guide

Typical workflow:
1. pdf_search_directory or pdf_server_info to find a form
2. pdf_form_extract to list its fields, types, options and pages
3. pdf_form_fill with a values object keyed by field name

Filling rules:
- Checkboxes accept true, 1 or yes to check; anything else unchecks
- Radio buttons and dropdowns accept one of the listed options
- Blank values leave a field untouched
- Unknown fields and rejected values are reported as skipped, not as errors
- Output is flattened unless flatten=false; flattened output has no fields

Paths:
- Relative input paths resolve against the default directory
- Relative output paths resolve against the output directory
- Files outside the configured directories are rejected

Templates and categories:
- pdf_template_save stores values; pass template to pdf_form_fill to reuse them
- pdf_categories_get and pdf_categories_set group the fields of a form`
}
