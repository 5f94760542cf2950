package pdf

import (
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/inspect"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/preview"
	"github.com/a3tai/mcp-pdf-forms/internal/store"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// PDFFormExtractRequest represents a request to list the fields of a form
type PDFFormExtractRequest struct {
	Path string `json:"path"`
}

// PDFFormFillRequest represents a request to fill a form and write the result.
// Values override those of Template. A nil Flatten uses the server default.
type PDFFormFillRequest struct {
	Path       string            `json:"path"`
	Values     map[string]string `json:"values"`
	OutputPath string            `json:"output_path,omitempty"`
	Template   string            `json:"template,omitempty"`
	Flatten    *bool             `json:"flatten,omitempty"`
}

// PDFFormPreviewRequest represents a request for a per-page field overlay
type PDFFormPreviewRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// PDFTemplateSaveRequest represents a request to store a named value set
type PDFTemplateSaveRequest struct {
	Name         string            `json:"name"`
	DocumentName string            `json:"document_name,omitempty"`
	Values       map[string]string `json:"values"`
}

// PDFTemplateDeleteRequest represents a request to remove a template
type PDFTemplateDeleteRequest struct {
	ID string `json:"id"`
}

// PDFCategoriesGetRequest represents a request for the categories of a form
type PDFCategoriesGetRequest struct {
	Path string `json:"path"`
}

// PDFCategoriesSetRequest represents a request to replace the categories of a form
type PDFCategoriesSetRequest struct {
	Path       string           `json:"path"`
	Categories []store.Category `json:"categories"`
}

// PDFServerInfoRequest represents a request to get server information and capabilities
type PDFServerInfoRequest struct {
	// No parameters needed for server info
}

// Response Types

// PDFFormExtractResult represents the fields found in a form
type PDFFormExtractResult struct {
	Path   string             `json:"path"`
	Result *forms.ParseResult `json:"result"`
	Cached bool               `json:"cached"`
}

// PDFFormFillResult represents the outcome of a fill operation
type PDFFormFillResult struct {
	Path        string   `json:"path"`
	OutputPath  string   `json:"output_path"`
	Filled      int      `json:"filled"`
	Skipped     []string `json:"skipped,omitempty"`
	Flattened   bool     `json:"flattened"`
	Interactive bool     `json:"interactive"`
}

// PDFFormPreviewResult represents the per-page overlay of a form
type PDFFormPreviewResult struct {
	Path    string           `json:"path"`
	Overlay *preview.Overlay `json:"overlay"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool            `json:"valid"`
	Path    string          `json:"path"`
	Message string          `json:"message,omitempty"`
	Pages   int             `json:"pages,omitempty"`
	HasForm bool            `json:"has_form"`
	Report  *inspect.Report `json:"report,omitempty"`
}

// PDFSearchDirectoryResult represents the result of a PDF search operation
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// PDFTemplateListResult represents the stored templates
type PDFTemplateListResult struct {
	Templates []store.Template `json:"templates"`
	Total     int              `json:"total"`
}

// PDFCategoriesResult represents the categories of a form
type PDFCategoriesResult struct {
	Document   string           `json:"document"`
	Categories []store.Category `json:"categories"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	OutputDirectory   string     `json:"output_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	FlattenByDefault  bool       `json:"flatten_by_default"`
	Cache             CacheStats `json:"cache"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	LastDocument      string     `json:"last_document,omitempty"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
