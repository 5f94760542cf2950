package pdf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/inspect"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/preview"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-forms/internal/store"
)

const (
	filledSuffix   = "_filled.pdf"
	outputFilePerm = 0o600
	outputDirPerm  = 0o750
)

// Options configures a Service
type Options struct {
	MaxFileSize     int64
	Directory       string
	OutputDirectory string
	CacheSize       int
	Flatten         bool
	Debug           bool
	// Store backs templates, categories and the session. Nil uses an
	// in-memory store.
	Store store.KV
}

// Service handles PDF form operations by orchestrating the form components
type Service struct {
	maxFileSize int64
	flatten     bool
	debugMode   bool

	validator *Validator
	search    *Search
	cache     *ResultCache
	extractor *forms.Extractor
	filler    *forms.Filler

	inputPaths  *security.PathValidator
	outputPaths *security.PathValidator

	templates  *store.Templates
	categories *store.Categories
	sessions   *store.Sessions
}

// NewService creates a new PDF service with all components
func NewService(opts Options) (*Service, error) {
	if opts.Directory == "" {
		return nil, fmt.Errorf("PDF directory cannot be empty")
	}
	if opts.OutputDirectory == "" {
		opts.OutputDirectory = filepath.Join(opts.Directory, "filled")
	}

	inputPaths, err := security.NewPathValidator(opts.Directory, opts.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	outputPaths, err := security.NewPathValidator(opts.OutputDirectory, opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	kv := opts.Store
	if kv == nil {
		kv = store.NewMemoryKV()
	}

	return &Service{
		maxFileSize: opts.MaxFileSize,
		flatten:     opts.Flatten,
		debugMode:   opts.Debug,
		validator:   NewValidator(opts.MaxFileSize),
		search:      NewSearch(opts.MaxFileSize),
		cache:       NewResultCache(opts.CacheSize),
		extractor:   forms.NewExtractor(opts.Debug),
		filler:      forms.NewFiller(opts.Debug),
		inputPaths:  inputPaths,
		outputPaths: outputPaths,
		templates:   store.NewTemplates(kv),
		categories:  store.NewCategories(kv),
		sessions:    store.NewSessions(kv),
	}, nil
}

// PDFFormExtract lists the deduplicated fields of a form
func (s *Service) PDFFormExtract(req PDFFormExtractRequest) (*PDFFormExtractResult, error) {
	path, data, err := s.load(req.Path)
	if err != nil {
		return nil, err
	}

	result, cached, err := s.parse(data, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	session := store.Session{
		FileName: filepath.Base(path),
		FilePath: path,
		FileSize: int64(len(data)),
		Result:   result,
	}
	if err := s.sessions.Save(session); err != nil && s.debugMode {
		log.Printf("Failed to save session for %s: %v", path, err)
	}

	return &PDFFormExtractResult{
		Path:   path,
		Result: result,
		Cached: cached,
	}, nil
}

// PDFFormFill fills a form and writes the result below the output directory.
// Values from a named template are applied first and explicit values win.
func (s *Service) PDFFormFill(req PDFFormFillRequest) (*PDFFormFillResult, error) {
	path, data, err := s.load(req.Path)
	if err != nil {
		return nil, err
	}

	values, err := s.mergeValues(req.Template, req.Values)
	if err != nil {
		return nil, err
	}

	outputPath, err := s.outputPath(path, req.OutputPath)
	if err != nil {
		return nil, err
	}

	opts := forms.DefaultFillOptions()
	opts.Flatten = s.flatten
	if req.Flatten != nil {
		opts.Flatten = *req.Flatten
	}

	filled, err := s.filler.FillWithOptions(data, values, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), outputDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, filled.Data, outputFilePerm); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	result := &PDFFormFillResult{
		Path:        path,
		OutputPath:  outputPath,
		Filled:      filled.Filled,
		Flattened:   filled.Flattened,
		Interactive: !filled.Flattened,
	}
	for _, skipped := range filled.Skipped.Errors {
		result.Skipped = append(result.Skipped, skipped.Error())
	}

	if report, err := inspect.Inspect(filled.Data); err == nil {
		result.Interactive = report.Interactive()
	} else if s.debugMode {
		log.Printf("Failed to inspect %s: %v", outputPath, err)
	}

	return result, nil
}

// PDFFormPreview returns the per-page text and field placement of a form
func (s *Service) PDFFormPreview(req PDFFormPreviewRequest) (*PDFFormPreviewResult, error) {
	path, data, err := s.load(req.Path)
	if err != nil {
		return nil, err
	}

	result, _, err := s.parse(data, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	overlay, err := preview.Build(data, result)
	if err != nil {
		return nil, fmt.Errorf("failed to build preview: %w", err)
	}

	return &PDFFormPreviewResult{Path: path, Overlay: overlay}, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.inputPaths.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(path)
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.inputPaths.Roots()[0]
	}

	dir, err := s.inputPaths.Resolve(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Directory = dir

	return s.search.SearchDirectory(req)
}

// PDFTemplateSave stores a named set of field values
func (s *Service) PDFTemplateSave(req PDFTemplateSaveRequest) (*store.Template, error) {
	return s.templates.Save(req.Name, req.DocumentName, req.Values)
}

// PDFTemplateList returns all saved templates
func (s *Service) PDFTemplateList() (*PDFTemplateListResult, error) {
	templates, err := s.templates.List()
	if err != nil {
		return nil, err
	}
	return &PDFTemplateListResult{Templates: templates, Total: len(templates)}, nil
}

// PDFTemplateDelete removes a template
func (s *Service) PDFTemplateDelete(req PDFTemplateDeleteRequest) error {
	return s.templates.Delete(req.ID)
}

// PDFCategoriesGet returns the categories of a form with every field placed
func (s *Service) PDFCategoriesGet(req PDFCategoriesGetRequest) (*PDFCategoriesResult, error) {
	document, names, err := s.fieldNames(req.Path)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.Get(document, names)
	if err != nil {
		return nil, err
	}
	return &PDFCategoriesResult{Document: document, Categories: categories}, nil
}

// PDFCategoriesSet replaces the categories of a form. Every listed field must
// exist in the document.
func (s *Service) PDFCategoriesSet(req PDFCategoriesSetRequest) (*PDFCategoriesResult, error) {
	document, names, err := s.fieldNames(req.Path)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	for _, cat := range req.Categories {
		for _, field := range cat.Fields {
			if !known[field] {
				return nil, fmt.Errorf("category %q lists unknown field %q", cat.ID, field)
			}
		}
	}

	if err := s.categories.Set(document, req.Categories); err != nil {
		return nil, err
	}

	categories, err := s.categories.Get(document, names)
	if err != nil {
		return nil, err
	}
	return &PDFCategoriesResult{Document: document, Categories: categories}, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// CacheStats returns parse cache statistics
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

// load resolves path inside the input roots and reads it under the size limit
func (s *Service) load(path string) (string, []byte, error) {
	resolved, err := s.inputPaths.Resolve(path)
	if err != nil {
		return "", nil, fmt.Errorf("security validation failed: %w", err)
	}

	data, err := s.validator.ReadFile(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, data, nil
}

// parse extracts fields through the cache. The cache is keyed by content
// only, so every call gets its own result titled after filename. Fields are
// shared with the cache and must not be modified.
func (s *Service) parse(data []byte, filename string) (*forms.ParseResult, bool, error) {
	key := DocumentKey(data)
	if result, ok := s.cache.Get(key); ok {
		return titled(result, filename), true, nil
	}

	result, err := s.extractor.Extract(data, filename)
	if err != nil {
		return nil, false, err
	}

	s.cache.Put(key, result)
	return titled(result, filename), false, nil
}

func titled(result *forms.ParseResult, filename string) *forms.ParseResult {
	out := *result
	out.Title = forms.Title(filename)
	return &out
}

func (s *Service) fieldNames(path string) (string, []string, error) {
	resolved, data, err := s.load(path)
	if err != nil {
		return "", nil, err
	}

	result, _, err := s.parse(data, filepath.Base(resolved))
	if err != nil {
		return "", nil, err
	}

	names := make([]string, 0, len(result.Fields))
	for _, f := range result.Fields {
		names = append(names, f.Name)
	}
	return filepath.Base(resolved), names, nil
}

func (s *Service) mergeValues(template string, explicit map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(explicit))

	if strings.TrimSpace(template) != "" {
		tmpl, err := s.templates.Resolve(template)
		if err != nil {
			return nil, err
		}
		for k, v := range tmpl.Fields {
			values[k] = v
		}
	}

	for k, v := range explicit {
		if strings.TrimSpace(v) == "" {
			if _, fromTemplate := values[k]; fromTemplate {
				continue
			}
		}
		values[k] = v
	}
	return values, nil
}

// outputPath resolves the destination of a filled form. The default is
// <output dir>/<name>_filled.pdf; the source file is never overwritten.
func (s *Service) outputPath(input, requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		requested = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + filledSuffix
	}

	resolved, err := s.outputPaths.Resolve(requested)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if !isPDFName(resolved) {
		return "", fmt.Errorf("output file must have a .pdf extension: %s", resolved)
	}
	if resolved == input {
		return "", fmt.Errorf("output path must differ from the source document")
	}
	return resolved, nil
}
