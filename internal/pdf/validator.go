package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf/inspect"
)

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that path is a readable PDF within the size limit and
// reports its page count and whether it carries an interactive form.
func (v *Validator) ValidateFile(path string) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  path,
		Valid: false,
	}

	data, err := v.ReadFile(path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	pages, err := pageCount(data)
	if err != nil {
		result.Message = fmt.Sprintf("invalid PDF file: %v", err)
		return result, nil //nolint:nilerr // Same as above
	}

	result.Valid = true
	result.Pages = pages

	if report, err := inspect.Inspect(data); err == nil {
		result.Report = report
		result.HasForm = report.Interactive()
	}

	return result, nil
}

// ReadFile checks the file metadata and returns its contents. The size limit
// is enforced before any byte is read.
func (v *Validator) ReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(path string) bool {
	data, err := v.ReadFile(path)
	if err != nil {
		return false
	}
	_, err = pageCount(data)
	return err == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !isPDFName(path) {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

func isPDFName(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

func pageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
