package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// PDFError is a typed failure raised while extracting or filling a form.
// Fatal kinds abort the whole operation; the rest describe a single field
// that was skipped.
type PDFError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Cause   error     `json:"-"`
}

// ErrorType categorizes form processing errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidDocument
	ErrorTypeNoFieldsDetected
	ErrorTypeSerializationFailed
	ErrorTypeFieldWriteSkipped
	ErrorTypeFieldNotFound
	ErrorTypeInvalidOptionValue
	ErrorTypeUnsupportedControl
	ErrorTypeValueTooLong
)

// Sentinels for errors.Is matching against the fatal kinds.
var (
	ErrInvalidDocument     = &PDFError{Type: ErrorTypeInvalidDocument}
	ErrNoFieldsDetected    = &PDFError{Type: ErrorTypeNoFieldsDetected}
	ErrSerializationFailed = &PDFError{Type: ErrorTypeSerializationFailed}
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Type.defaultMessage()
	}
	if e.Field != "" {
		msg = fmt.Sprintf("field %q: %s", e.Field, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap exposes the underlying cause.
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PDFError of the same type.
func (e *PDFError) Is(target error) bool {
	t, ok := target.(*PDFError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidDocument:
		return "INVALID_DOCUMENT"
	case ErrorTypeNoFieldsDetected:
		return "NO_FIELDS_DETECTED"
	case ErrorTypeSerializationFailed:
		return "SERIALIZATION_FAILED"
	case ErrorTypeFieldWriteSkipped:
		return "FIELD_WRITE_SKIPPED"
	case ErrorTypeFieldNotFound:
		return "FIELD_NOT_FOUND"
	case ErrorTypeInvalidOptionValue:
		return "INVALID_OPTION_VALUE"
	case ErrorTypeUnsupportedControl:
		return "UNSUPPORTED_CONTROL"
	case ErrorTypeValueTooLong:
		return "VALUE_TOO_LONG"
	default:
		return "UNKNOWN"
	}
}

func (et ErrorType) defaultMessage() string {
	switch et {
	case ErrorTypeInvalidDocument:
		return "document could not be decoded as a PDF"
	case ErrorTypeNoFieldsDetected:
		return "no form fields detected"
	case ErrorTypeSerializationFailed:
		return "filled document could not be serialized"
	case ErrorTypeFieldNotFound:
		return "no such field in document"
	case ErrorTypeInvalidOptionValue:
		return "value is not one of the field's options"
	case ErrorTypeUnsupportedControl:
		return "control kind cannot be written"
	case ErrorTypeValueTooLong:
		return "value exceeds the field's maximum length"
	default:
		return "field write skipped"
	}
}

// IsFatal reports whether an error type aborts the whole operation.
func (et ErrorType) IsFatal() bool {
	switch et {
	case ErrorTypeInvalidDocument, ErrorTypeNoFieldsDetected, ErrorTypeSerializationFailed:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:    errorType,
		Message: message,
	}
}

// WrapError wraps a lower level error as a PDFError
func WrapError(errorType ErrorType, err error) *PDFError {
	return &PDFError{
		Type:  errorType,
		Cause: err,
	}
}

// FieldError creates a non-fatal error for a single field.
func FieldError(errorType ErrorType, field, message string) *PDFError {
	return &PDFError{
		Type:    errorType,
		Field:   field,
		Message: message,
	}
}

// InvalidDocument reports bytes that could not be decoded.
func InvalidDocument(err error) *PDFError {
	return WrapError(ErrorTypeInvalidDocument, err)
}

// SerializationFailed reports a document that could not be re-encoded.
func SerializationFailed(err error) *PDFError {
	return WrapError(ErrorTypeSerializationFailed, err)
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var pe *PDFError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}

// UserMessage maps an error to the sentence shown to the person who
// uploaded the document. Corrupt files and field-less files get distinct
// messages.
func UserMessage(err error) string {
	switch TypeOf(err) {
	case ErrorTypeInvalidDocument:
		return "The uploaded file is not a valid PDF document."
	case ErrorTypeNoFieldsDetected:
		return "No form fields detected in this PDF. Please ensure the PDF contains fillable form fields."
	case ErrorTypeSerializationFailed:
		return "Failed to generate the filled PDF."
	default:
		if err == nil {
			return ""
		}
		return "Failed to process PDF: " + err.Error()
	}
}

// ErrorCollection accumulates the non-fatal per-field errors of one fill.
type ErrorCollection struct {
	Errors []*PDFError `json:"errors"`
}

// NewErrorCollection creates an empty error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors: make([]*PDFError, 0),
	}
}

// Add appends an error to the collection
func (ec *ErrorCollection) Add(err *PDFError) {
	if err == nil {
		return
	}
	ec.Errors = append(ec.Errors, err)
}

// Count returns the number of collected errors
func (ec *ErrorCollection) Count() int {
	return len(ec.Errors)
}

// ByType returns the collected errors of one type
func (ec *ErrorCollection) ByType(errorType ErrorType) []*PDFError {
	out := make([]*PDFError, 0)
	for _, err := range ec.Errors {
		if err.Type == errorType {
			out = append(out, err)
		}
	}
	return out
}

// Fields returns the sorted names of all skipped fields
func (ec *ErrorCollection) Fields() []string {
	names := make([]string, 0, len(ec.Errors))
	for _, err := range ec.Errors {
		names = append(names, err.Field)
	}
	sort.Strings(names)
	return names
}

// Summary returns a text summary of the collected errors
func (ec *ErrorCollection) Summary() string {
	if len(ec.Errors) == 0 {
		return "No fields skipped"
	}

	counts := make(map[ErrorType]int)
	for _, err := range ec.Errors {
		counts[err.Type]++
	}

	types := make([]ErrorType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%d %s", counts[t], t))
	}

	return fmt.Sprintf("Skipped %d field(s): %s", len(ec.Errors), strings.Join(parts, ", "))
}
