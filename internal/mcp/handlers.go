package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf"
	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-forms/internal/store"
)

// toolError turns err into a tool result. Fatal form errors get the
// message shown to end users so corrupt files and files without fields
// read differently.
func toolError(err error) *mcp.CallToolResult {
	if pdferrors.TypeOf(err).IsFatal() {
		return mcp.NewToolResultError(pdferrors.UserMessage(err) + "\n" + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

// stringMap reads an object argument as field values. Non-string values
// such as booleans and numbers are converted to their text form.
func stringMap(args map[string]any, key string) (map[string]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, fmt.Errorf("missing required argument %q", key)
	}
	values, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil, fmt.Errorf("argument %q must be an object of field values: %w", key, err)
	}
	return values, nil
}

func optionalString(args map[string]any, key string) string {
	if v, ok := args[key]; ok && v != nil {
		return cast.ToString(v)
	}
	return ""
}

func optionalBool(args map[string]any, key string) (*bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, fmt.Errorf("argument %q must be a boolean: %w", key, err)
	}
	return &b, nil
}

func jsonText(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("failed to encode result: %v", err)
	}
	return string(data)
}

func (s *Server) handlePDFFormExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFFormExtract(pdf.PDFFormExtractRequest{Path: path})
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatPDFFormExtractResult(result)), nil
}

func (s *Server) handlePDFFormFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	values, err := stringMap(args, "values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flatten, err := optionalBool(args, "flatten")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFFormFill(pdf.PDFFormFillRequest{
		Path:       path,
		Values:     values,
		OutputPath: optionalString(args, "output_path"),
		Template:   optionalString(args, "template"),
		Flatten:    flatten,
	})
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatPDFFormFillResult(result)), nil
}

func (s *Server) handlePDFFormPreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFFormPreview(pdf.PDFFormPreviewRequest{Path: path})
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatPDFFormPreviewResult(result)), nil
}

func (s *Server) handlePDFValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	switch {
	case !result.Valid:
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	case result.HasForm:
		responseText = fmt.Sprintf("PDF file %s is valid (%d pages) and has %d fillable field(s)",
			result.Path, result.Pages, result.Report.InteractiveFields)
	default:
		responseText = fmt.Sprintf("PDF file %s is valid (%d pages) but has no fillable fields", result.Path, result.Pages)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pdf.PDFSearchDirectoryRequest{
		Directory: optionalString(args, "directory"),
		Query:     optionalString(args, "query"),
	}

	result, err := s.pdfService.PDFSearchDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatPDFSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFTemplateSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	values, err := stringMap(args, "values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tmpl, err := s.pdfService.PDFTemplateSave(pdf.PDFTemplateSaveRequest{
		Name:         name,
		DocumentName: optionalString(args, "document_name"),
		Values:       values,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved template %q with %d value(s)\nID: %s",
		tmpl.Name, len(tmpl.Fields), tmpl.ID)), nil
}

func (s *Server) handlePDFTemplateList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFTemplateList()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Total == 0 {
		return mcp.NewToolResultText("No templates saved"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d template(s):\n%s", result.Total, jsonText(result.Templates))), nil
}

func (s *Server) handlePDFTemplateDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.pdfService.PDFTemplateDelete(pdf.PDFTemplateDeleteRequest{ID: id}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted template %s", id)), nil
}

func (s *Server) handlePDFCategoriesGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFCategoriesGet(pdf.PDFCategoriesGetRequest{Path: path})
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatPDFCategoriesResult(result)), nil
}

func (s *Server) handlePDFCategoriesSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, ok := request.GetArguments()["categories"]
	if !ok {
		return mcp.NewToolResultError(`missing required argument "categories"`), nil
	}
	var categories []store.Category
	data, err := json.Marshal(raw)
	if err == nil {
		err = json.Unmarshal(data, &categories)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid categories: %v", err)), nil
	}

	result, err := s.pdfService.PDFCategoriesSet(pdf.PDFCategoriesSetRequest{Path: path, Categories: categories})
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatPDFCategoriesResult(result)), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, pdf.PDFServerInfoRequest{}, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatPDFFormExtractResult(result *pdf.PDFFormExtractResult) string {
	text := fmt.Sprintf("Form fields of %s\n", result.Path)
	text += fmt.Sprintf("Pages: %d\n", result.Result.PageCount)
	text += fmt.Sprintf("Fields: %d\n", len(result.Result.Fields))
	if result.Cached {
		text += "(from cache)\n"
	}

	text += "\n"
	for i, f := range result.Result.Fields {
		text += fmt.Sprintf("%d. %s [%s]", i+1, f.Name, f.Type)
		if f.Required {
			text += " required"
		}
		text += fmt.Sprintf(" page %d", f.Page)
		if f.UsageCount > 1 {
			text += fmt.Sprintf(" (%d widgets on pages %s)", f.UsageCount, joinInts(f.Pages))
		}
		if f.Value != "" {
			text += fmt.Sprintf(" = %q", f.Value)
		}
		if len(f.Options) > 0 {
			text += fmt.Sprintf(" options: %s", strings.Join(f.Options, ", "))
		}
		text += "\n"
	}

	text += "\nJSON:\n" + jsonText(result.Result)
	return text
}

func (s *Server) formatPDFFormFillResult(result *pdf.PDFFormFillResult) string {
	text := fmt.Sprintf("Filled %d field(s) of %s\n", result.Filled, result.Path)
	text += fmt.Sprintf("Output: %s\n", result.OutputPath)
	text += fmt.Sprintf("Flattened: %t\n", result.Flattened)
	text += fmt.Sprintf("Interactive: %t\n", result.Interactive)

	if len(result.Skipped) > 0 {
		text += fmt.Sprintf("\nSkipped %d value(s):\n", len(result.Skipped))
		for _, skipped := range result.Skipped {
			text += fmt.Sprintf("  • %s\n", skipped)
		}
	}
	return text
}

func (s *Server) formatPDFFormPreviewResult(result *pdf.PDFFormPreviewResult) string {
	text := fmt.Sprintf("Preview of %s (%d pages)\n", result.Path, result.Overlay.PageCount)

	for _, page := range result.Overlay.Pages {
		text += fmt.Sprintf("\n--- Page %d ---\n", page.Page)
		if page.Error != "" {
			text += fmt.Sprintf("(text unavailable: %s)\n", page.Error)
		} else if page.Text != "" {
			text += page.Text + "\n"
		}
		if len(page.Fields) > 0 {
			text += "Fields:\n"
			for _, f := range page.Fields {
				text += fmt.Sprintf("  • %s [%s] at (%.0f, %.0f) %.0fx%.0f\n",
					f.Name, f.Type, f.Rect.X, f.Rect.Y, f.Rect.Width, f.Rect.Height)
			}
		}
	}
	return text
}

func (s *Server) formatPDFSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatPDFCategoriesResult(result *pdf.PDFCategoriesResult) string {
	text := fmt.Sprintf("Categories of %s\n", result.Document)
	for _, cat := range result.Categories {
		text += fmt.Sprintf("\n%s (%s)", cat.Name, cat.ID)
		if cat.IsDefault {
			text += " default"
		}
		text += "\n"
		for _, f := range cat.Fields {
			text += fmt.Sprintf("  • %s\n", f)
		}
	}
	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📤 Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🗜️  Flatten by default: %t\n", result.FlattenByDefault)
	text += fmt.Sprintf("🧠 Parse cache: %d/%d entries, %.0f%% hit rate\n",
		result.Cache.Size, result.Cache.Capacity, result.Cache.HitRate)
	if result.LastDocument != "" {
		text += fmt.Sprintf("🕘 Last document: %s\n", result.LastDocument)
	}
	text += "\n"

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("  • %s: %s\n", tool.Name, tool.Usage)
		text += fmt.Sprintf("    Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
