package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Form Tools
	PDFFormExtractDescription = `List the fillable fields of a PDF form.

**When to use:** Before filling a form, to learn field names, types, current values, options and where each field sits.

**Why it's useful:** Fields repeated on several pages (the same checkbox on page 1 and page 3) are reported once, with usageCount and the sorted list of pages they appear on.

**Examples:**
• Discover a form: "List the fields of lease.pdf"
• Check a dropdown: "Which options does the Country field of application.pdf accept?"

**Common workflows:**
1. Fill: pdf_form_extract → choose values → pdf_form_fill
2. Organize: pdf_form_extract → pdf_categories_set

**Best practices:** Use the exact field names returned here as keys when filling. Results are cached by document content.`

	PDFFormFillDescription = `Fill a PDF form and write the result to the output directory.

**When to use:** You have values for some or all fields of a form and need a completed PDF.

**Why it's useful:** Writes text, checkbox, radio and dropdown values, regenerates their appearance and by default flattens the form so the result is no longer editable.

**Examples:**
• Fill and flatten: "Fill lease.pdf with Name=Alice and Agree=true"
• Keep editable: "Fill lease.pdf but leave the fields interactive" (flatten=false)
• Reuse values: "Fill lease.pdf with template Home"

**Value formats:**
• Checkbox: true, 1 or yes checks; anything else unchecks
• Radio and dropdown: one of the options listed by pdf_form_extract
• Blank values leave a field untouched

**Best practices:** Unknown names and rejected values do not fail the fill; they are listed under skipped. The source file is never overwritten.`

	PDFFormPreviewDescription = `Show each page's text together with the fields placed on it.

**When to use:** To understand what a field means from the text printed next to it, or to review a form page by page.

**Examples:**
• "Show page by page which fields lease.pdf has and the surrounding text"

**Best practices:** Combine with pdf_form_extract when field names are cryptic.`

	PDFValidateFileDescription = `Check that a file is a readable PDF and whether it has fillable fields.

**When to use:** Before processing an unfamiliar file, or to confirm a filled output was flattened.

**Examples:**
• "Is upload.pdf a valid PDF with a form?"
• "Is lease_filled.pdf still editable?"

**Best practices:** A valid PDF without interactive fields reports has_form=false.`

	PDFSearchDirectoryDescription = `Find PDF files by name in the configured directory.

**When to use:** Locating a form before extracting or filling it.

**Examples:**
• "Find forms with 'lease' in the name"

**Best practices:** Leave directory empty to search the configured directory. Hidden directories are skipped.`

	// Template Tools
	PDFTemplateSaveDescription = `Save a named set of field values for reuse.

**When to use:** The same person or company fills many forms with identical values.

**Examples:**
• "Save Name=Alice, Email=alice@example.com as template Home"

**Best practices:** Template values are applied first and explicit values in pdf_form_fill override them.`

	PDFTemplateListDescription = `List saved value templates, oldest first.`

	PDFTemplateDeleteDescription = `Delete a saved value template by id.`

	// Category Tools
	PDFCategoriesGetDescription = `Get the field categories of a form.

**When to use:** Presenting a long form in sections.

**Best practices:** Fields not placed in any category are listed under the default "Uncategorized" category.`

	PDFCategoriesSetDescription = `Replace the field categories of a form.

**When to use:** Grouping fields into sections such as Personal, Address, Signature.

**Best practices:** Category ids must be unique, at most one category may be the default, and every field may appear in at most one category.`

	// Utility Tools
	PDFServerInfoDescription = `Get server status, configuration, available tools and the PDF files in the configured directory.

**When to use:** Starting work with the server or checking where filled forms are written.

**Best practices:** Run at the start of a session.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_form_extract":     PDFFormExtractDescription,
	"pdf_form_fill":        PDFFormFillDescription,
	"pdf_form_preview":     PDFFormPreviewDescription,
	"pdf_validate_file":    PDFValidateFileDescription,
	"pdf_search_directory": PDFSearchDirectoryDescription,
	"pdf_template_save":    PDFTemplateSaveDescription,
	"pdf_template_list":    PDFTemplateListDescription,
	"pdf_template_delete":  PDFTemplateDeleteDescription,
	"pdf_categories_get":   PDFCategoriesGetDescription,
	"pdf_categories_set":   PDFCategoriesSetDescription,
	"pdf_server_info":      PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted names of all tools
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
