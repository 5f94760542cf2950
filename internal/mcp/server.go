package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-forms/internal/config"
	"github.com/a3tai/mcp-pdf-forms/internal/descriptions"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pathParam := mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the PDF form, absolute or relative to the configured directory"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_form_extract",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_extract")),
		pathParam,
	), s.handlePDFFormExtract)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_form_fill",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_fill")),
		pathParam,
		mcp.WithObject("values",
			mcp.Required(),
			mcp.Description("Field values keyed by field name"),
		),
		mcp.WithString("output_path",
			mcp.Description("Where to write the filled PDF (default <output dir>/<name>_filled.pdf)"),
		),
		mcp.WithString("template",
			mcp.Description("Template id or name whose values are applied before values"),
		),
		mcp.WithBoolean("flatten",
			mcp.Description("Flatten the filled form (server default when omitted)"),
		),
	), s.handlePDFFormFill)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_form_preview",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_preview")),
		pathParam,
	), s.handlePDFFormPreview)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		pathParam,
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_search_directory",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_search_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query matched against file names"),
		),
	), s.handlePDFSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_template_save",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_template_save")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Template name"),
		),
		mcp.WithObject("values",
			mcp.Required(),
			mcp.Description("Field values keyed by field name"),
		),
		mcp.WithString("document_name",
			mcp.Description("Document the values were taken from"),
		),
	), s.handlePDFTemplateSave)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_template_list",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_template_list")),
	), s.handlePDFTemplateList)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_template_delete",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_template_delete")),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Template id"),
		),
	), s.handlePDFTemplateDelete)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_categories_get",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_categories_get")),
		pathParam,
	), s.handlePDFCategoriesGet)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_categories_set",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_categories_set")),
		pathParam,
		mcp.WithArray("categories",
			mcp.Required(),
			mcp.Description("Categories as objects with id, name, fields and isDefault"),
		),
	), s.handlePDFCategoriesSet)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	), s.handlePDFServerInfo)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF forms MCP server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sseServer := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting PDF forms MCP server on %s (SSE)", addr)
		errCh <- sseServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Printf("Shutting down SSE server")
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
