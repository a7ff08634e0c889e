// Package mcpgo exposes allergen scans as Model Context Protocol tools.
package mcpgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
	"github.com/allergenapp/backend/internal/usecase"
)

const maxHistoryLimit = 50

// HistoryResponse is the structured result of scan_history
type HistoryResponse struct {
	UserID  string                `json:"userId"`
	Count   int                   `json:"count"`
	Entries []domain.HistoryEntry `json:"entries"`
}

// Server serves scan tools for a single user over MCP
type Server struct {
	mcpServer *server.MCPServer
	scans     *usecase.ScanService
	ledger    *usecase.HistoryLedger
	userID    string
	log       *zap.Logger
}

// NewServer creates an MCP server whose tools act on behalf of userID
func NewServer(scans *usecase.ScanService, ledger *usecase.HistoryLedger, userID string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		"AllergenApp MCP Server",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		mcpServer: mcpServer,
		scans:     scans,
		ledger:    ledger,
		userID:    userID,
		log:       logger,
	}
	s.addTools()
	return s
}

func (s *Server) addTools() {
	barcodeTool := mcp.NewTool("scan_barcode",
		mcp.WithDescription("Look a product up by barcode (UPC/EAN) and check it against the user's allergens"),
		mcp.WithString("barcode",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("The barcode to scan"),
		),
		mcp.WithOutputSchema[domain.Verdict](),
	)
	s.mcpServer.AddTool(barcodeTool, s.handleScanBarcode)

	searchTool := mcp.NewTool("search_product",
		mcp.WithDescription("Find a product by name and check it against the user's allergens"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Product name to search for"),
		),
		mcp.WithOutputSchema[domain.Verdict](),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchProduct)

	historyTool := mcp.NewTool("scan_history",
		mcp.WithDescription("List the user's most recent scan verdicts, newest first"),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of entries (default: %d, max: %d)", s.ledger.DisplayLimit(), maxHistoryLimit)),
			mcp.Min(1),
			mcp.Max(maxHistoryLimit),
		),
		mcp.WithOutputSchema[HistoryResponse](),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcpServer.AddTool(historyTool, s.handleScanHistory)
}

func (s *Server) handleScanBarcode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	barcode, err := request.RequireString("barcode")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'barcode': %v", err)), nil
	}

	verdict, err := s.scans.ScanBarcode(ctx, s.userID, barcode)
	if err != nil {
		return s.toolError("scan_barcode", err), nil
	}
	return structured(verdict, verdict.Message)
}

func (s *Server) handleSearchProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'query': %v", err)), nil
	}

	verdict, err := s.scans.SearchProduct(ctx, s.userID, query)
	if err != nil {
		return s.toolError("search_product", err), nil
	}
	return structured(verdict, verdict.Message)
}

func (s *Server) handleScanHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", float64(s.ledger.DisplayLimit())))
	if limit <= 0 {
		limit = s.ledger.DisplayLimit()
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := s.ledger.Recent(ctx, s.userID, limit)
	if err != nil {
		return s.toolError("scan_history", err), nil
	}

	response := HistoryResponse{UserID: s.userID, Count: len(entries), Entries: entries}
	return structured(response, fmt.Sprintf("%d recent scans", len(entries)))
}

// toolError reports failures to the client as tool errors, not protocol errors
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.log.Warn("tool call failed", zap.String("tool", tool), zap.String("user_id", s.userID), zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("No allergen profile for user %q. Set allergens first.", s.userID))
	case errors.Is(err, domain.ErrAcquisitionFailed):
		return mcp.NewToolResultError("Error fetching data.")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func structured(response any, summary string) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultStructured(response, summary+"\n"+string(data)), nil
}

// ServeStdio runs the server on stdin/stdout
func (s *Server) ServeStdio() error {
	s.log.Info("Starting MCP server in stdio mode", zap.String("user_id", s.userID))
	return server.ServeStdio(s.mcpServer)
}
