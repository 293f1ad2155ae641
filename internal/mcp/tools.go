package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/callcampaign-mcp/internal/importer"
	"github.com/dshills/callcampaign-mcp/internal/storage"
	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeCampaignNotFound = -32001 // No campaign with that id, or no active campaign in the area
	ErrorCodeImportInProgress = -32002 // Another import is already running
	ErrorCodeRosterInvalid    = -32003 // Roster file could not be read or parsed
	ErrorCodeEmptyName        = -32004 // No name, first_name or phone fragment was given
	ErrorCodeStoreUnavailable = -32005 // Client store could not be queried
)

// maxReportedErrors caps the entry errors returned by import_clients
const maxReportedErrors = 5

// handleResolveClient handles the resolve_client tool invocation
func (s *Server) handleResolveClient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name := strings.TrimSpace(getStringDefault(args, "name", ""))
	firstName := strings.TrimSpace(getStringDefault(args, "first_name", ""))
	phoneStart := optionalString(args, "phone_start")
	phoneEnd := optionalString(args, "phone_end")
	if name == "" && firstName == "" && phoneStart == nil && phoneEnd == nil {
		return nil, newMCPError(ErrorCodeEmptyName, "name, first_name or a phone fragment is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}

	campaign, err := s.lookupCampaign(ctx, args)
	if err != nil {
		return nil, err
	}

	req := types.SearchRequest{
		Name:               name,
		FirstName:          firstName,
		PhoneFragmentStart: phoneStart,
		PhoneFragmentEnd:   phoneEnd,
		CampaignID:         campaign.ID,
	}

	result, err := s.resolver.Resolve(ctx, req)
	switch {
	case errors.Is(err, types.ErrInvalidRequest):
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search request", map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, types.ErrStoreUnavailable):
		return nil, newMCPError(ErrorCodeStoreUnavailable, "client store unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "resolution failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if !result.IsFound() {
		response := map[string]interface{}{
			"found":       false,
			"pass":        string(types.PassNone),
			"campaign_id": campaign.ID,
			"candidates":  result.Candidates,
			"truncated":   result.Truncated,
			"message":     "no client found",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]interface{}{
		"found":       true,
		"pass":        string(result.Pass),
		"score":       result.Score,
		"campaign_id": campaign.ID,
		"candidates":  result.Candidates,
		"truncated":   result.Truncated,
		"client":      clientPayload(result.Client),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// lookupCampaign resolves campaign_id, falling back to the active campaign
// of area
func (s *Server) lookupCampaign(ctx context.Context, args map[string]interface{}) (*types.Campaign, error) {
	campaignID := getIntDefault(args, "campaign_id", 0)
	area := strings.TrimSpace(getStringDefault(args, "area", ""))

	var (
		campaign *types.Campaign
		err      error
	)
	switch {
	case campaignID > 0:
		campaign, err = s.storage.GetCampaign(ctx, int64(campaignID))
	case area != "":
		campaign, err = s.storage.ActiveCampaign(ctx, area)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "campaign_id or area is required", map[string]interface{}{
			"param":  "campaign_id",
			"reason": "missing",
		})
	}

	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeCampaignNotFound, "campaign not found", map[string]interface{}{
			"campaign_id": campaignID,
			"area":        area,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeStoreUnavailable, "failed to load campaign", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return campaign, nil
}

// handleImportClients handles the import_clients tool invocation
func (s *Server) handleImportClients(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validateRosterPath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	roster, err := importer.LoadRosterFile(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeRosterInvalid, "invalid roster", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stats, err := s.importer.Import(ctx, roster)
	switch {
	case errors.Is(err, importer.ErrImportInProgress):
		return nil, newMCPError(ErrorCodeImportInProgress, "import already in progress", map[string]interface{}{
			"path": path,
		})
	case errors.Is(err, storage.ErrNotFound):
		return nil, newMCPError(ErrorCodeCampaignNotFound, "campaign not found", map[string]interface{}{
			"campaign_id": roster.Campaign.ID,
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "import failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	errorMessages := stats.ErrorMessages
	if len(errorMessages) > maxReportedErrors {
		errorMessages = errorMessages[:maxReportedErrors]
	}

	response := map[string]interface{}{
		"imported":         true,
		"campaign_id":      stats.CampaignID,
		"campaign_created": stats.CampaignCreated,
		"clients_imported": stats.ClientsImported,
		"clients_failed":   stats.ClientsFailed,
		"duration_ms":      stats.Duration.Milliseconds(),
		"errors":           errorMessages,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	campaignID := getIntDefault(args, "campaign_id", 0)
	if campaignID <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "campaign_id parameter is required", map[string]interface{}{
			"param":  "campaign_id",
			"reason": "missing or not positive",
		})
	}

	status, err := s.storage.GetStatus(ctx, int64(campaignID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeCampaignNotFound, "campaign not found", map[string]interface{}{
			"campaign_id": campaignID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	resolutions := make(map[string]interface{})
	for pass, count := range s.metrics.PassCounts() {
		resolutions[string(pass)] = int64(count)
	}

	response := map[string]interface{}{
		"campaign": map[string]interface{}{
			"id":     status.Campaign.ID,
			"name":   status.Campaign.Name,
			"area":   status.Campaign.Area,
			"active": status.Campaign.Active,
		},
		"statistics": map[string]interface{}{
			"clients_count": status.ClientsCount,
			"index_size_mb": fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"schema_version":      status.Health.SchemaVersion,
		},
		"resolutions": resolutions,
		"importing":   s.importer.Importing(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// clientPayload renders a client for tool responses. Absent names are null.
func clientPayload(c *types.Client) map[string]interface{} {
	return map[string]interface{}{
		"id":        c.ID,
		"name":      c.Name,
		"firstname": c.Firstname,
		"phone":     c.Phone,
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateRosterPath checks that path names a readable regular file
func validateRosterPath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if info.IsDir() {
		return ErrPathIsDirectory
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// optionalString returns a pointer to a non-blank string parameter
func optionalString(args map[string]interface{}, key string) *string {
	val, ok := args[key].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return nil
	}
	return &val
}

// Validation helpers
var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrPathIsDirectory = errors.New("path is a directory")
)
