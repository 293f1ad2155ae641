package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// resolveClientTool returns the tool definition for resolve_client
func resolveClientTool() mcp.Tool {
	return mcp.Tool{
		Name:        "resolve_client",
		Description: "Identify the campaign client a caller is talking about from a name, a first name and phone fragments, at least one of which is required",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "integer",
					"description": "Campaign to search. Defaults to the active campaign of area",
					"minimum":     1,
				},
				"area": map[string]interface{}{
					"type":        "string",
					"description": "Area whose active campaign is searched when campaign_id is omitted",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Client last name as heard on the call",
				},
				"first_name": map[string]interface{}{
					"type":        "string",
					"description": "Client first name as heard on the call",
				},
				"phone_start": map[string]interface{}{
					"type":        "string",
					"description": "Leading digits of the client phone, matched literally",
				},
				"phone_end": map[string]interface{}{
					"type":        "string",
					"description": "Trailing digits of the client phone, matched literally",
				},
			},
		},
	}
}

// importClientsTool returns the tool definition for import_clients
func importClientsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "import_clients",
		Description: "Load a YAML client roster into a campaign",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the roster file",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Get client counts for a campaign and resolution statistics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "integer",
					"description": "Campaign to report on",
					"minimum":     1,
				},
			},
			Required: []string{"campaign_id"},
		},
	}
}
