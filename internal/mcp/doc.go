// Package mcp implements the Model Context Protocol (MCP) server for campaign
// client resolution.
//
// The server exposes three tools to call-handling agents:
//   - resolve_client: Identify the client a caller is talking about
//   - import_clients: Load a YAML roster into a campaign
//   - get_status: Report client counts and resolution statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. The server reads
// requests from stdin and writes responses to stdout, so nothing else may
// write to stdout while it runs:
//
//	campaignd serve
//
// # Tool: resolve_client
//
//	Request:
//	{
//	  "name": "resolve_client",
//	  "arguments": {
//	    "area": "north",
//	    "name": "ZAIKA",
//	    "first_name": "Romane",
//	    "phone_start": "+3313"
//	  }
//	}
//
//	Response:
//	{
//	  "found": true,
//	  "pass": "fuzzy",
//	  "score": 1.6666666666666667,
//	  "campaign_id": 1,
//	  "candidates": 2,
//	  "truncated": false,
//	  "client": {"id": 7, "name": "ZRAIKA", "firstname": "Romane", "phone": "+33134567890"}
//	}
//
// campaign_id selects the campaign directly; without it the active campaign
// of area is used. A lookup that finds nobody is not an error: the response
// carries "found": false and the message "no client found".
//
// # Tool: import_clients
//
//	Request:
//	{
//	  "name": "import_clients",
//	  "arguments": {"path": "/srv/rosters/spring.yaml"}
//	}
//
// The response reports imported and failed entries and the first few entry
// errors. Only one import runs at a time.
//
// # Tool: get_status
//
//	Request:
//	{
//	  "name": "get_status",
//	  "arguments": {"campaign_id": 1}
//	}
//
// The response holds the campaign, its client count, store health and the
// number of resolutions per pass since startup.
//
// # Error Codes
//
//	-32602  Invalid parameters
//	-32603  Internal error
//	-32001  Campaign not found
//	-32002  Import already in progress
//	-32003  Roster file invalid
//	-32004  No name, first_name or phone fragment given
//	-32005  Client store unavailable
package mcp
