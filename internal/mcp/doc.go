// Package mcp implements the Model Context Protocol server surface.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration.
// This package provides the transport-neutral JSON-RPC 2.0 handler and
// two transports that expose the Dremio tools to MCP clients such as
// Claude Desktop or Codex.
//
// # Protocol
//
// The handler routes these JSON-RPC methods:
//
//   - initialize / ping
//   - tools/list, tools/call
//   - resources/list, resources/read
//   - prompts/list, prompts/get
//
// tools/list returns only the tools visible under the active
// capability mode; tools/call dispatches through the registry with
// argument validation.
//
// # Transports
//
//   - StdioServer: newline-delimited JSON-RPC over stdin/stdout, the
//     transport desktop clients spawn the server with. Logging must
//     not touch stdout.
//   - Server: Streamable HTTP. A single /mcp endpoint takes JSON-RPC
//     POSTs and session DELETEs, with Mcp-Session-Id assigned on
//     initialize and Mcp-Protocol-Version validated on subsequent
//     requests. Notifications are acknowledged with 202 and no body.
//     Sidecar endpoints /health, /info and (optionally) /metrics sit
//     alongside.
//
// # Usage
//
//	handler, _ := mcp.NewHandler(mcp.HandlerConfig{
//		Dispatcher:    dispatcher,
//		Settings:      settings,
//		PromptBuilder: toolsets.SystemPrompt,
//	})
//	srv, _ := mcp.NewServer(mcp.ServerConfig{Handler: handler})
//	mux := http.NewServeMux()
//	srv.RegisterRoutes(mux)
package mcp
