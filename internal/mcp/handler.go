// ABOUTME: Transport-neutral JSON-RPC method handler for MCP.
// ABOUTME: Maps dispatcher errors onto protocol errors and results.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
	"github.com/dremio-contrib/dremio-mcp/internal/tools"
)

// systemPromptName is the one prompt the server registers.
const systemPromptName = "system_prompt"

// HandlerConfig wires the protocol handler to the tool layer.
type HandlerConfig struct {
	Dispatcher *tools.Dispatcher
	Settings   *config.Settings
	// PromptBuilder renders the system prompt for a registry
	// snapshot.
	PromptBuilder func(*tools.Snapshot) string
	Logger        *slog.Logger
	Metrics       *Metrics
	// Version is reported in serverInfo.
	Version string
}

// Handler serves MCP methods independent of transport. Both the stdio
// loop and the HTTP server delegate here.
type Handler struct {
	dispatcher    *tools.Dispatcher
	settings      *config.Settings
	promptBuilder func(*tools.Snapshot) string
	logger        *slog.Logger
	metrics       *Metrics
	version       string
}

// NewHandler validates the wiring and builds a handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.Settings == nil {
		return nil, errors.New("settings are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		dispatcher:    cfg.Dispatcher,
		settings:      cfg.Settings,
		promptBuilder: cfg.PromptBuilder,
		logger:        logger,
		metrics:       cfg.Metrics,
		version:       version,
	}, nil
}

// Handle routes one JSON-RPC request. Notifications return nil; every
// other request returns a response, error or not.
func (h *Handler) Handle(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version", nil)
	}
	if req.IsNotification() {
		h.logger.Debug("accepted notification", "method", req.Method)
		return nil
	}

	h.metrics.observeRequest(req.Method)

	// Ambient settings for everything downstream of this request.
	ctx = config.WithSettings(ctx, h.settings)

	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return h.handleToolsList(ctx, req)
	case "tools/call":
		return h.handleToolsCall(ctx, req)
	case "resources/list":
		return h.handleResourcesList(ctx, req)
	case "resources/read":
		return h.handleResourcesRead(ctx, req)
	case "prompts/list":
		return h.handlePromptsList(req)
	case "prompts/get":
		return h.handlePromptsGet(ctx, req)
	default:
		return errorResponse(req.ID, JSONRPCMethodNotFound, "method not found", nil)
	}
}

func (h *Handler) handleInitialize(req *JSONRPCRequest) *JSONRPCResponse {
	var params InitializeParams
	if len(req.Params) > 0 {
		_ = json.Unmarshal(req.Params, &params)
	}
	result := map[string]any{
		"protocolVersion": negotiateProtocolVersion(params.ProtocolVersion),
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "dremio-mcp",
			"version": h.version,
		},
	}
	return resultResponse(req.ID, result)
}

func (h *Handler) snapshot(ctx context.Context) (*tools.Snapshot, error) {
	return h.dispatcher.Snapshot(ctx)
}

func (h *Handler) handleToolsList(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	snap, err := h.snapshot(ctx)
	if err != nil {
		return errorResponse(req.ID, JSONRPCInternalError, err.Error(), nil)
	}

	visible := snap.Tools()
	result := ListToolsResult{Tools: make([]ToolInfo, len(visible))}
	for i, def := range visible {
		result.Tools[i] = ToolInfo{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema(),
		}
	}

	h.logger.Debug("tools/list", "count", len(visible))
	return resultResponse(req.ID, result)
}

func (h *Handler) handleToolsCall(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, JSONRPCInvalidParams, "invalid params", nil)
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, JSONRPCInvalidParams, "tool name is required", nil)
	}

	var args map[string]any
	if len(params.Arguments) > 0 && string(params.Arguments) != "null" {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return errorResponse(req.ID, JSONRPCInvalidParams, "arguments must be an object", nil)
		}
	}

	start := time.Now()
	result, err := h.dispatcher.Dispatch(ctx, params.Name, args)
	elapsed := time.Since(start)
	if err != nil {
		h.metrics.observeToolCall(params.Name, "error", elapsed)
		return h.toolCallError(req.ID, params.Name, err)
	}
	h.metrics.observeToolCall(params.Name, "ok", elapsed)

	text, err := result.JSON()
	if err != nil {
		return errorResponse(req.ID, JSONRPCInternalError, err.Error(), nil)
	}
	return resultResponse(req.ID, CallToolResult{
		Content: []Content{{Type: "text", Text: text}},
	})
}

// toolCallError maps dispatcher failures onto the protocol. Lookup and
// validation problems are invalid-params errors; execution failures
// are tool results flagged isError so the calling agent can read and
// react to them.
func (h *Handler) toolCallError(id json.RawMessage, tool string, err error) *JSONRPCResponse {
	var verr *config.ValidationError
	switch {
	case errors.Is(err, tools.ErrToolNotFound):
		return errorResponse(id, JSONRPCInvalidParams, "tool not found", nil)
	case errors.As(err, &verr):
		data := make([]string, len(verr.Violations))
		for i, v := range verr.Violations {
			data[i] = v.Field + ": " + v.Message
		}
		return errorResponse(id, JSONRPCInvalidParams, "invalid arguments", data)
	case errors.Is(err, context.Canceled):
		return errorResponse(id, JSONRPCInternalError, "request cancelled", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return errorResponse(id, JSONRPCInternalError, "tool execution timed out", nil)
	}

	var eerr *tools.ExecutionError
	if errors.As(err, &eerr) {
		h.logger.Warn("tool execution failed",
			"tool", tool,
			"category", string(eerr.Category),
			"error", eerr.Err,
		)
		return resultResponse(id, CallToolResult{
			Content: []Content{{
				Type: "text",
				Text: fmt.Sprintf("%s: %v", eerr.Category, eerr.Err),
			}},
			IsError: true,
		})
	}
	return errorResponse(id, JSONRPCInternalError, "tool execution failed", nil)
}

func (h *Handler) handleResourcesList(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	snap, err := h.snapshot(ctx)
	if err != nil {
		return errorResponse(req.ID, JSONRPCInternalError, err.Error(), nil)
	}

	visible := snap.Resources()
	result := ListResourcesResult{Resources: make([]ResourceInfo, len(visible))}
	for i, def := range visible {
		result.Resources[i] = ResourceInfo{
			URI:         def.ResourceURI,
			Name:        def.Name,
			Description: def.Description,
			MimeType:    "text/plain",
		}
	}
	return resultResponse(req.ID, result)
}

func (h *Handler) handleResourcesRead(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params ReadResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return errorResponse(req.ID, JSONRPCInvalidParams, "resource uri is required", nil)
	}

	snap, err := h.snapshot(ctx)
	if err != nil {
		return errorResponse(req.ID, JSONRPCInternalError, err.Error(), nil)
	}
	def, ok := snap.Resource(params.URI)
	if !ok {
		return errorResponse(req.ID, JSONRPCInvalidParams, "resource not found", nil)
	}

	content, err := def.Handler(ctx, nil)
	if err != nil {
		return errorResponse(req.ID, JSONRPCInternalError, err.Error(), nil)
	}
	text, ok := content.(string)
	if !ok {
		data, merr := json.Marshal(content)
		if merr != nil {
			return errorResponse(req.ID, JSONRPCInternalError, merr.Error(), nil)
		}
		text = string(data)
	}

	return resultResponse(req.ID, ReadResourceResult{
		Contents: []ResourceContents{{
			URI:      params.URI,
			MimeType: "text/plain",
			Text:     text,
		}},
	})
}

func (h *Handler) handlePromptsList(req *JSONRPCRequest) *JSONRPCResponse {
	if h.promptBuilder == nil {
		return resultResponse(req.ID, ListPromptsResult{Prompts: []PromptInfo{}})
	}
	return resultResponse(req.ID, ListPromptsResult{Prompts: []PromptInfo{{
		Name:        systemPromptName,
		Description: "System prompt introducing the available Dremio analysis tools",
	}}})
}

func (h *Handler) handlePromptsGet(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params GetPromptParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, JSONRPCInvalidParams, "prompt name is required", nil)
	}
	if h.promptBuilder == nil || params.Name != systemPromptName {
		return errorResponse(req.ID, JSONRPCInvalidParams, "prompt not found", nil)
	}

	snap, err := h.snapshot(ctx)
	if err != nil {
		return errorResponse(req.ID, JSONRPCInternalError, err.Error(), nil)
	}
	return resultResponse(req.ID, GetPromptResult{
		Messages: []PromptMessage{{
			Role:    "user",
			Content: Content{Type: "text", Text: h.promptBuilder(snap)},
		}},
	})
}

func resultResponse(id json.RawMessage, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string, data any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message, Data: data},
	}
}
