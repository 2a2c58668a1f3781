// ABOUTME: Stdio transport for the MCP server.
// ABOUTME: Reads newline-delimited JSON-RPC from stdin, writes responses to stdout.

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// StdioServer serves MCP over stdin/stdout with newline-delimited
// JSON-RPC messages. This is the transport desktop MCP clients spawn
// the server with.
type StdioServer struct {
	handler *Handler
	logger  *slog.Logger
	in      io.Reader
	out     io.Writer
}

// NewStdioServer creates a stdio transport around a protocol handler.
// Logging must go to a file or stderr; stdout carries only JSON-RPC.
func NewStdioServer(handler *Handler, logger *slog.Logger, in io.Reader, out io.Writer) (*StdioServer, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioServer{handler: handler, logger: logger, in: in, out: out}, nil
}

// Serve reads requests until stdin closes or the context is cancelled.
func (s *StdioServer) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxRequestBodySize)
	enc := json.NewEncoder(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			if err := enc.Encode(errorResponse(nil, JSONRPCParseError, "invalid JSON", nil)); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
			continue
		}

		s.logger.Debug("MCP request", "method", req.Method)

		resp := s.handler.Handle(ctx, &req)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	return nil
}
