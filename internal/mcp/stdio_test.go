// ABOUTME: Tests for the stdio transport loop.
// ABOUTME: Line-delimited request/response pairing and parse errors.

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioServe(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{oops`,
	}, "\n") + "\n"

	var out strings.Builder
	srv, err := NewStdioServer(setupTestHandler(t), slog.Default(), strings.NewReader(input), &out)
	require.NoError(t, err)
	require.NoError(t, srv.Serve(context.Background()))

	// One response per request; the notification and the blank line
	// produce none, the garbage line produces a parse error.
	var responses []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var resp map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp), "invalid response line %q", scanner.Text())
		responses = append(responses, resp)
	}
	require.Len(t, responses, 3)
	assert.Nil(t, responses[0]["error"])
	assert.Nil(t, responses[1]["error"])
	errObj, ok := responses[2]["error"].(map[string]any)
	require.True(t, ok, "last response must be a parse error: %v", responses[2])
	assert.Equal(t, float64(JSONRPCParseError), errObj["code"])
}

func TestStdioServeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"
	var out strings.Builder
	srv, err := NewStdioServer(setupTestHandler(t), slog.Default(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(ctx), context.Canceled)
}
