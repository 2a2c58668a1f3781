// ABOUTME: Tests for the Streamable HTTP transport.
// ABOUTME: Session lifecycle, protocol version checks, body cap, sidecar endpoints.

package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Handler: setupTestHandler(t),
		Metrics: NewMetrics(),
		Version: "1.2.3",
	})
	require.NoError(t, err)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

func postMCP(t *testing.T, ts *httptest.Server, sessionID string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
		req.Header.Set("Mcp-Protocol-Version", latestProtocolVersion)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// initSession runs initialize and returns the assigned session id.
func initSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := postMCP(t, ts, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID := resp.Header.Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID, "initialize must assign a session id")
	return sessionID
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServerSessionLifecycle(t *testing.T) {
	_, ts := setupTestServer(t)
	sessionID := initSession(t, ts)

	// Follow-up requests ride the session.
	resp := postMCP(t, ts, sessionID, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	body := decodeResponse(t, resp)
	require.Nil(t, body["error"], "tools/list error: %v", body["error"])

	// DELETE terminates it.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Mcp-Session-Id", sessionID)
	del, err := ts.Client().Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	// Dead session is gone.
	resp = postMCP(t, ts, sessionID, `{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerSessionProtocolVersion(t *testing.T) {
	t.Run("requested version is kept", func(t *testing.T) {
		srv, ts := setupTestServer(t)
		resp := postMCP(t, ts, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		sess, ok := srv.sessions.get(resp.Header.Get("Mcp-Session-Id"))
		require.True(t, ok)
		assert.Equal(t, "2024-11-05", sess.protocolVersion)
	})

	t.Run("unsupported version falls back to latest", func(t *testing.T) {
		srv, ts := setupTestServer(t)
		resp := postMCP(t, ts, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		sess, ok := srv.sessions.get(resp.Header.Get("Mcp-Session-Id"))
		require.True(t, ok)
		assert.Equal(t, latestProtocolVersion, sess.protocolVersion)
	})

	t.Run("absent params fall back to latest", func(t *testing.T) {
		srv, ts := setupTestServer(t)
		resp := postMCP(t, ts, "", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		sess, ok := srv.sessions.get(resp.Header.Get("Mcp-Session-Id"))
		require.True(t, ok)
		assert.Equal(t, latestProtocolVersion, sess.protocolVersion)
	})
}

func TestServerRequiresSession(t *testing.T) {
	_, ts := setupTestServer(t)
	resp := postMCP(t, ts, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerUnknownSession(t *testing.T) {
	_, ts := setupTestServer(t)
	resp := postMCP(t, ts, "no-such-session", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerRejectsUnsupportedProtocolVersion(t *testing.T) {
	_, ts := setupTestServer(t)
	sessionID := initSession(t, ts)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":2,"method":"ping"}`))
	require.NoError(t, err)
	req.Header.Set("Mcp-Session-Id", sessionID)
	req.Header.Set("Mcp-Protocol-Version", "1999-01-01")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerNotificationReturns202(t *testing.T) {
	_, ts := setupTestServer(t)
	sessionID := initSession(t, ts)

	resp := postMCP(t, ts, sessionID, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestServerBodyCap(t *testing.T) {
	_, ts := setupTestServer(t)
	sessionID := initSession(t, ts)

	big := bytes.Repeat([]byte("x"), MaxRequestBodySize+1)
	resp := postMCP(t, ts, sessionID, string(big))
	body := decodeResponse(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "unexpected response: %v", body)
	assert.Equal(t, "request body too large", errObj["message"])
}

func TestServerInvalidJSON(t *testing.T) {
	_, ts := setupTestServer(t)
	resp := postMCP(t, ts, "", `{not json`)
	body := decodeResponse(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "unexpected response: %v", body)
	assert.Equal(t, float64(JSONRPCParseError), errObj["code"])
}

func TestServerToolCallEndToEnd(t *testing.T) {
	_, ts := setupTestServer(t)
	sessionID := initSession(t, ts)

	resp := postMCP(t, ts, sessionID,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"Echo","arguments":{"message":"hi"}}}`)
	body := decodeResponse(t, resp)
	require.Nil(t, body["error"], "tools/call error: %v", body["error"])
	data, err := json.Marshal(body["result"])
	require.NoError(t, err)
	assert.Contains(t, string(data), `\"hi\"`, "result must carry the echoed message")
}

func TestServerMethodNotAllowed(t *testing.T) {
	_, ts := setupTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerSidecarEndpoints(t *testing.T) {
	_, ts := setupTestServer(t)

	t.Run("health", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/health")
		require.NoError(t, err)
		body := decodeResponse(t, resp)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("info", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/info")
		require.NoError(t, err)
		body := decodeResponse(t, resp)
		assert.Equal(t, "dremio-mcp", body["name"])
		assert.Equal(t, "1.2.3", body["version"])
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
