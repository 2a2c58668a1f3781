// ABOUTME: HTTP client for the Dremio REST API.
// ABOUTME: Wraps auth headers, project routing, and response decoding.

package dremio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
)

// APIError carries a non-2xx response from the Dremio API. The body is
// retained so callers can classify the failure.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client talks to one Dremio deployment. Clients are cheap to build
// and are constructed per invocation from the ambient resolved
// settings, so a scoped override is always honored.
type Client struct {
	baseURL      string
	token        string
	projectID    string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewClient builds a client from resolved settings. The settings must
// carry a dremio section; validation guarantees the URI and PAT are
// literal values by this point.
func NewClient(s *config.Settings) (*Client, error) {
	if s == nil || s.Dremio == nil {
		return nil, fmt.Errorf("dremio: no dremio settings configured")
	}
	if s.Dremio.URI == "" || s.Dremio.PAT == "" {
		return nil, fmt.Errorf("dremio: uri and pat are required")
	}
	return &Client{
		baseURL:      s.Dremio.URI,
		token:        s.Dremio.PAT,
		projectID:    s.Dremio.ProjectID,
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		pollInterval: 500 * time.Millisecond,
	}, nil
}

// apiPath returns the versioned API prefix. Cloud projects route
// through /v0/projects/{id}; software deployments use /api/v3.
func (c *Client) apiPath() string {
	if c.projectID != "" {
		return "/v0/projects/" + c.projectID
	}
	return "/api/v3"
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("dremio: encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("dremio: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dremio: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("dremio: reading %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("dremio: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// SplitTablePath splits a dotted table name into its path components.
// Double-quoted components may contain dots: `a."b.c".d` has three
// parts.
func SplitTablePath(name string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(name); i++ {
		switch ch := name[i]; ch {
		case '"':
			if inQuote && i+1 < len(name) && name[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuote = !inQuote
		case '.':
			if inQuote {
				cur.WriteByte('.')
				continue
			}
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// QuoteTablePath renders path components as a dotted name with every
// component double-quoted.
func QuoteTablePath(path []string) string {
	quoted := make([]string, len(path))
	for i, p := range path {
		quoted[i] = `"` + p + `"`
	}
	return strings.Join(quoted, ".")
}
