// ABOUTME: Client for the Prometheus HTTP query API.
// ABOUTME: Range queries, metric label schemas, and label values.

package promql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dremio-contrib/dremio-mcp/internal/config"
)

// Client queries one Prometheus-compatible endpoint (VictoriaMetrics
// in the managed deployments).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client from resolved settings; the prometheus
// section must be configured.
func NewClient(s *config.Settings) (*Client, error) {
	if s == nil || s.Prometheus == nil {
		return nil, fmt.Errorf("promql: no prometheus settings configured")
	}
	return &Client{
		baseURL:    s.Prometheus.URI,
		token:      s.Prometheus.Token,
		httpClient: &http.Client{Timeout: time.Minute},
	}, nil
}

// Series is one time series: its label set and sampled values.
type Series struct {
	Metric map[string]string `json:"metric"`
	Values [][2]any          `json:"values,omitempty"`
	Value  [2]any            `json:"value,omitempty"`
}

// Name returns the series' __name__ label.
func (s *Series) Name() string {
	return s.Metric["__name__"]
}

// Labels returns the label set without the reserved __-prefixed keys,
// rendered as k=v pairs.
func (s *Series) Labels() string {
	var pairs []string
	for k, v := range s.Metric {
		if strings.HasPrefix(k, "__") {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// QueryError is an error the query engine itself reported, as opposed
// to a transport failure reaching it.
type QueryError struct {
	ErrorType string
	Message   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("promql: query failed (%s): %s", e.ErrorType, e.Message)
}

type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string   `json:"resultType"`
		Result     []Series `json:"result"`
	} `json:"data"`
	ErrorType string `json:"errorType,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (c *Client) query(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("promql: building request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("promql: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("promql: reading %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("promql: %s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("promql: decoding %s response: %w", endpoint, err)
	}
	return nil
}

// QueryRange runs a range query. Start accepts either an absolute
// timestamp or a relative offset like "-7d" (the VictoriaMetrics
// extension); step is a duration like "1h".
func (c *Client) QueryRange(ctx context.Context, query, start, step string) ([]Series, error) {
	params := url.Values{"query": {query}}
	if start != "" {
		params.Set("start", start)
	}
	if step != "" {
		params.Set("step", step)
	}

	var resp queryResponse
	if err := c.query(ctx, "/api/v1/query_range", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, &QueryError{ErrorType: resp.ErrorType, Message: resp.Error}
	}
	return resp.Data.Result, nil
}

// MetricSchema returns the label set of the named metric, sampled from
// its recent series. The values are examples, not an exhaustive
// enumeration.
func (c *Client) MetricSchema(ctx context.Context, metric string) (map[string]string, error) {
	series, err := c.QueryRange(ctx, metric, "-30m", "")
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("promql: no recent series for metric %q", metric)
	}
	return series[0].Metric, nil
}

type labelValuesResponse struct {
	Status string   `json:"status"`
	Data   []string `json:"data"`
	Error  string   `json:"error,omitempty"`
}

// LabelValues returns the recently observed values of one label.
func (c *Client) LabelValues(ctx context.Context, label string) ([]string, error) {
	params := url.Values{"start": {"-1d"}}
	var resp labelValuesResponse
	if err := c.query(ctx, "/api/v1/label/"+url.PathEscape(label)+"/values", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, &QueryError{Message: resp.Error}
	}
	return resp.Data, nil
}
