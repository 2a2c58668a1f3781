// ABOUTME: Semantic catalog search with page-token continuation.
// ABOUTME: Category filters use the search API's filter expression.

package dremio

import (
	"context"
	"fmt"
	"strings"
)

// Search categories accepted by the semantic search API.
var searchCategories = map[string]bool{
	"JOB": true, "VIEW": true, "TABLE": true, "FOLDER": true,
	"UDF": true, "SPACE": true, "REFLECTION": true, "SCRIPT": true,
	"SOURCE": true,
}

const searchPageSize = 50

// ValidSearchCategory reports whether the name is a category the
// search API accepts, case-insensitively.
func ValidSearchCategory(category string) bool {
	return searchCategories[strings.ToUpper(category)]
}

type searchRequest struct {
	Query      string `json:"query"`
	Filter     string `json:"filter,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
	PageToken  string `json:"pageToken,omitempty"`
}

// SearchResult is one hit from semantic search. Only the category and
// its matching object are populated.
type SearchResult struct {
	Category   string         `json:"category,omitempty"`
	Job        map[string]any `json:"jobObject,omitempty"`
	Script     map[string]any `json:"scriptObject,omitempty"`
	Reflection map[string]any `json:"reflectionObject,omitempty"`
	Catalog    map[string]any `json:"catalogObject,omitempty"`
}

type searchResponse struct {
	SessionID     string         `json:"sessionId,omitempty"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
	Results       []SearchResult `json:"results"`
	Error         string         `json:"errorMessage,omitempty"`
	More          string         `json:"moreInfo,omitempty"`
}

// Search runs a semantic search, following page tokens until the
// result set is exhausted. Category narrows the search to one entity
// kind; empty searches everything.
func (c *Client) Search(ctx context.Context, query, category string) ([]SearchResult, error) {
	var filter string
	if category != "" {
		upper := strings.ToUpper(category)
		if !searchCategories[upper] {
			return nil, fmt.Errorf("dremio: unknown search category %q", category)
		}
		filter = fmt.Sprintf(`category in ["%s"]`, upper)
	}

	endpoint := c.apiPath() + "/search"
	req := searchRequest{Query: query, Filter: filter, MaxResults: searchPageSize}

	var results []SearchResult
	for {
		var resp searchResponse
		if err := c.post(ctx, endpoint, req, &resp); err != nil {
			return nil, err
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("dremio: search failed: %s", resp.Error)
		}
		if len(resp.Results) == 0 {
			break
		}
		results = append(results, resp.Results...)
		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}
	return results, nil
}
