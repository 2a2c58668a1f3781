// ABOUTME: Catalog lookups: table schemas, lineage graphs, and the
// ABOUTME: wiki/tag descriptions attached to datasets and schemas.

package dremio

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// CatalogEntry is the decoded catalog document for one dataset or
// container, plus the collaboration extras when requested.
type CatalogEntry struct {
	ID     string         `json:"id"`
	Path   []string       `json:"path,omitempty"`
	Name   string         `json:"name,omitempty"`
	Type   string         `json:"entityType,omitempty"`
	Tag    string         `json:"tag,omitempty"`
	Fields []CatalogField `json:"fields,omitempty"`

	// Populated from the collaboration endpoints.
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CatalogField is one column of a dataset's schema.
type CatalogField struct {
	Name string `json:"name"`
	Type struct {
		Name string `json:"name"`
	} `json:"type"`
}

func (c *Client) catalogPath() string {
	return c.apiPath() + "/catalog"
}

// CatalogByPath looks up a catalog entry by its path components.
func (c *Client) CatalogByPath(ctx context.Context, path []string) (*CatalogEntry, error) {
	escaped := make([]string, len(path))
	for i, p := range path {
		escaped[i] = url.PathEscape(p)
	}
	var entry CatalogEntry
	if err := c.get(ctx, c.catalogPath()+"/by-path/"+strings.Join(escaped, "/"), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CatalogByID looks up a catalog entry by its id.
func (c *Client) CatalogByID(ctx context.Context, id string) (*CatalogEntry, error) {
	var entry CatalogEntry
	if err := c.get(ctx, c.catalogPath()+"/"+id, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// attachCollaboration fills the entry's description and tags from the
// collaboration endpoints. Absent collaboration documents are not an
// error; most datasets have neither.
func (c *Client) attachCollaboration(ctx context.Context, entry *CatalogEntry) error {
	var wiki struct {
		Text string `json:"text"`
	}
	err := c.get(ctx, c.catalogPath()+"/"+entry.ID+"/collaboration/wiki", nil, &wiki)
	switch {
	case err == nil:
		entry.Description = wiki.Text
	case isNotFound(err):
	default:
		return err
	}

	var tags struct {
		Tags []string `json:"tags"`
	}
	err = c.get(ctx, c.catalogPath()+"/"+entry.ID+"/collaboration/tag", nil, &tags)
	switch {
	case err == nil:
		entry.Tags = tags.Tags
	case isNotFound(err):
	default:
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// TableSchema resolves a dotted table name to its catalog entry,
// optionally including collaboration descriptions and tags.
func (c *Client) TableSchema(ctx context.Context, tableName string, includeTags bool) (*CatalogEntry, error) {
	entry, err := c.CatalogByPath(ctx, SplitTablePath(tableName))
	if err != nil {
		return nil, err
	}
	if includeTags {
		if err := c.attachCollaboration(ctx, entry); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// Lineage holds the upstream and downstream graph of one dataset.
type Lineage struct {
	Sources  []LineageNode `json:"sources"`
	Parents  []LineageNode `json:"parents"`
	Children []LineageNode `json:"children"`
}

// LineageNode is one dataset or container in a lineage graph.
type LineageNode struct {
	ID            string   `json:"id"`
	Path          []string `json:"path"`
	Type          string   `json:"type,omitempty"`
	ContainerType string   `json:"containerType,omitempty"`
	DatasetType   string   `json:"datasetType,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
}

// TableLineage fetches the lineage graph of a table or view. A dotted
// name is resolved through the catalog first; anything else is treated
// as a dataset id.
func (c *Client) TableLineage(ctx context.Context, nameOrID string) (*Lineage, error) {
	id := nameOrID
	if strings.Contains(nameOrID, ".") {
		entry, err := c.CatalogByPath(ctx, SplitTablePath(nameOrID))
		if err != nil {
			return nil, err
		}
		id = entry.ID
	}
	var lineage Lineage
	if err := c.get(ctx, c.catalogPath()+"/"+id+"/graph", nil, &lineage); err != nil {
		return nil, err
	}
	return &lineage, nil
}

// Description is the wiki text and tags attached to one component of a
// catalog path.
type Description struct {
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Descriptions walks the named tables or schemas and every parent
// schema above them, collecting whatever wiki text or tags exist.
// Keys are fully quoted dotted paths; components with no description
// and no tags are omitted.
func (c *Client) Descriptions(ctx context.Context, names []string) (map[string]Description, error) {
	seen := make(map[string]bool)
	result := make(map[string]Description)

	var pending [][]string
	for _, name := range names {
		path := SplitTablePath(name)
		for i := range path {
			prefix := path[:i+1]
			key := strings.Join(prefix, "\x00")
			if !seen[key] {
				seen[key] = true
				pending = append(pending, prefix)
			}
		}
	}

	for _, path := range pending {
		entry, err := c.CatalogByPath(ctx, path)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if err := c.attachCollaboration(ctx, entry); err != nil {
			return nil, err
		}
		if entry.Description == "" && len(entry.Tags) == 0 {
			continue
		}
		key := QuoteTablePath(path)
		if len(entry.Path) > 0 {
			key = QuoteTablePath(entry.Path)
		}
		result[key] = Description{Description: entry.Description, Tags: entry.Tags}
	}
	return result, nil
}
