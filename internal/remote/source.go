package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mesh-intelligence/tablekit/internal/view"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// DefaultTimeout bounds a single fetch when the caller does not supply a
// client.
const DefaultTimeout = 10 * time.Second

// Source fetches row windows from a row server endpoint.
type Source struct {
	client   *http.Client
	endpoint string
}

// NewSource returns a source for endpoint, a full URL such as
// http://localhost:8080/api/datasets/products/rows. A nil client gets one
// with DefaultTimeout.
func NewSource(client *http.Client, endpoint string) (*Source, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q: scheme and host required", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Source{client: client, endpoint: endpoint}, nil
}

// DatasetEndpoint returns the rows endpoint of a dataset on a row server.
func DatasetEndpoint(baseURL, dataset string) string {
	return strings.TrimRight(baseURL, "/") + "/api/datasets/" + url.PathEscape(dataset) + "/rows"
}

// SchemaEndpoint returns the schema endpoint of a dataset on a row server.
func SchemaEndpoint(baseURL, dataset string) string {
	return strings.TrimRight(baseURL, "/") + "/api/datasets/" + url.PathEscape(dataset) + "/schema"
}

// URL returns the request URL for q. Query parameters already on the
// endpoint are kept unless q sets them.
func (s *Source) URL(q types.Query) string {
	u, _ := url.Parse(s.endpoint)
	v := u.Query()
	for k, vs := range q.Values() {
		v[k] = vs
	}
	u.RawQuery = v.Encode()
	return u.String()
}

// Fetch implements table.Source.
func (s *Source) Fetch(ctx context.Context, q types.Query) ([]types.Row, error) {
	var rows []types.Row
	if err := FetchJSON(ctx, s.client, s.URL(q), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchSchema loads and resolves a dataset's columns from a row server.
func FetchSchema(ctx context.Context, client *http.Client, baseURL, dataset string) ([]types.Column, error) {
	var specs []types.ColumnSpec
	if err := FetchJSON(ctx, client, SchemaEndpoint(baseURL, dataset), &specs); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, types.ErrEmptySchema
	}
	return view.Columns(specs)
}
