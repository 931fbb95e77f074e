package chroma

import (
	"context"
	"fmt"

	"github.com/samvad-hq/chroma-client/pkg/httpclient"
)

var (
	defaultQueryInclude = []string{"metadatas", "documents", "distances"}
	defaultGetInclude   = []string{"metadatas", "documents"}
)

// Collection is a named container of embeddings on the service.
type Collection struct {
	Name     string
	Metadata map[string]any

	client *Client
}

// QueryOptions configures a similarity query.
type QueryOptions struct {
	QueryEmbeddings [][]float64
	Results         int
	Where           map[string]any
	WhereDocument   map[string]any
	Include         []string
}

// GetOptions configures a get request. Page and PageSize, when both set,
// take precedence over Offset and Limit.
type GetOptions struct {
	IDs           []string
	Where         map[string]any
	Sort          string
	Limit         *int
	Offset        *int
	Page          int
	PageSize      int
	WhereDocument map[string]any
	Include       []string
}

// DeleteOptions selects the embeddings to delete.
type DeleteOptions struct {
	IDs           []string
	Where         map[string]any
	WhereDocument map[string]any
}

// CreateCollection creates a collection and fails if it already exists.
func (c *Client) CreateCollection(ctx context.Context, name string, metadata map[string]any) (*Collection, error) {
	return c.createCollection(ctx, name, metadata, false)
}

// GetOrCreateCollection returns the named collection, creating it when missing.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]any) (*Collection, error) {
	return c.createCollection(ctx, name, metadata, true)
}

func (c *Client) createCollection(ctx context.Context, name string, metadata map[string]any, getOrCreate bool) (*Collection, error) {
	params := httpclient.Params{
		"name":          name,
		"metadata":      metadata,
		"get_or_create": getOrCreate,
	}
	res, err := c.do(ctx, httpclient.MethodPost, params, "collections")
	if err != nil {
		return nil, err
	}
	return c.collectionFromBody(res.Body)
}

// GetCollection fetches a collection by name.
func (c *Client) GetCollection(ctx context.Context, name string) (*Collection, error) {
	res, err := c.do(ctx, httpclient.MethodGet, nil, "collections", name)
	if err != nil {
		return nil, err
	}
	return c.collectionFromBody(res.Body)
}

// ListCollections returns every collection on the service.
func (c *Client) ListCollections(ctx context.Context) ([]*Collection, error) {
	res, err := c.do(ctx, httpclient.MethodGet, nil, "collections")
	if err != nil {
		return nil, err
	}

	items, ok := res.Body.([]any)
	if !ok {
		return nil, fmt.Errorf("chroma: unexpected collections body %q", res.BodyText())
	}
	out := make([]*Collection, 0, len(items))
	for _, item := range items {
		col, err := c.collectionFromBody(item)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

// DeleteCollection removes a collection by name.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	_, err := c.do(ctx, httpclient.MethodDelete, nil, "collections", name)
	return err
}

func (c *Client) collectionFromBody(body any) (*Collection, error) {
	data, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("chroma: unexpected collection body %#v", body)
	}
	name, _ := data["name"].(string)
	metadata, _ := data["metadata"].(map[string]any)
	return &Collection{Name: name, Metadata: metadata, client: c}, nil
}

// Query returns the embeddings nearest to each query embedding.
func (col *Collection) Query(ctx context.Context, opts QueryOptions) ([]Embedding, error) {
	results := opts.Results
	if results <= 0 {
		results = 10
	}
	params := httpclient.Params{
		"query_embeddings": opts.QueryEmbeddings,
		"n_results":        results,
		"where":            orEmpty(opts.Where),
		"where_document":   orEmpty(opts.WhereDocument),
		"include":          orDefault(opts.Include, defaultQueryInclude),
	}
	return col.fetchEmbeddings(ctx, "query", params)
}

// Get returns embeddings matching the given ids and filters.
func (col *Collection) Get(ctx context.Context, opts GetOptions) ([]Embedding, error) {
	limit, offset := opts.Limit, opts.Offset
	if opts.Page > 0 && opts.PageSize > 0 {
		o := (opts.Page - 1) * opts.PageSize
		l := opts.PageSize
		offset, limit = &o, &l
	}

	params := httpclient.Params{
		"ids":            nilIfEmpty(opts.IDs),
		"where":          orEmpty(opts.Where),
		"sort":           nilIfBlank(opts.Sort),
		"limit":          limit,
		"offset":         offset,
		"where_document": orEmpty(opts.WhereDocument),
		"include":        orDefault(opts.Include, defaultGetInclude),
	}
	return col.fetchEmbeddings(ctx, "get", params)
}

func (col *Collection) fetchEmbeddings(ctx context.Context, op string, params httpclient.Params) ([]Embedding, error) {
	res, err := col.client.do(ctx, httpclient.MethodPost, params, "collections", col.Name, op)
	if err != nil {
		return nil, err
	}
	body, ok := res.Body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("chroma: unexpected %s body %q", op, res.BodyText())
	}
	return embeddingsFromBody(body), nil
}

// Add inserts embeddings. It returns false without a request when none are given.
func (col *Collection) Add(ctx context.Context, embeddings ...Embedding) (bool, error) {
	return col.write(ctx, "add", embeddings, true)
}

// Update changes existing embeddings.
func (col *Collection) Update(ctx context.Context, embeddings ...Embedding) (bool, error) {
	return col.write(ctx, "update", embeddings, false)
}

// Upsert inserts new embeddings and updates existing ones.
func (col *Collection) Upsert(ctx context.Context, embeddings ...Embedding) (bool, error) {
	return col.write(ctx, "upsert", embeddings, true)
}

func (col *Collection) write(ctx context.Context, op string, embeddings []Embedding, withIndex bool) (bool, error) {
	if len(embeddings) == 0 {
		return false, nil
	}

	params := httpclient.Params(embeddingsPayload(embeddings, true))
	if !withIndex {
		delete(params, "increment_index")
	}
	if _, err := col.client.do(ctx, httpclient.MethodPost, params, "collections", col.Name, op); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes embeddings and returns the ids the service reports as deleted.
func (col *Collection) Delete(ctx context.Context, opts DeleteOptions) ([]string, error) {
	params := httpclient.Params{
		"ids":            nilIfEmpty(opts.IDs),
		"where":          orEmpty(opts.Where),
		"where_document": orEmpty(opts.WhereDocument),
	}
	res, err := col.client.do(ctx, httpclient.MethodPost, params, "collections", col.Name, "delete")
	if err != nil {
		return nil, err
	}

	items, _ := res.Body.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := item.(string); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Count returns the number of embeddings in the collection.
func (col *Collection) Count(ctx context.Context) (int, error) {
	res, err := col.client.do(ctx, httpclient.MethodGet, nil, "collections", col.Name, "count")
	if err != nil {
		return 0, err
	}
	return parseInt(res.BodyText())
}

// Modify renames the collection and replaces its metadata when newMetadata is non-empty.
func (col *Collection) Modify(ctx context.Context, newName string, newMetadata map[string]any) error {
	params := httpclient.Params{"new_name": newName}
	if len(newMetadata) > 0 {
		params["new_metadata"] = newMetadata
	}
	if _, err := col.client.do(ctx, httpclient.MethodPut, params, "collections", col.Name); err != nil {
		return err
	}

	col.Name = newName
	col.Metadata = newMetadata
	return nil
}

// CreateIndex asks the service to build the collection's index.
func (col *Collection) CreateIndex(ctx context.Context) (bool, error) {
	if _, err := col.client.do(ctx, httpclient.MethodPost, nil, "collections", col.Name, "create_index"); err != nil {
		return false, err
	}
	return true, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func nilIfEmpty(ids []string) any {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func nilIfBlank(s string) any {
	if s == "" {
		return nil
	}
	return s
}
