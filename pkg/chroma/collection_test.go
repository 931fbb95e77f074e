package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

type stubRoute struct {
	status int
	body   string
}

// stubChroma serves canned responses keyed by "METHOD path" and records requests.
type stubChroma struct {
	routes   map[string]stubRoute
	requests []recordedRequest
}

func newStubChroma(t *testing.T, routes map[string]stubRoute) (*stubChroma, *Client) {
	t.Helper()
	stub := &stubChroma{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recordedRequest{method: r.Method, path: r.URL.EscapedPath()}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rec.body); err != nil {
				t.Errorf("request body is not json: %s", raw)
			}
		}
		stub.requests = append(stub.requests, rec)

		route, ok := stub.routes[r.Method+" "+r.URL.EscapedPath()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"not found"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(route.status)
		_, _ = io.WriteString(w, route.body)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(NewConfiguration(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return stub, client
}

func (s *stubChroma) last(t *testing.T) recordedRequest {
	t.Helper()
	if len(s.requests) == 0 {
		t.Fatalf("no request recorded")
	}
	return s.requests[len(s.requests)-1]
}

func TestCreateCollection(t *testing.T) {
	stub, client := newStubChroma(t, map[string]stubRoute{
		"POST /api/v1/collections": {status: 200, body: `{"name":"data-index","metadata":{"source":"test"}}`},
	})

	col, err := client.CreateCollection(context.Background(), "data-index", map[string]any{"source": "test"})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if col.Name != "data-index" || col.Metadata["source"] != "test" {
		t.Fatalf("unexpected collection %#v", col)
	}

	req := stub.last(t)
	if req.body["name"] != "data-index" || req.body["get_or_create"] != false {
		t.Fatalf("unexpected payload %#v", req.body)
	}
}

func TestGetOrCreateCollectionSetsFlag(t *testing.T) {
	stub, client := newStubChroma(t, map[string]stubRoute{
		"POST /api/v1/collections": {status: 200, body: `{"name":"x","metadata":null}`},
	})

	if _, err := client.GetOrCreateCollection(context.Background(), "x", nil); err != nil {
		t.Fatalf("GetOrCreateCollection: %v", err)
	}
	if stub.last(t).body["get_or_create"] != true {
		t.Fatalf("get_or_create not set: %#v", stub.last(t).body)
	}
}

func TestCreateCollectionInvalidRequest(t *testing.T) {
	_, client := newStubChroma(t, map[string]stubRoute{
		"POST /api/v1/collections": {status: 500, body: `{"error":"ValueError('Collection data-index already exists')"}`},
	})

	_, err := client.CreateCollection(context.Background(), "data-index", nil)
	var invalid *InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
	if invalid.Message != "Collection data-index already exists" {
		t.Fatalf("message = %q", invalid.Message)
	}
}

func TestGetCollection(t *testing.T) {
	_, client := newStubChroma(t, map[string]stubRoute{
		"GET /api/v1/collections/foo": {status: 200, body: `{"name":"foo","metadata":{}}`},
	})

	col, err := client.GetCollection(context.Background(), "foo")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if col.Name != "foo" {
		t.Fatalf("name = %q", col.Name)
	}
}

func TestGetCollectionNotFound(t *testing.T) {
	_, client := newStubChroma(t, nil)

	_, err := client.GetCollection(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 404 || apiErr.Message != "not found" {
		t.Fatalf("unexpected error %#v", apiErr)
	}
}

func TestListCollections(t *testing.T) {
	_, client := newStubChroma(t, map[string]stubRoute{
		"GET /api/v1/collections": {status: 200, body: `[{"name":"a","metadata":null},{"name":"b","metadata":{"k":"v"}}]`},
	})

	cols, err := client.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(cols) != 2 || cols[0].Name != "a" || cols[1].Metadata["k"] != "v" {
		t.Fatalf("unexpected collections %#v", cols)
	}
}

func TestDeleteCollection(t *testing.T) {
	stub, client := newStubChroma(t, map[string]stubRoute{
		"DELETE /api/v1/collections/foo": {status: 200, body: `null`},
	})

	if err := client.DeleteCollection(context.Background(), "foo"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if stub.last(t).method != http.MethodDelete {
		t.Fatalf("expected DELETE")
	}
}

func TestCollectionQuery(t *testing.T) {
	stub, client := newStubChroma(t, map[string]stubRoute{
		"POST /api/v1/collections/docs/query": {status: 200, body: `{
			"ids": [["a", "b"]],
			"embeddings": null,
			"documents": [["doc a", "doc b"]],
			"metadatas": [[{"k": 1}, null]],
			"distances": [[0.1, 0.2]]
		}`},
	})
	col := &Collection{Name: "docs", client: client}

	got, err := col.Query(context.Background(), QueryOptions{QueryEmbeddings: [][]float64{{1, 2, 3}}, Results: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].Document != "doc a" || got[0].Metadata["k"] != float64(1) {
		t.Fatalf("unexpected first embedding %#v", got[0])
	}
	if got[1].Distance == nil || *got[1].Distance != 0.2 {
		t.Fatalf("unexpected distance %#v", got[1].Distance)
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil metadata, got %#v", got[1].Metadata)
	}

	req := stub.last(t)
	if req.body["n_results"] != float64(2) {
		t.Fatalf("n_results = %#v", req.body["n_results"])
	}
	include, _ := req.body["include"].([]any)
	if len(include) != 3 {
		t.Fatalf("default include = %#v", req.body["include"])
	}
}

func TestCollectionGetWithPaging(t *testing.T) {
	stub, client := newStubChroma(t, map[string]stubRoute{
		"POST /api/v1/collections/docs/get": {status: 200, body: `{
			"ids": ["a"],
			"embeddings": [[0.5, 0.25]],
			"documents": ["doc a"],
			"metadatas": [{"k": "v"}]
		}`},
	})
	col := &Collection{Name: "docs", client: client}

	got, err := col.Get(context.Background(), GetOptions{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || len(got[0].Embedding) != 2 || got[0].Embedding[1] != 0.25 {
		t.Fatalf("unexpected embeddings %#v", got)
	}

	req := stub.last(t)
	if req.body["offset"] != float64(20) || req.body["limit"] != float64(10) {
		t.Fatalf("unexpected paging %#v", req.body)
	}
	if v, ok := req.body["ids"]; !ok || v != nil {
		t.Fatalf("ids should be null, got %#v", v)
	}
}

func TestCollectionWritesSkipEmpty(t *testing.T) {
	stub, client := newStubChroma(t, nil)
	col := &Collection{Name: "docs", client: client}

	for name, fn := range map[string]func(context.Context, ...Embedding) (bool, error){
		"add":    col.Add,
		"update": col.Update,
		"upsert": col.Upsert,
	} {
		ok, err := fn(context.Background())
		if ok || err != nil {
			t.Fatalf("%s: expected false, nil; got %v, %v", name, ok, err)
		}
	}
	if len(stub.requests) != 0 {
		t.Fatalf("expected no requests, got %d", len(stub.requests))
	}
}

func TestCollectionAddAndUpdatePayloads(t *testing.T) {
	stub, client := newStubChroma(t, map[string]stubRoute{
		"POST /api/v1/collections/docs/add":    {status: 201, body: `true`},
		"POST /api/v1/collections/docs/update": {status: 200, body: `true`},
	})
	col := &Collection{Name: "docs", client: client}
	emb := Embedding{ID: "1", Embedding: []float64{0.1}, Metadata: map[string]any{"a": "b"}, Document: "hello"}

	ok, err := col.Add(context.Background(), emb)
	if err != nil || !ok {
		t.Fatalf("Add: %v %v", ok, err)
	}
	add := stub.last(t)
	if add.body["increment_index"] != true {
		t.Fatalf("add payload missing increment_index: %#v", add.body)
	}
	if docs, _ := add.body["documents"].([]any); len(docs) != 1 || docs[0] != "hello" {
		t.Fatalf("documents = %#v", add.body["documents"])
	}

	if ok, err := col.Update(context.Background(), emb); err != nil || !ok {
		t.Fatalf("Update: %v %v", ok, err)
	}
	if _, ok := stub.last(t).body["increment_index"]; ok {
		t.Fatalf("update payload must not carry increment_index")
	}
}

func TestCollectionCountAndDelete(t *testing.T) {
	_, client := newStubChroma(t, map[string]stubRoute{
		"GET /api/v1/collections/docs/count":   {status: 200, body: `42`},
		"POST /api/v1/collections/docs/delete": {status: 200, body: `["a","b"]`},
	})
	col := &Collection{Name: "docs", client: client}

	n, err := col.Count(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	ids, err := col.Delete(context.Background(), DeleteOptions{IDs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("deleted ids = %v", ids)
	}
}

func TestCollectionModify(t *testing.T) {
	stub, client := newStubChroma(t, map[string]stubRoute{
		"PUT /api/v1/collections/docs": {status: 200, body: `null`},
	})
	col := &Collection{Name: "docs", Metadata: map[string]any{"old": true}, client: client}

	if err := col.Modify(context.Background(), "renamed", nil); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if col.Name != "renamed" || col.Metadata != nil {
		t.Fatalf("collection not updated: %#v", col)
	}
	req := stub.last(t)
	if req.body["new_name"] != "renamed" {
		t.Fatalf("payload = %#v", req.body)
	}
	if _, ok := req.body["new_metadata"]; ok {
		t.Fatalf("empty metadata must be omitted")
	}
}

func TestCollectionModifyFailureKeepsName(t *testing.T) {
	_, client := newStubChroma(t, map[string]stubRoute{
		"PUT /api/v1/collections/docs": {status: 500, body: `{"error":"ValueError('Collection renamed already exists')"}`},
	})
	col := &Collection{Name: "docs", client: client}

	err := col.Modify(context.Background(), "renamed", map[string]any{"k": "v"})
	var invalid *InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
	if col.Name != "docs" {
		t.Fatalf("name changed on failure: %s", col.Name)
	}
}

func TestCollectionCreateIndex(t *testing.T) {
	_, client := newStubChroma(t, map[string]stubRoute{
		"POST /api/v1/collections/docs/create_index": {status: 200, body: `true`},
	})
	col := &Collection{Name: "docs", client: client}

	ok, err := col.CreateIndex(context.Background())
	if err != nil || !ok {
		t.Fatalf("CreateIndex = %v, %v", ok, err)
	}
}
