package chroma

// Embedding is a vector plus optional metadata, document and query distance.
type Embedding struct {
	ID        string         `json:"id" yaml:"id"`
	Embedding []float64      `json:"embedding,omitempty" yaml:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata"`
	Document  string         `json:"document,omitempty" yaml:"document"`
	Distance  *float64       `json:"distance,omitempty" yaml:"distance,omitempty"`
}

// embeddingsPayload builds the column-oriented body used by add, update and upsert.
func embeddingsPayload(embeddings []Embedding, incrementIndex bool) map[string]any {
	ids := make([]string, 0, len(embeddings))
	vectors := make([]any, 0, len(embeddings))
	metadatas := make([]any, 0, len(embeddings))
	documents := make([]any, 0, len(embeddings))

	for _, e := range embeddings {
		ids = append(ids, e.ID)
		vectors = append(vectors, nullable(e.Embedding != nil, e.Embedding))
		metadatas = append(metadatas, nullable(e.Metadata != nil, e.Metadata))
		documents = append(documents, nullable(e.Document != "", e.Document))
	}

	return map[string]any{
		"ids":             ids,
		"embeddings":      vectors,
		"metadatas":       metadatas,
		"documents":       documents,
		"increment_index": incrementIndex,
	}
}

func nullable(present bool, v any) any {
	if !present {
		return nil
	}
	return v
}

// embeddingsFromBody flattens a get/query response into embeddings by index.
// Query responses nest every column once per query embedding; get responses do not.
func embeddingsFromBody(body map[string]any) []Embedding {
	nested := isNested(body["ids"])
	column := func(key string) []any { return columnOf(body[key], nested) }

	ids := column("ids")
	vectors := column("embeddings")
	documents := column("documents")
	metadatas := column("metadatas")
	distances := column("distances")

	out := make([]Embedding, 0, len(ids))
	for i, rawID := range ids {
		id, _ := rawID.(string)
		e := Embedding{ID: id}
		if v, ok := at(vectors, i).([]any); ok {
			e.Embedding = toFloats(v)
		}
		if d, ok := at(documents, i).(string); ok {
			e.Document = d
		}
		if m, ok := at(metadatas, i).(map[string]any); ok {
			e.Metadata = m
		}
		if d, ok := at(distances, i).(float64); ok {
			dist := d
			e.Distance = &dist
		}
		out = append(out, e)
	}
	return out
}

func isNested(ids any) bool {
	list, ok := ids.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	_, ok = list[0].([]any)
	return ok
}

// columnOf returns a response column, removing the per-query level when nested.
func columnOf(raw any, nested bool) []any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	if !nested {
		return list
	}

	out := make([]any, 0, len(list))
	for _, item := range list {
		if inner, ok := item.([]any); ok {
			out = append(out, inner...)
		}
	}
	return out
}

func at(list []any, i int) any {
	if i < 0 || i >= len(list) {
		return nil
	}
	return list[i]
}

func toFloats(list []any) []float64 {
	out := make([]float64, 0, len(list))
	for _, v := range list {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}
