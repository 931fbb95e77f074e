package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

// Package manifest loads the declarative description of collections to sync (YAML/JSON).

// Manifest lists the collections and embeddings that should exist on the service.
type Manifest struct {
	Collections []Collection `json:"collections" yaml:"collections"`

	idx map[string]int
}

// Collection declares one collection and its embeddings.
type Collection struct {
	Name       string         `json:"name" yaml:"name"`
	Metadata   map[string]any `json:"metadata" yaml:"metadata"`
	Embeddings []Entry        `json:"embeddings" yaml:"embeddings"`
}

// Entry declares one embedding. Document may be filled from DocumentURL at sync time.
type Entry struct {
	ID          string         `json:"id" yaml:"id"`
	Embedding   []float64      `json:"embedding" yaml:"embedding"`
	Metadata    map[string]any `json:"metadata" yaml:"metadata"`
	Document    string         `json:"document" yaml:"document"`
	DocumentURL string         `json:"document_url" yaml:"document_url"`
}

// Load reads and validates a manifest from a YAML/JSON file.
func Load(path string) (*Manifest, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("manifest file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	return Parse(raw, filepath.Ext(path))
}

// Parse decodes manifest content. ext selects the decoder; an empty ext tries each.
func Parse(data []byte, ext string) (*Manifest, error) {
	m, err := parseManifest(data, ext)
	if err != nil {
		return nil, err
	}
	if len(m.Collections) == 0 {
		return nil, errors.New("manifest contains no collections entries")
	}

	m.idx = make(map[string]int, len(m.Collections))
	for i := range m.Collections {
		col := sanitizeCollection(m.Collections[i])
		if err := validateCollection(col); err != nil {
			return nil, fmt.Errorf("collections[%d]: %w", i, err)
		}
		if _, exists := m.idx[col.Name]; exists {
			return nil, fmt.Errorf("duplicate collection name %q", col.Name)
		}
		m.Collections[i] = col
		m.idx[col.Name] = i
	}
	return m, nil
}

type unmarshalFn func([]byte, any) error

func parseManifest(data []byte, ext string) (*Manifest, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if m, err := unmarshalManifest(d.name, data, d.fn); err == nil {
			return m, nil
		}
	}

	return nil, errors.New("manifest format not recognized (expected YAML or JSON)")
}

func unmarshalManifest(name string, data []byte, fn unmarshalFn) (*Manifest, error) {
	var m Manifest
	if err := fn(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s manifest: %w", name, err)
	}
	return &m, nil
}

func sanitizeCollection(col Collection) Collection {
	col.Name = strings.TrimSpace(col.Name)
	for i := range col.Embeddings {
		col.Embeddings[i] = sanitizeEntry(col.Embeddings[i])
	}
	return col
}

func sanitizeEntry(e Entry) Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.DocumentURL = strings.TrimSpace(e.DocumentURL)
	if e.ID == "" {
		e.ID = DeriveID(e)
	}
	return e
}

// DeriveID returns a stable UUIDv5 for entries without an explicit id,
// keyed by document URL first and document text second.
func DeriveID(e Entry) string {
	switch {
	case e.DocumentURL != "":
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.DocumentURL)).String()
	case strings.TrimSpace(e.Document) != "":
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(e.Document)).String()
	default:
		return ""
	}
}

func validateCollection(col Collection) error {
	if col.Name == "" {
		return errors.New("name is required")
	}
	seen := make(map[string]struct{}, len(col.Embeddings))
	for i, e := range col.Embeddings {
		if e.ID == "" {
			return fmt.Errorf("embeddings[%d] of %q needs an id, document or document_url", i, col.Name)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate embedding id %q in collection %q", e.ID, col.Name)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// ByName returns the collection declared under name.
func (m *Manifest) ByName(name string) (Collection, bool) {
	if m == nil || m.idx == nil {
		return Collection{}, false
	}
	i, ok := m.idx[strings.TrimSpace(name)]
	if !ok {
		return Collection{}, false
	}
	return m.Collections[i], true
}

// ToEmbedding converts the entry into a client embedding.
func (e Entry) ToEmbedding() chroma.Embedding {
	return chroma.Embedding{
		ID:        e.ID,
		Embedding: e.Embedding,
		Metadata:  e.Metadata,
		Document:  e.Document,
	}
}
