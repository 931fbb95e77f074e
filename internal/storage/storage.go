package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage provides the local sync ledger.

// Store remembers the content digest last synced for each embedding key.
type Store interface {
	Close() error
	// Synced reports whether key was last synced with exactly this digest and has not expired.
	Synced(key, digest string) (bool, error)
	// MarkSynced records digest as the synced content of key.
	MarkSynced(key, digest string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// Key builds the ledger key of an embedding within a collection.
func Key(collection, id string) string {
	return collection + "\x00" + id
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                         { return nil }
func (noopStore) Synced(string, string) (bool, error) { return false, nil }
func (noopStore) MarkSynced(string, string) error     { return nil }
