// Package badgerdb implements every store interface of the system on top of
// BadgerDB, an embedded single-process KV engine. Secondary indexes are
// key-only entries; a case-status write and its audit entry share one
// transaction.
package badgerdb

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Config holds storage engine options.
type Config struct {
	// Path is the data directory. Ignored when InMemory is true.
	Path string
	// InMemory disables disk persistence. Used by tests.
	InMemory bool
	// SyncWrites forces fsync on every commit.
	SyncWrites bool
}

// DefaultConfig returns durable production defaults.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a throwaway configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Store is the shared handle over one Badger instance. It implements the
// user, session, case, media, draft, audit and settings store interfaces.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badgerdb: path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerdb: open: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RunValueLogGC triggers one value-log garbage collection pass.
func (s *Store) RunValueLogGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}
