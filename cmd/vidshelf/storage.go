package main

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v2"
	"go.uber.org/zap"

	"github.com/doingodswork/vidshelf/pkg/catalog"
	"github.com/doingodswork/vidshelf/pkg/logadapter"
)

const snapshotKey = "catalog-snapshot"

func registerTypes() {
	// For the go-cache click counters
	gob.Register(int64(0))
}

// snapshot is the last catalog that passed validation.
type snapshot struct {
	Sections []catalog.Section
	Created  time.Time
	// Source is the catalog file path, or "embedded".
	Source string
}

// snapshotStore persists catalog snapshots, backed by BadgerDB.
type snapshotStore struct {
	db *badger.DB
}

// openSnapshotStore opens the BadgerDB at path. An empty path opens an in-memory DB.
func openSnapshotStore(path string, logger *zap.Logger) (*snapshotStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(logadapter.NewBadgerLogger(logger))
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open BadgerDB: %w", err)
	}
	return &snapshotStore{db: db}, nil
}

func (s *snapshotStore) Save(c *catalog.Catalog, source string) error {
	item := snapshot{
		Sections: c.Export(),
		Created:  time.Now(),
		Source:   source,
	}
	return gobSet(s.db, snapshotKey, item)
}

// Load returns the last saved snapshot as validated catalog.
// The boolean return value signals if a snapshot was found.
func (s *snapshotStore) Load() (*catalog.Catalog, snapshot, bool, error) {
	var item snapshot
	found, err := gobGet(s.db, snapshotKey, &item)
	if err != nil || !found {
		return nil, snapshot{}, found, err
	}
	c, err := catalog.New(item.Sections)
	if err != nil {
		return nil, snapshot{}, found, fmt.Errorf("Snapshot is invalid: %w", err)
	}
	return c, item, found, nil
}

func (s *snapshotStore) Close() error {
	return s.db.Close()
}

func gobSet(db *badger.DB, key string, item interface{}) error {
	writer := bytes.Buffer{}
	encoder := gob.NewEncoder(&writer)
	if err := encoder.Encode(item); err != nil {
		return fmt.Errorf("Couldn't encode item: %v", err)
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), writer.Bytes())
	})
}

func gobGet(db *badger.DB, key string, target interface{}) (bool, error) {
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			reader := bytes.NewReader(val)
			decoder := gob.NewDecoder(reader)
			if err := decoder.Decode(target); err != nil {
				return fmt.Errorf("Couldn't decode item: %v", err)
			}
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	} else if err != nil {
		return true, err
	}
	return true, nil
}
