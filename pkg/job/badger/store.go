// Package badger persists job records in BadgerDB so job history survives
// restarts of the API server.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/dittoacl/pkg/job"
)

// prefixJob is the key prefix of job records: job:{id} -> JSON(Job).
const prefixJob = "job:"

// Config configures the store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory, for tests.
	InMemory bool
}

// Store implements job.Store on BadgerDB.
type Store struct {
	db *badgerdb.DB
}

// Open opens or creates the database.
func Open(cfg Config) (*Store, error) {
	opts := badgerdb.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badgerdb.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

func keyJob(id string) []byte {
	return []byte(prefixJob + id)
}

// Put implements job.Store.
func (s *Store) Put(ctx context.Context, j *job.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyJob(j.ID), data)
	})
}

// Get implements job.Store.
func (s *Store) Get(ctx context.Context, id string) (*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out job.Job
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyJob(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", job.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &out, nil
}

// List implements job.Store. Jobs are returned oldest first.
func (s *Store) List(ctx context.Context) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var jobs []*job.Job
	err := s.db.View(func(txn *badgerdb.Txn) error {
		prefix := []byte(prefixJob)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var j job.Job
				if err := json.Unmarshal(val, &j); err != nil {
					return err
				}
				jobs = append(jobs, &j)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	job.SortByStart(jobs)
	return jobs, nil
}

// Delete implements job.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(keyJob(id))
	})
}

// Close implements job.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
