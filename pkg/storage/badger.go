package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/fedwatch/fedwatch/pkg/errors"
)

// Decoder materializes a stored record into its registry type. Each
// bucket holds a single record type, so callers get back values they
// can assert on directly.
type Decoder func(data []byte) (any, error)

// JSONDecoder returns a Decoder for a concrete record type.
func JSONDecoder[T any]() Decoder {
	return func(data []byte) (any, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}

		return v, nil
	}
}

// OpenBadger opens the embedded database under dataDir, creating the
// directory if needed. One database backs all buckets.
func OpenBadger(dataDir string) (*badger.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	opts := badger.DefaultOptions(dataDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return db, nil
}

type badgerStorage struct {
	db     *badger.DB
	prefix []byte
	decode Decoder
}

// NewBadgerStorage returns a Storage backed by a key range of db.
// Records are stored as JSON under bucket-prefixed keys.
func NewBadgerStorage(db *badger.DB, bucket string, decode Decoder) Storage {
	return &badgerStorage{
		db:     db,
		prefix: []byte(bucket + "/"),
		decode: decode,
	}
}

func (s *badgerStorage) key(key string) []byte {
	return append(append([]byte{}, s.prefix...), key...)
}

func (s *badgerStorage) Create(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	return s.db.Update(func(txn *badger.Txn) error {
		k := s.key(key)
		if _, err := txn.Get(k); err == nil {
			return errors.ErrEntityExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check key existence: %w", err)
		}

		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		return txn.Set(k, data)
	})
}

func (s *badgerStorage) Get(_ context.Context, key string) (any, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	var result any
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrNotFound
			}

			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			result, err = s.decode(val)

			return err
		})
	})

	return result, err
}

func (s *badgerStorage) Update(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	return s.db.Update(func(txn *badger.Txn) error {
		k := s.key(key)
		if _, err := txn.Get(k); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrNotFound
			}

			return fmt.Errorf("failed to check key existence: %w", err)
		}

		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		return txn.Set(k, data)
	})
}

// List walks the bucket in key order, which matches the in-memory
// backend's sorted-key pagination.
func (s *badgerStorage) List(_ context.Context, offset, limit uint64) (result []any, total uint64, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		end := offset + limit
		var idx uint64
		for it.Rewind(); it.Valid(); it.Next() {
			if idx >= offset && idx < end {
				err := it.Item().Value(func(val []byte) error {
					value, err := s.decode(val)
					if err != nil {
						return err
					}
					result = append(result, value)

					return nil
				})
				if err != nil {
					return err
				}
			}
			idx++
		}
		total = idx

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}

	return result, total, nil
}

func (s *badgerStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
}
