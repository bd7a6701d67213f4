// Package database persists served results in a BoltDB file, so that a
// restarted server can answer repeated requests without going back to the
// site.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// Default database file permissions
	dbFileMode = 0600
	dbDirMode  = 0755

	openTimeout = time.Second
)

var resultsBucket = []byte("results")

// ErrClosed is returned once Close has been called.
var ErrClosed = errors.New("database is closed")

type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// BoltStore keeps JSON values under string keys with the time they were stored.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBolt opens (or creates) the database file at dbPath.
func NewBolt(dbPath string) (*BoltStore, error) {
	if dbPath == "" {
		return nil, errors.New("database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, dbFileMode, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(resultsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get decodes the value stored under key into v. Values older than maxAge
// are reported as missing; maxAge <= 0 accepts any age.
func (s *BoltStore) Get(key string, maxAge time.Duration, v any) (bool, error) {
	var e entry
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(resultsBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &e)
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return false, ErrClosed
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if !found || s.expired(e, maxAge) {
		return false, nil
	}

	if err := json.Unmarshal(e.Data, v); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

// Put stores v under key, replacing any previous value.
func (s *BoltStore) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	raw, err := json.Marshal(entry{StoredAt: s.now(), Data: data})
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resultsBucket).Put([]byte(key), raw)
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// Delete removes key if present.
func (s *BoltStore) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resultsBucket).Delete([]byte(key))
	})
}

// DeleteOlderThan removes every value older than maxAge, including values
// that can no longer be decoded, and returns how many were removed.
func (s *BoltStore) DeleteOlderThan(maxAge time.Duration) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(resultsBucket)

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil || s.expired(e, maxAge) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		// keys cannot be deleted while iterating
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Len is the number of stored values.
func (s *BoltStore) Len() int {
	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(resultsBucket).Stats().KeyN
		return nil
	})
	return n
}

func (s *BoltStore) expired(e entry, maxAge time.Duration) bool {
	return maxAge > 0 && s.now().Sub(e.StoredAt) > maxAge
}
