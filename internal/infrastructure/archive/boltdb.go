package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store wraps BoltDB to hold ledger entries pruned out of the hot Postgres
// table. Writes are append-only; an existing key is never overwritten.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "ledger_archive"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Put archives a batch of records in one transaction. Records whose key is
// already present are left untouched.
func (s *Store) Put(records []Record) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for i := range records {
			record := records[i]
			key := record.Key()
			if b.Get(key) != nil {
				continue
			}
			record.ArchivedAt = now
			payload, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := b.Put(key, payload); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the archived record for a key, or nil when absent.
func (s *Store) Get(organizationID, smartCode, idempotencyKey string) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	lookup := Record{
		OrganizationID: organizationID,
		SmartCode:      smartCode,
		IdempotencyKey: idempotencyKey,
	}

	var found *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get(lookup.Key())
		if raw == nil {
			return nil
		}
		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return err
		}
		found = &record
		return nil
	})
	return found, err
}

// Size returns the number of archived records.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}
