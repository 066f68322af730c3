package bolt

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// DefaultPath the default bolt database directory
	DefaultPath = "~/.cache/crumb"
	// DefaultName the default bolt database file name
	DefaultName = "cookie.db"
	fillPercent = 0.9
)

// ErrBucketNotFound the root bucket is missing
var ErrBucketNotFound = errors.New("bucket not found")

// DB a bbolt.DB instance with a single root bucket
type DB struct {
	bucketName []byte
	db         *bbolt.DB
}

// NewDB opens or creates the database file name under path, with a root
// bucket named after the file.
func NewDB(path, name string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}
	err := os.MkdirAll(path, 0o700)
	if err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(path, name), 0o600, &bbolt.Options{
		Timeout:         1 * time.Second,
		InitialMmapSize: 1024,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{bucketName: []byte(name), db: db}, nil
}

// Update executes fn on the root bucket within a read-write transaction.
func (db *DB) Update(fn func(*bbolt.Bucket) error) error {
	return db.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(db.bucketName)
		if bucket == nil {
			return ErrBucketNotFound
		}
		bucket.FillPercent = fillPercent
		return fn(bucket)
	})
}

// View executes fn on the root bucket within a read-only transaction.
func (db *DB) View(fn func(*bbolt.Bucket) error) error {
	return db.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(db.bucketName)
		if bucket == nil {
			return ErrBucketNotFound
		}
		return fn(bucket)
	})
}

// Close closes the database.
func (db *DB) Close() error {
	if err := db.db.Sync(); err != nil {
		return err
	}
	return db.db.Close()
}
