package bolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestDB(t *testing.T) {
	t.Parallel()
	db, err := NewDB(t.TempDir(), "test")
	require.NoError(t, err)

	key := []byte("testKey")
	value := []byte("testValue")

	require.NoError(t, db.Update(func(bucket *bbolt.Bucket) error {
		return bucket.Put(key, value)
	}))

	var got []byte
	require.NoError(t, db.View(func(bucket *bbolt.Bucket) error {
		got = append(got, bucket.Get(key)...)
		return nil
	}))
	assert.Equal(t, value, got)
	require.NoError(t, db.Close())
}

func TestDBReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	db, err := NewDB(dir, "test")
	require.NoError(t, err)
	require.NoError(t, db.Update(func(bucket *bbolt.Bucket) error {
		return bucket.Put([]byte("k"), []byte("v"))
	}))
	require.NoError(t, db.Close())

	db, err = NewDB(dir, "test")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.View(func(bucket *bbolt.Bucket) error {
		assert.Equal(t, []byte("v"), bucket.Get([]byte("k")))
		return nil
	}))
}
