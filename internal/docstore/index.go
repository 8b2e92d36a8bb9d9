package docstore

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSummaries = []byte("summaries")

// boltIndex caches per-document summaries so listings avoid reading
// every JSON body. It is rebuilt wholesale on every save, never
// incrementally patched, so it can always be dropped and regenerated.
type boltIndex struct {
	db *bolt.DB
}

func openBoltIndex(path string) (*boltIndex, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSummaries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index bucket: %w", err)
	}

	return &boltIndex{db: db}, nil
}

// rebuild replaces the entire index with the given summaries.
func (ix *boltIndex) rebuild(index Index) error {
	return ix.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketSummaries); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucketSummaries)
		if err != nil {
			return err
		}
		for id, summary := range index {
			data, err := json.Marshal(summary)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// load returns the cached index, or nil when the cache is empty.
func (ix *boltIndex) load() (Index, error) {
	index := make(Index)

	err := ix.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSummaries)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var summary Summary
			if err := json.Unmarshal(v, &summary); err != nil {
				// Corrupt entry: skip, the fallback scan covers it.
				return nil
			}
			index[string(k)] = summary
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if len(index) == 0 {
		return nil, nil
	}
	return index, nil
}

func (ix *boltIndex) close() error {
	return ix.db.Close()
}
