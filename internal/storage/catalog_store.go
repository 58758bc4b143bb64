package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"microsim-matcher/internal/types"

	"go.etcd.io/bbolt"
)

var (
	bucketRecords = []byte("records")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")

	metaKey = []byte("catalog")
)

// CatalogMeta describes an imported snapshot.
type CatalogMeta struct {
	Model      string    `json:"model"`
	Dimension  int       `json:"dimension"`
	Records    int       `json:"records"`
	Vectors    int       `json:"vectors"`
	Source     string    `json:"source,omitempty"`
	ImportedAt time.Time `json:"importedAt"`
}

// BoltCatalog stores records in corpus order and maps embedded ids to
// their row in the vector file.
type BoltCatalog struct {
	db *bbolt.DB
}

// OpenBoltCatalog opens the catalog database. A read-only catalog can be
// shared by several processes.
func OpenBoltCatalog(path string, readOnly bool) (*BoltCatalog, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, err
	}
	if readOnly {
		return &BoltCatalog{db: db}, nil
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltCatalog{db: db}, nil
}

// Replace swaps the whole catalog content in one transaction.
func (c *BoltCatalog) Replace(records []*types.MicroSimRecord, rows map[string]uint64, meta CatalogMeta) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketVectors} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		rb := tx.Bucket(bucketRecords)
		for i, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode record %q: %w", rec.Key(), err)
			}
			// Keys are positions so corpus order and duplicates survive.
			if err := rb.Put(seqKey(uint64(i)), data); err != nil {
				return err
			}
		}

		vb := tx.Bucket(bucketVectors)
		for id, row := range rows {
			if err := vb.Put([]byte(id), seqKey(row)); err != nil {
				return err
			}
		}

		meta.Records = len(records)
		meta.Vectors = len(rows)
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(metaKey, data)
	})
}

// Records returns every stored record in corpus order.
func (c *BoltCatalog) Records() ([]*types.MicroSimRecord, error) {
	var out []*types.MicroSimRecord
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec types.MicroSimRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, &rec)
			return nil
		})
	})
	return out, err
}

// Rows returns the vector row of every embedded id.
func (c *BoltCatalog) Rows() (map[string]uint64, error) {
	out := make(map[string]uint64)
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if len(v) != 8 {
				return fmt.Errorf("corrupt row for %q", k)
			}
			out[string(k)] = binary.BigEndian.Uint64(v)
			return nil
		})
	})
	return out, err
}

// Meta returns the catalog metadata. ok is false for an empty catalog.
func (c *BoltCatalog) Meta() (meta CatalogMeta, ok bool, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		data := b.Get(metaKey)
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &meta)
	})
	return meta, ok, err
}

func (c *BoltCatalog) Close() error {
	return c.db.Close()
}

func seqKey(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
