package store

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// boltRecord is the msgpack-encoded value stored per key. Bolt keeps keys
// sorted, so List returns records in lexicographic key order.
type boltRecord struct {
	CreatedAt time.Time      `msgpack:"created_at"`
	UpdatedAt time.Time      `msgpack:"updated_at"`
	Data      map[string]any `msgpack:"data"`
	Version   int64          `msgpack:"version"`
}

// Bolt persists records in a bbolt database, one bucket per collection.
// Single-writer semantics come from bbolt itself.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) a bbolt database file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return &Bolt{db: db}, nil
}

// Get retrieves a record by key.
func (b *Bolt) Get(_ context.Context, collection, key string) (*Record, error) {
	var rec *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return ErrNotFound
		}
		raw := bkt.Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		var err error
		rec, err = decodeBoltRecord(key, raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert stores a new record.
func (b *Bolt) Insert(_ context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	now := time.Now().UTC()
	stored := boltRecord{
		CreatedAt: now,
		UpdatedAt: now,
		Data:      rec.Data,
		Version:   1,
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return errors.Join(ErrMarshal, err)
		}
		if bkt.Get([]byte(rec.Key)) != nil {
			return ErrAlreadyExists
		}
		raw, err := encodeBoltRecord(stored)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(rec.Key), raw)
	})
	if err != nil {
		return nil, err
	}

	out := rec.Clone()
	out.Version = stored.Version
	out.CreatedAt = stored.CreatedAt
	out.UpdatedAt = stored.UpdatedAt
	return out, nil
}

// Update replaces an existing record, enforcing optimistic locking when the
// incoming record carries a non-zero version.
func (b *Bolt) Update(_ context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	var stored boltRecord
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return ErrNotFound
		}
		raw := bkt.Get([]byte(rec.Key))
		if raw == nil {
			return ErrNotFound
		}
		cur, err := decodeBoltRecord(rec.Key, raw)
		if err != nil {
			return err
		}
		if rec.Version > 0 && rec.Version != cur.Version {
			return ErrVersionMismatch
		}

		stored = boltRecord{
			CreatedAt: cur.CreatedAt,
			UpdatedAt: time.Now().UTC(),
			Data:      rec.Data,
			Version:   cur.Version + 1,
		}
		enc, err := encodeBoltRecord(stored)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(rec.Key), enc)
	})
	if err != nil {
		return nil, err
	}

	out := rec.Clone()
	out.Version = stored.Version
	out.CreatedAt = stored.CreatedAt
	out.UpdatedAt = stored.UpdatedAt
	return out, nil
}

// Delete removes a record by key.
func (b *Bolt) Delete(_ context.Context, collection, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return ErrNotFound
		}
		if bkt.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return bkt.Delete([]byte(key))
	})
}

// List returns all records of a collection in key order.
func (b *Bolt) List(_ context.Context, collection string) ([]*Record, error) {
	var out []*Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			rec, err := decodeBoltRecord(string(k), v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Increment adds a delta to a numeric field inside a single write
// transaction.
func (b *Bolt) Increment(_ context.Context, collection, key, field string, delta float64) (float64, error) {
	var next float64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return ErrNotFound
		}
		raw := bkt.Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		rec, err := decodeBoltRecord(key, raw)
		if err != nil {
			return err
		}
		if rec.Data == nil {
			rec.Data = make(map[string]any)
		}

		cur, err := asFloat(rec.Data[field])
		if err != nil {
			return err
		}
		next = cur + delta
		rec.Data[field] = next

		enc, err := encodeBoltRecord(boltRecord{
			CreatedAt: rec.CreatedAt,
			UpdatedAt: time.Now().UTC(),
			Data:      rec.Data,
			Version:   rec.Version + 1,
		})
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), enc)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Close closes the underlying bbolt database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// encodeBoltRecord uses the pooled msgpack encoder with sorted map keys, so
// identical records always encode to identical bytes.
func encodeBoltRecord(rec boltRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(rec)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return buf.Bytes(), nil
}

func decodeBoltRecord(key string, raw []byte) (*Record, error) {
	var br boltRecord
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(raw))
	err := dec.Decode(&br)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return &Record{
		CreatedAt: br.CreatedAt,
		UpdatedAt: br.UpdatedAt,
		Data:      normalizeDecoded(br.Data),
		Key:       key,
		Version:   br.Version,
	}, nil
}

// normalizeDecoded rewrites msgpack's map[any]any mappings into
// map[string]any so decoded records look like the ones that went in.
func normalizeDecoded(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch c := v.(type) {
	case map[string]any:
		return normalizeDecoded(c)
	case map[any]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			if ks, ok := k.(string); ok {
				out[ks] = normalizeValue(e)
			}
		}
		return out
	case []any:
		for i, e := range c {
			c[i] = normalizeValue(e)
		}
		return c
	default:
		return v
	}
}

var (
	_ Store       = (*Bolt)(nil)
	_ Incrementer = (*Bolt)(nil)
)
