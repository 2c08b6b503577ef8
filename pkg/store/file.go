package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileLockTimeout    = 3 * time.Second
	fileLockRetryDelay = 100 * time.Millisecond
)

// fileRecord is the on-disk shape of a Record.
type fileRecord struct {
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Data      map[string]any `json:"data"`
	Key       string         `json:"key"`
	Version   int64          `json:"version"`
}

// fileData is the JSON document layout: collections keep records in
// insertion order.
type fileData struct {
	Collections map[string][]fileRecord `json:"collections"`
}

// File persists records in a single JSON file. A sidecar flock guards the
// file against concurrent processes; an in-process mutex guards against
// concurrent goroutines. Every operation reloads the file, so multiple
// processes see each other's writes.
type File struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	closed bool
}

// NewFile opens a JSON file store at path, creating parent directories as
// needed. The file itself is created on first write.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return &File{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Get retrieves a record by key.
func (f *File) Get(ctx context.Context, collection, key string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	data, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, fr := range data.Collections[collection] {
		if fr.Key == key {
			return recordFromFile(fr), nil
		}
	}
	return nil, ErrNotFound
}

// Insert stores a new record.
func (f *File) Insert(ctx context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	data, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	recs := data.Collections[collection]
	for _, fr := range recs {
		if fr.Key == rec.Key {
			return nil, ErrAlreadyExists
		}
	}

	now := time.Now().UTC()
	fr := fileRecord{
		CreatedAt: now,
		UpdatedAt: now,
		Data:      cloneMap(rec.Data),
		Key:       rec.Key,
		Version:   1,
	}
	data.Collections[collection] = append(recs, fr)

	if err := f.save(ctx, data); err != nil {
		return nil, err
	}
	return recordFromFile(fr), nil
}

// Update replaces an existing record, enforcing optimistic locking when the
// incoming record carries a non-zero version.
func (f *File) Update(ctx context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	data, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	recs := data.Collections[collection]
	i := slices.IndexFunc(recs, func(fr fileRecord) bool { return fr.Key == rec.Key })
	if i < 0 {
		return nil, ErrNotFound
	}
	if rec.Version > 0 && rec.Version != recs[i].Version {
		return nil, ErrVersionMismatch
	}

	fr := fileRecord{
		CreatedAt: recs[i].CreatedAt,
		UpdatedAt: time.Now().UTC(),
		Data:      cloneMap(rec.Data),
		Key:       rec.Key,
		Version:   recs[i].Version + 1,
	}
	recs[i] = fr

	if err := f.save(ctx, data); err != nil {
		return nil, err
	}
	return recordFromFile(fr), nil
}

// Delete removes a record by key.
func (f *File) Delete(ctx context.Context, collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	data, err := f.load(ctx)
	if err != nil {
		return err
	}
	recs := data.Collections[collection]
	i := slices.IndexFunc(recs, func(fr fileRecord) bool { return fr.Key == key })
	if i < 0 {
		return ErrNotFound
	}
	data.Collections[collection] = slices.Delete(recs, i, i+1)

	return f.save(ctx, data)
}

// List returns all records of a collection in insertion order.
func (f *File) List(ctx context.Context, collection string) ([]*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	data, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	recs := data.Collections[collection]
	out := make([]*Record, 0, len(recs))
	for _, fr := range recs {
		out = append(out, recordFromFile(fr))
	}
	return out, nil
}

// Increment adds a delta to a numeric field under the file lock, so two
// processes bumping the same counter never lose a write to each other.
func (f *File) Increment(ctx context.Context, collection, key, field string, delta float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}

	data, err := f.load(ctx)
	if err != nil {
		return 0, err
	}
	recs := data.Collections[collection]
	i := slices.IndexFunc(recs, func(fr fileRecord) bool { return fr.Key == key })
	if i < 0 {
		return 0, ErrNotFound
	}
	if recs[i].Data == nil {
		recs[i].Data = make(map[string]any)
	}

	cur, err := asFloat(recs[i].Data[field])
	if err != nil {
		return 0, err
	}
	next := cur + delta
	recs[i].Data[field] = next
	recs[i].Version++
	recs[i].UpdatedAt = time.Now().UTC()

	if err := f.save(ctx, data); err != nil {
		return 0, err
	}
	return next, nil
}

// Close marks the store as closed and removes the sidecar lock file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	_ = os.Remove(f.path + ".lock")
	return nil
}

// load reads the whole file under the cross-process lock. A missing or
// empty file yields an empty store.
func (f *File) load(ctx context.Context) (*fileData, error) {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileData{Collections: make(map[string][]fileRecord)}, nil
		}
		return nil, errors.Join(ErrUnmarshal, err)
	}
	if len(raw) == 0 {
		return &fileData{Collections: make(map[string][]fileRecord)}, nil
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	if data.Collections == nil {
		data.Collections = make(map[string][]fileRecord)
	}
	return &data, nil
}

// save writes the whole file atomically: marshal, write a temp file next to
// the target, rename over it.
func (f *File) save(ctx context.Context, data *fileData) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Join(ErrMarshal, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Join(ErrMarshal, err)
	}
	return nil
}

func (f *File) acquire(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, fileLockTimeout)
	defer cancel()

	locked, err := f.lock.TryLockContext(lockCtx, fileLockRetryDelay)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	if !locked {
		return nil, ErrConnectionFailed
	}
	return func() { _ = f.lock.Unlock() }, nil
}

func recordFromFile(fr fileRecord) *Record {
	return &Record{
		CreatedAt: fr.CreatedAt,
		UpdatedAt: fr.UpdatedAt,
		Data:      cloneMap(fr.Data),
		Key:       fr.Key,
		Version:   fr.Version,
	}
}

var (
	_ Store       = (*File)(nil)
	_ Incrementer = (*File)(nil)
)
