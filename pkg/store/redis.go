package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTxRetries = 5

// redisRecord is the JSON value stored per document key.
type redisRecord struct {
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Data      map[string]any `json:"data"`
	Version   int64          `json:"version"`
}

// Redis persists records as JSON strings. Each record lives under
// {prefix}:{collection}:{key}; a per-collection sorted set scored by insert
// time keeps List in insertion order. Writes that depend on current state
// run inside WATCH transactions, retried on contention.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis connects to a redis:// or rediss:// URL with exponential backoff
// and returns a record store on top of it.
func NewRedis(ctx context.Context, url string, opts ...RedisOption) (*Redis, error) {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}

	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrConnectionFailed
	}
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	attempts := max(o.retryAttempts, 1)
	for i := range attempts {
		client := redis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err == nil {
			return &Redis{client: client, prefix: o.prefix}, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * o.retryInterval):
		}
	}

	return nil, ErrConnectionFailed
}

// Get retrieves a record by key.
func (r *Redis) Get(ctx context.Context, collection, key string) (*Record, error) {
	raw, err := r.client.Get(ctx, r.recordKey(collection, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return decodeRedisRecord(key, raw)
}

// Insert stores a new record.
func (r *Redis) Insert(ctx context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	recKey := r.recordKey(collection, rec.Key)
	now := time.Now().UTC()
	stored := redisRecord{
		CreatedAt: now,
		UpdatedAt: now,
		Data:      rec.Data,
		Version:   1,
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}

	txn := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, recKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recKey, raw, 0)
			pipe.ZAdd(ctx, r.indexKey(collection), redis.Z{
				Score:  float64(now.UnixNano()),
				Member: rec.Key,
			})
			return nil
		})
		return err
	}
	if err := r.watch(ctx, txn, recKey); err != nil {
		return nil, err
	}

	out := rec.Clone()
	out.Version = stored.Version
	out.CreatedAt = stored.CreatedAt
	out.UpdatedAt = stored.UpdatedAt
	return out, nil
}

// Update replaces an existing record. WATCH guards the version check: a
// concurrent writer invalidates the transaction and the check reruns
// against fresh state.
func (r *Redis) Update(ctx context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	recKey := r.recordKey(collection, rec.Key)
	var stored redisRecord

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, recKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		var cur redisRecord
		if err := json.Unmarshal(raw, &cur); err != nil {
			return errors.Join(ErrUnmarshal, err)
		}
		if rec.Version > 0 && rec.Version != cur.Version {
			return ErrVersionMismatch
		}

		stored = redisRecord{
			CreatedAt: cur.CreatedAt,
			UpdatedAt: time.Now().UTC(),
			Data:      rec.Data,
			Version:   cur.Version + 1,
		}
		enc, err := json.Marshal(stored)
		if err != nil {
			return errors.Join(ErrMarshal, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recKey, enc, 0)
			return nil
		})
		return err
	}
	if err := r.watch(ctx, txn, recKey); err != nil {
		return nil, err
	}

	out := rec.Clone()
	out.Version = stored.Version
	out.CreatedAt = stored.CreatedAt
	out.UpdatedAt = stored.UpdatedAt
	return out, nil
}

// Delete removes a record by key.
func (r *Redis) Delete(ctx context.Context, collection, key string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.recordKey(collection, key))
	pipe.ZRem(ctx, r.indexKey(collection), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrMarshal, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all records of a collection in insertion order.
func (r *Redis) List(ctx context.Context, collection string) ([]*Record, error) {
	keys, err := r.client.ZRange(ctx, r.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	recKeys := make([]string, len(keys))
	for i, k := range keys {
		recKeys[i] = r.recordKey(collection, k)
	}
	vals, err := r.client.MGet(ctx, recKeys...).Result()
	if err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}

	out := make([]*Record, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Index entry without a record: deleted between ZRange and MGet.
			continue
		}
		rec, err := decodeRedisRecord(keys[i], []byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Increment adds a delta to a numeric field inside a WATCH transaction.
func (r *Redis) Increment(ctx context.Context, collection, key, field string, delta float64) (float64, error) {
	recKey := r.recordKey(collection, key)
	var next float64

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, recKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		var cur redisRecord
		if err := json.Unmarshal(raw, &cur); err != nil {
			return errors.Join(ErrUnmarshal, err)
		}
		if cur.Data == nil {
			cur.Data = make(map[string]any)
		}

		f, err := asFloat(cur.Data[field])
		if err != nil {
			return err
		}
		next = f + delta
		cur.Data[field] = next
		cur.Version++
		cur.UpdatedAt = time.Now().UTC()

		enc, err := json.Marshal(cur)
		if err != nil {
			return errors.Join(ErrMarshal, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recKey, enc, 0)
			return nil
		})
		return err
	}
	if err := r.watch(ctx, txn, recKey); err != nil {
		return 0, err
	}
	return next, nil
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// watch runs a transactional function, retrying a bounded number of times
// when a concurrent write invalidates the watched key.
func (r *Redis) watch(ctx context.Context, txn func(*redis.Tx) error, keys ...string) error {
	for range redisTxRetries {
		err := r.client.Watch(ctx, txn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrVersionMismatch
}

func (r *Redis) recordKey(collection, key string) string {
	return r.prefix + ":" + collection + ":" + key
}

func (r *Redis) indexKey(collection string) string {
	return r.prefix + ":idx:" + collection
}

func decodeRedisRecord(key string, raw []byte) (*Record, error) {
	var rr redisRecord
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return &Record{
		CreatedAt: rr.CreatedAt,
		UpdatedAt: rr.UpdatedAt,
		Data:      rr.Data,
		Key:       key,
		Version:   rr.Version,
	}, nil
}

// RedisOption configures the redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix        string
	retryAttempts int
	retryInterval time.Duration
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		prefix:        "vellum",
		retryAttempts: 3,
		retryInterval: 5 * time.Second,
	}
}

// WithRedisPrefix sets the key namespace. Default: "vellum".
func WithRedisPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithRedisRetry configures connection retry behavior.
// Default: 3 attempts, 5 second base interval with exponential backoff.
func WithRedisRetry(attempts int, interval time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

var (
	_ Store       = (*Redis)(nil)
	_ Incrementer = (*Redis)(nil)
	_ Pinger      = (*Redis)(nil)
)
