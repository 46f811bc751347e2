// Package redis is the Redis-backed shared cache tier.
//
// Each entry is a hash at <prefix>entry:<fingerprint>. Each (category,
// language) partition keeps a list of recently stored fingerprints at
// <prefix>recent:<category>:<language>, newest first, trimmed on every push.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pario-ai/promptsmith/pkg/models"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "promptsmith:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implements cache.SharedStore on Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

// touchScript bumps the count of an existing entry only, so a concurrently
// expired key is not resurrected as a bare counter. The expiry never moves
// earlier.
var touchScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HINCRBY', KEYS[1], 'count', ARGV[2])
local cur = tonumber(redis.call('HGET', KEYS[1], 'expires')) or 0
if tonumber(ARGV[1]) > cur then
	redis.call('HSET', KEYS[1], 'expires', ARGV[1])
	redis.call('PEXPIREAT', KEYS[1], ARGV[1])
end
return 1
`)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.Prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix selects DefaultPrefix.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) entryKey(fp string) string {
	return s.prefix + "entry:" + fp
}

func (s *Store) windowKey(cat models.Category, lang models.Language) string {
	return s.prefix + "recent:" + string(cat) + ":" + string(lang)
}

// Get returns the entry for fp, or nil if it is absent.
func (s *Store) Get(ctx context.Context, fp string) (*models.CacheEntry, error) {
	fields, err := s.client.HGetAll(ctx, s.entryKey(fp)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	e, ok := decode(fp, fields)
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Put writes the entry hash, its expiry and the window push in one MULTI.
func (s *Store) Put(ctx context.Context, e models.CacheEntry, window int) error {
	if window <= 0 {
		return fmt.Errorf("redis put: window must be positive, got %d", window)
	}
	key := s.entryKey(e.Fingerprint)
	wkey := s.windowKey(e.Category, e.Language)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"response": e.Response,
			"text":     e.Text,
			"category": string(e.Category),
			"language": string(e.Language),
			"created":  e.CreatedAt.UnixMilli(),
			"count":    e.Count,
			"expires":  e.ExpiresAt.UnixMilli(),
		})
		pipe.PExpireAt(ctx, key, e.ExpiresAt)
		pipe.LPush(ctx, wkey, e.Fingerprint)
		pipe.LTrim(ctx, wkey, 0, int64(window-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Touch adds hits to the request count of fp and moves its expiry later.
func (s *Store) Touch(ctx context.Context, fp string, hits int64, expiresAt time.Time) error {
	err := touchScript.Run(ctx, s.client, []string{s.entryKey(fp)}, expiresAt.UnixMilli(), hits).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis touch: %w", err)
	}
	return nil
}

// Recent returns up to n entries of a partition, newest first. Fingerprints
// pushed more than once appear once; entries already gone are skipped.
func (s *Store) Recent(ctx context.Context, cat models.Category, lang models.Language, n int) ([]models.CacheEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	fps, err := s.client.LRange(ctx, s.windowKey(cat, lang), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis recent: %w", err)
	}

	seen := make(map[string]bool, len(fps))
	unique := fps[:0]
	for _, fp := range fps {
		if !seen[fp] {
			seen[fp] = true
			unique = append(unique, fp)
		}
	}

	cmds := make([]*goredis.MapStringStringCmd, len(unique))
	_, err = s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, fp := range unique {
			cmds[i] = pipe.HGetAll(ctx, s.entryKey(fp))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis recent: %w", err)
	}

	out := make([]models.CacheEntry, 0, len(unique))
	for i, fp := range unique {
		if e, ok := decode(fp, cmds[i].Val()); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of entry hashes.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.scan(ctx, s.prefix+"entry:*", func(keys []string) error {
		n += int64(len(keys))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis count: %w", err)
	}
	return n, nil
}

// Clear deletes every key under the store's prefix.
func (s *Store) Clear(ctx context.Context) error {
	err := s.scan(ctx, s.prefix+"*", func(keys []string) error {
		return s.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) scan(ctx context.Context, match string, fn func([]string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func decode(fp string, fields map[string]string) (models.CacheEntry, bool) {
	resp, ok := fields["response"]
	if !ok {
		return models.CacheEntry{}, false
	}
	count, _ := strconv.ParseInt(fields["count"], 10, 64)
	return models.CacheEntry{
		Fingerprint: fp,
		Text:        fields["text"],
		Category:    models.Category(fields["category"]),
		Language:    models.Language(fields["language"]),
		Response:    resp,
		CreatedAt:   millis(fields["created"]),
		Count:       count,
		ExpiresAt:   millis(fields["expires"]),
	}, true
}

func millis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
