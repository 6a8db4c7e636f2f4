package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheKey is the fixed key under which the configuration list is cached.
const CacheKey = "ai_configurations"

// AnonymousScope is the cache scope read when no user is authenticated. It
// holds the last list loaded for any user.
const AnonymousScope = ""

func scopedKey(scope string) string {
	if scope == "" {
		return CacheKey
	}
	return CacheKey + ":" + scope
}

// FileCache stores the configuration list as JSON files in a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func (f *FileCache) path(scope string) string {
	name := unsafeChars.ReplaceAllString(scopedKey(scope), "_")
	return filepath.Join(f.dir, name+".json")
}

// Load implements LocalCache. A missing file is an empty cache.
func (f *FileCache) Load(ctx context.Context, scope string) ([]Configuration, error) {
	data, err := os.ReadFile(f.path(scope))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var configs []Configuration
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("corrupt configuration cache: %w", err)
	}
	return configs, nil
}

// Save implements LocalCache. The file is replaced atomically.
func (f *FileCache) Save(ctx context.Context, scope string, configs []Configuration) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(configs)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(scope))
}

// RedisCache stores the configuration list in Redis.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache on client. Keys are prefix + CacheKey.
// A zero ttl keeps entries until overwritten.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Load implements LocalCache. A missing key is an empty cache.
func (r *RedisCache) Load(ctx context.Context, scope string) ([]Configuration, error) {
	data, err := r.client.Get(ctx, r.prefix+scopedKey(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var configs []Configuration
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("corrupt configuration cache: %w", err)
	}
	return configs, nil
}

// Save implements LocalCache.
func (r *RedisCache) Save(ctx context.Context, scope string, configs []Configuration) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+scopedKey(scope), data, r.ttl).Err()
}
