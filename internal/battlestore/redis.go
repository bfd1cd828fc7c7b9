package battlestore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "pkbattle:"

// RedisStore keeps each slot as a JSON string with a TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore dials redisURL (redis:// or rediss://) and pings it.
// A ttl of zero keeps slots until deleted.
func NewRedisStore(redisURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStore) slotKey(slot string) string { return s.prefix + "slot:" + slot }

func (s *RedisStore) Save(ctx context.Context, slot string, saved SavedBattle) error {
	key, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	raw, err := encode(saved)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.slotKey(key), raw, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, slot string) (*SavedBattle, error) {
	key, err := normalizeSlot(slot)
	if err != nil {
		return nil, err
	}
	raw, err := s.rdb.Get(ctx, s.slotKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (s *RedisStore) Delete(ctx context.Context, slot string) error {
	key, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, s.slotKey(key)).Err()
}

// ParseRedisURL converts redis://[:password@]host:port/db into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
