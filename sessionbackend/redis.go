package sessionbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sagarc03/r2gate"
)

const (
	redisSessionPrefix = "r2gate:session:"
	redisUserPrefix    = "r2gate:user:"
)

// indexSession adds a session id to its owner's index and keeps the index
// alive as long as its longest-lived session. A non-expiring session (ttl 0)
// makes the index persistent; an index that already holds such sessions is
// never given a TTL.
var indexSession = redis.NewScript(`
redis.call('SADD', KEYS[1], ARGV[1])
local ttl = tonumber(ARGV[2])
if ttl <= 0 then
	redis.call('PERSIST', KEYS[1])
	return 1
end
local cur = redis.call('PTTL', KEYS[1])
if cur == -1 and redis.call('SCARD', KEYS[1]) > 1 then
	return 1
end
if cur < ttl then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// RedisConfig holds connection settings for the Redis session store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type redisSession struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// RedisStore keeps sessions in Redis. Each session is a JSON value under
// r2gate:session:<id>; a set under r2gate:user:<username> indexes a user's
// session ids for bulk removal. Sessions with an expiry get a native key TTL,
// and the index expires with the last of them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Lookup returns the session with the given id.
func (s *RedisStore) Lookup(ctx context.Context, id string) (r2gate.Session, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return r2gate.Session{}, fmt.Errorf("lookup session: %w", r2gate.ErrInvalidSession)
	}
	if err != nil {
		return r2gate.Session{}, fmt.Errorf("lookup session: %w", err)
	}

	var rs redisSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return r2gate.Session{}, fmt.Errorf("lookup session: decode: %w", err)
	}

	return r2gate.Session{
		ID:        id,
		Username:  rs.Username,
		CreatedAt: rs.CreatedAt,
		ExpiresAt: rs.ExpiresAt,
	}, nil
}

// Insert stores session and adds it to its owner's index.
func (s *RedisStore) Insert(ctx context.Context, session r2gate.Session) error {
	data, err := json.Marshal(redisSession{
		Username:  session.Username,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("insert session: encode: %w", err)
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("insert session: already expired at %s: %w",
				session.ExpiresAt.Format(time.RFC3339), r2gate.ErrInvalidInput)
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisSessionPrefix+session.ID, data, ttl)
		indexSession.Eval(ctx, pipe, []string{redisUserPrefix + session.Username}, session.ID, ttl.Milliseconds())
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Remove deletes the session with the given id.
func (s *RedisStore) Remove(ctx context.Context, id string) error {
	session, err := s.Lookup(ctx, id)
	if errors.Is(err, r2gate.ErrInvalidSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisSessionPrefix+id)
		pipe.SRem(ctx, redisUserPrefix+session.Username, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// RemoveByUser deletes every session indexed under username. Ids whose
// session key already expired are dropped from the index without counting.
func (s *RedisStore) RemoveByUser(ctx context.Context, username string) (int, error) {
	userKey := redisUserPrefix + username

	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("remove user sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, redisSessionPrefix+id)
	}

	var deleted *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("remove user sessions: %w", err)
	}

	return int(deleted.Val()), nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
