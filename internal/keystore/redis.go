package keystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// RedisConfig holds connection settings for RedisStore.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// RedisStore keeps keypairs in redis under "<prefix>keys:<identity>".
// SETNX provides the compare-and-set, so any number of docsign processes can
// share one redis without creating two keypairs for an identity.
type RedisStore struct {
	client *redis.Client
	prefix string
	codec  codec
}

// NewRedisStore wraps an existing client. The store takes ownership of the
// client and closes it on Close.
func NewRedisStore(client *redis.Client, prefix string, opts ...Option) *RedisStore {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore{client: client, prefix: prefix, codec: codec{sealer: o.sealer}}
}

// DialRedis connects to redis and verifies the connection with PING.
func DialRedis(ctx context.Context, cfg RedisConfig, opts ...Option) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: redis address cannot be empty", dserrors.ErrConfigInvalidRedis)
	}
	ropts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.DialTimeout > 0 {
		ropts.DialTimeout = cfg.DialTimeout
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: connecting to redis at %s: %w", dserrors.ErrKeyStoreUnavailable, cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.KeyPrefix, opts...), nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, identity domain.Identity) (*Entry, error) {
	rec, err := s.read(ctx, identity)
	if err != nil {
		return nil, err
	}
	return rec.entry(), nil
}

// PutIfAbsent implements Store.
func (s *RedisStore) PutIfAbsent(ctx context.Context, identity domain.Identity, kp *Keypair) (*Entry, bool, error) {
	if err := identity.Validate(); err != nil {
		return nil, false, err
	}
	data, err := s.codec.encode(identity, kp)
	if err != nil {
		return nil, false, err
	}

	created, err := s.client.SetNX(ctx, s.key(identity), data, 0).Result()
	if err != nil {
		return nil, false, s.unavailable(ctx, "setnx", err)
	}
	if !created {
		existing, err := s.read(ctx, identity)
		if err != nil {
			return nil, false, err
		}
		return existing.entry(), false, nil
	}

	rec, err := s.codec.decode(data)
	if err != nil {
		return nil, false, err
	}
	return rec.entry(), true, nil
}

// SignWith implements Store.
func (s *RedisStore) SignWith(ctx context.Context, identity domain.Identity, digest domain.Digest) (domain.Signature, error) {
	rec, err := s.read(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.codec.signRecord(rec, digest)
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.unavailable(ctx, "ping", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) read(ctx context.Context, identity domain.Identity) (*record, error) {
	data, err := s.client.Get(ctx, s.key(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dserrors.ErrKeyNotFound
	}
	if err != nil {
		return nil, s.unavailable(ctx, "get", err)
	}
	return s.codec.decode(data)
}

// unavailable maps a redis error to ErrKeyStoreUnavailable unless the caller
// canceled, in which case the context error is returned as is.
func (s *RedisStore) unavailable(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: redis %s: %w", dserrors.ErrKeyStoreUnavailable, op, err)
}

func (s *RedisStore) key(identity domain.Identity) string {
	return s.prefix + "keys:" + identity.String()
}
