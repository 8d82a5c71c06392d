package meshindex

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrNilClient = errors.New("meshindex: nil redis client")

// Redis shares the index between processes that upload into one shared
// backing store (see store/redis and seq.Redis).
type Redis struct {
	rdb         goredis.UniversalClient
	ttl         time.Duration
	closeClient bool
}

var _ Index = (*Redis)(nil)

type RedisConfig struct {
	Client      goredis.UniversalClient
	TTL         time.Duration // 0 = no expiry
	CloseClient bool          // set true only if this index exclusively owns the client
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, ttl: cfg.TTL, closeClient: cfg.CloseClient}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return Entry{}, false, nil // miss
	}
	if err != nil {
		return Entry{}, false, err // transport/server error
	}
	e, err := decode(b)
	if err != nil {
		_ = r.rdb.Del(ctx, key).Err()
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, e Entry) error {
	return r.rdb.Set(ctx, key, encode(e), r.ttl).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *Redis) Close(context.Context) error {
	if r.closeClient {
		if err := r.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
