package seq

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var ErrNilClient = errors.New("redis sequence: nil client")

// Redis issues ids with INCR on one key, so processes sharing the key never
// hand out the same id.
type Redis struct {
	rdb         redis.UniversalClient
	key         string
	closeClient bool
}

var _ Sequence = (*Redis)(nil)

type RedisConfig struct {
	Client      redis.UniversalClient
	Namespace   string // should match the slab name
	CloseClient bool   // set true only if this sequence exclusively owns the client
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, key: "seq:" + cfg.Namespace, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) Next(ctx context.Context) (uint64, error) {
	v, err := s.rdb.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.New("redis sequence: non-positive id")
	}
	return uint64(v), nil
}

// Close releases the underlying redis client only when this sequence owns it.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
	}
	return nil
}
