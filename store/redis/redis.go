// Package redis mirrors a slab's backing region into a single Redis string.
// Useful for headless runs and for capturing the exact bytes a renderer
// uploaded. Writes map to SETRANGE, reads to GETRANGE.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/slabcache/store"
)

var (
	ErrNilClient   = errors.New("redis store: nil client")
	ErrInvalidSize = errors.New("redis store: size must be positive")
)

type Store struct {
	rdb         goredis.UniversalClient
	key         string
	size        int64
	closeClient bool
	deleteKey   bool
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Reader = (*Store)(nil)
)

type Config struct {
	Client goredis.UniversalClient
	Key    string // e.g. "slab:<name>"
	Size   int64
	// DeleteOnClose removes the key on Close.
	DeleteOnClose bool
	CloseClient   bool // set true only if this store exclusively owns the client
}

// New sizes the key to exactly Size bytes. Existing bytes under Key are kept
// when the key already has that length, otherwise it is recreated zeroed.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if cfg.Key == "" {
		return nil, errors.New("redis store: key is required")
	}
	n, err := cfg.Client.StrLen(ctx, cfg.Key).Result()
	if err != nil {
		return nil, err
	}
	if n != cfg.Size {
		if _, err := cfg.Client.Pipelined(ctx, func(p goredis.Pipeliner) error {
			p.Del(ctx, cfg.Key)
			p.SetRange(ctx, cfg.Key, cfg.Size-1, "\x00")
			return nil
		}); err != nil {
			return nil, fmt.Errorf("redis store: size %s: %w", cfg.Key, err)
		}
	}
	return &Store{
		rdb:         cfg.Client,
		key:         cfg.Key,
		size:        cfg.Size,
		closeClient: cfg.CloseClient,
		deleteKey:   cfg.DeleteOnClose,
	}, nil
}

func (s *Store) Size() int64 { return s.size }

func (s *Store) Write(ctx context.Context, off int64, p []byte) error {
	if err := store.CheckRange(s.size, off, len(p)); err != nil {
		return err
	}
	return s.rdb.SetRange(ctx, s.key, off, string(p)).Err()
}

func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= s.size {
		return 0, io.EOF
	}
	end := off + int64(len(p)) - 1
	if end >= s.size {
		end = s.size - 1
	}
	b, err := s.rdb.GetRange(context.Background(), s.key, off, end).Bytes()
	if err != nil {
		return 0, err
	}
	n := copy(p, b)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close optionally deletes the key and releases the client when this store
// owns it. Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.deleteKey {
		s.deleteKey = false
		if err := s.rdb.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.closeClient {
		s.closeClient = false
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
