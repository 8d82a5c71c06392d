package meshindex

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"
)

// BigCache keeps entries off the Go heap; suited to very large shape counts.
// Entries expire after LifeWindow regardless of use.
type BigCache struct {
	c *bc.BigCache
}

var _ Index = (*BigCache)(nil)

type BigCacheConfig struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	Shards             int // power of two; 0 => 64
	MaxEntriesInWindow int // sizing hint; 0 => 16384
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func NewBigCache(cfg BigCacheConfig) (*BigCache, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	// entries are a fixed-size ref plus the key
	conf.MaxEntrySize = 64
	conf.Shards = 64
	conf.MaxEntriesInWindow = 1 << 14
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.Verbose = false
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &BigCache{c: c}, nil
}

func (b *BigCache) Get(_ context.Context, key string) (Entry, bool, error) {
	raw, err := b.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e, err := decode(raw)
	if err != nil {
		_ = b.c.Delete(key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (b *BigCache) Set(_ context.Context, key string, e Entry) error {
	return b.c.Set(key, encode(e))
}

func (b *BigCache) Del(_ context.Context, key string) error {
	err := b.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (b *BigCache) Close(context.Context) error { return b.c.Close() }
