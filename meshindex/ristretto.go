package meshindex

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"
)

// Ristretto bounds the index by cost, useful when scenes stream far more
// shapes than the slab can ever hold.
type Ristretto struct {
	c *rc.Cache
}

var _ Index = (*Ristretto)(nil)

type RistrettoConfig struct {
	NumCounters int64
	MaxCost     int64 // in encoded bytes
	BufferItems int64
	Metrics     bool
}

func NewRistretto(cfg RistrettoConfig) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("meshindex: invalid ristretto config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (r *Ristretto) Get(_ context.Context, key string) (Entry, bool, error) {
	v, ok := r.c.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	b, _ := v.([]byte)
	e, err := decode(b)
	if err != nil {
		// self-heal: drop unexpected entry shape
		r.c.Del(key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set waits for the write buffer so the next Get observes the entry.
// Admission may still reject it.
func (r *Ristretto) Set(_ context.Context, key string, e Entry) error {
	b := encode(e)
	if r.c.Set(key, b, int64(len(b))) {
		r.c.Wait()
	}
	return nil
}

func (r *Ristretto) Del(_ context.Context, key string) error {
	r.c.Del(key)
	return nil
}

func (r *Ristretto) Close(context.Context) error {
	r.c.Wait()
	r.c.Close()
	return nil
}

// Metrics exposes ristretto's counters (nil unless enabled in config).
func (r *Ristretto) Metrics() *rc.Metrics { return r.c.Metrics }
