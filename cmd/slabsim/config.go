package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/tailscale/hujson"

	"github.com/unkn0wn-root/slabcache"
	"github.com/unkn0wn-root/slabcache/layout"
)

var (
	errConfigInvalid = errors.New("invalid workload")
	errUnknownOp     = errors.New("unknown op")
)

// Workload is the JSONC file replayed by slabsim. Every top-level field can
// be overridden by the flag of the same name.
type Workload struct {
	Name     string `json:"name,omitempty"`
	Capacity int    `json:"capacity"`         // elements
	Stride   int    `json:"stride,omitempty"` // bytes; 0 => from layout
	Layout   string `json:"layout,omitempty"` // "solid" or "shaded"
	Policy   string `json:"policy,omitempty"` // "lru" or "insertion-order"
	Store    string `json:"store,omitempty"`  // "memory", "mmap" or "redis"
	Index    string `json:"index,omitempty"`  // "local", "ristretto", "bigcache" or "redis"

	MmapPath  string `json:"mmap_path,omitempty"`  //nolint:tagliatelle // snake_case for config file
	RedisAddr string `json:"redis_addr,omitempty"` //nolint:tagliatelle // snake_case for config file
	Shadow    bool   `json:"shadow,omitempty"`     // tee writes into a memory copy

	Ops []Op `json:"ops"`
}

// Op is one workload step.
//
//	{"op": "insert", "name": "cube", "size": 36, "fill": 7}
//	{"op": "insert", "name": "tile", "size": 6, "count": 100}
//	{"op": "query",  "name": "cube"}
//	{"op": "reset"}
//	{"op": "verify"}
type Op struct {
	Op    string `json:"op"`
	Name  string `json:"name,omitempty"`
	Size  int    `json:"size,omitempty"`  // elements
	Fill  int    `json:"fill,omitempty"`  // byte value written to every element
	Count int    `json:"count,omitempty"` // insert name#0..name#count-1
}

// DefaultWorkload is a solid-color slab in memory with no ops.
func DefaultWorkload() Workload {
	return Workload{
		Name:     "sim",
		Capacity: 1 << 16,
		Layout:   "solid",
		Policy:   "lru",
		Store:    "memory",
		Index:    "local",
	}
}

// LoadWorkload reads path (JSON with comments and trailing commas) over the
// defaults.
func LoadWorkload(path string) (Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, fmt.Errorf("reading workload: %w", err)
	}
	return parseWorkload(data, path)
}

func parseWorkload(data []byte, path string) (Workload, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Workload{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	w := DefaultWorkload()
	if err := json.Unmarshal(standardized, &w); err != nil {
		return Workload{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return w, nil
}

func (w Workload) validate() error {
	if w.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", errConfigInvalid)
	}
	if w.Stride < 0 {
		return fmt.Errorf("%w: stride must not be negative", errConfigInvalid)
	}
	if w.Stride == 0 {
		if _, err := w.layout(); err != nil {
			return err
		}
	}
	if _, err := w.policy(); err != nil {
		return err
	}
	for i, op := range w.Ops {
		switch op.Op {
		case "insert":
			if op.Name == "" {
				return fmt.Errorf("%w: op %d: insert needs a name", errConfigInvalid, i)
			}
		case "query":
			if op.Name == "" {
				return fmt.Errorf("%w: op %d: query needs a name", errConfigInvalid, i)
			}
		case "reset", "verify":
		default:
			return fmt.Errorf("%w: op %d: %w %q", errConfigInvalid, i, errUnknownOp, op.Op)
		}
	}
	return nil
}

func (w Workload) layout() (*gputypes.VertexBufferLayout, error) {
	l, ok := layout.ByName(strings.ToLower(w.Layout))
	if !ok {
		return nil, fmt.Errorf("%w: unknown layout %q", errConfigInvalid, w.Layout)
	}
	return &l, nil
}

func (w Workload) policy() (slabcache.Policy, error) {
	switch strings.ToLower(w.Policy) {
	case "", "lru":
		return slabcache.PolicyLRU, nil
	case "insertion-order", "fifo":
		return slabcache.PolicyInsertionOrder, nil
	default:
		return 0, fmt.Errorf("%w: unknown policy %q", errConfigInvalid, w.Policy)
	}
}
