package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/slabcache/codec"
)

const workloadJSONC = `{
	// three quads into a ten-element slab: the third evicts the first
	"name": "demo",
	"capacity": 10,
	"stride": 1,
	"ops": [
		{"op": "insert", "name": "a", "size": 4, "fill": 1},
		{"op": "insert", "name": "b", "size": 4, "fill": 2},
		{"op": "insert", "name": "c", "size": 4, "fill": 3},
		{"op": "query", "name": "a"},
		{"op": "insert", "name": "b", "size": 4},
		{"op": "insert", "name": "huge", "size": 11},
		{"op": "verify"},
	],
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseWorkloadAcceptsJSONC(t *testing.T) {
	w, err := parseWorkload([]byte(workloadJSONC), "w.jsonc")
	require.NoError(t, err)
	require.NoError(t, w.validate())

	assert.Equal(t, "demo", w.Name)
	assert.Equal(t, 10, w.Capacity)
	assert.Equal(t, "memory", w.Store, "defaults fill unset fields")
	assert.Len(t, w.Ops, 7)
}

func TestValidateRejectsBadWorkloads(t *testing.T) {
	cases := map[string]func(*Workload){
		"capacity":  func(w *Workload) { w.Capacity = 0 },
		"layout":    func(w *Workload) { w.Layout = "wireframe" },
		"policy":    func(w *Workload) { w.Policy = "mru" },
		"op":        func(w *Workload) { w.Ops = []Op{{Op: "delete", Name: "a"}} },
		"no name":   func(w *Workload) { w.Ops = []Op{{Op: "insert", Size: 1}} },
		"no target": func(w *Workload) { w.Ops = []Op{{Op: "query"}} },
	}
	for name, mutate := range cases {
		w := DefaultWorkload()
		mutate(&w)
		err := w.validate()
		if !errors.Is(err, errConfigInvalid) {
			t.Fatalf("%s: err=%v want errConfigInvalid", name, err)
		}
	}
}

func TestSimRunsWorkload(t *testing.T) {
	ctx := context.Background()
	w, err := parseWorkload([]byte(workloadJSONC), "w.jsonc")
	require.NoError(t, err)

	sim, err := openSim(ctx, w, nil, nil)
	require.NoError(t, err)
	defer sim.Close(ctx)

	res := sim.Run(ctx, w.Ops)
	require.Len(t, res, 7)

	assert.Equal(t, Result{Op: "insert", Name: "c", Start: 0, End: 4}, res[2])
	assert.Equal(t, Result{Op: "query", Name: "a"}, res[3], "a was evicted by c")
	assert.Equal(t, Result{Op: "insert", Name: "b", Start: 4, End: 8, Cached: true}, res[4])
	assert.Contains(t, res[5].Err, "uncached")
	assert.Empty(t, res[6].Err)

	st := sim.cache.Stats()
	assert.EqualValues(t, 3, st.Inserts)
	assert.EqualValues(t, 1, st.Evictions)
	assert.EqualValues(t, 1, st.Rejected)
}

func TestSimShadowAndCountedInserts(t *testing.T) {
	ctx := context.Background()
	w := DefaultWorkload()
	w.Capacity = 64
	w.Shadow = true

	sim, err := openSim(ctx, w, nil, nil)
	require.NoError(t, err)
	defer sim.Close(ctx)

	res := sim.Apply(ctx, Op{Op: "insert", Name: "tile", Size: 2, Fill: 5, Count: 3})
	require.Len(t, res, 3)
	assert.Equal(t, "tile#2", res[2].Name)

	// solid layout: 12 bytes per element
	assert.Equal(t, byte(5), sim.shadow.Bytes()[res[1].Start*12])
	assert.Equal(t, 3, sim.cache.Len())

	res = sim.Apply(ctx, Op{Op: "reset"})
	assert.Equal(t, "reset", res[0].Op)
	assert.Equal(t, 0, sim.cache.Len())
}

func TestSimRejectsUnknownBackends(t *testing.T) {
	ctx := context.Background()
	for _, mutate := range []func(*Workload){
		func(w *Workload) { w.Store = "tape" },
		func(w *Workload) { w.Index = "etcd" },
		func(w *Workload) { w.Store = "redis" }, // no address
	} {
		w := DefaultWorkload()
		mutate(&w)
		_, err := openSim(ctx, w, nil, nil)
		require.ErrorIs(t, err, errConfigInvalid)
	}
}

func TestRunWritesReport(t *testing.T) {
	cfg := writeFile(t, "w.jsonc", workloadJSONC)
	for _, format := range []string{"json", "cbor", "msgpack", "proto"} {
		t.Run(format, func(t *testing.T) {
			report := filepath.Join(t.TempDir(), "report."+format)
			var out, errOut bytes.Buffer
			code := run([]string{"--config", cfg, "--report", report, "--format", format, "--index", "bigcache"}, &out, &errOut)
			require.Equal(t, 0, code, errOut.String())
			assert.Contains(t, out.String(), "Mesh cache: 80.0%")

			raw, err := os.ReadFile(report)
			require.NoError(t, err)
			c, ok := codec.ByName[Report](format)
			require.True(t, ok)
			rep, err := c.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, "demo", rep.Snapshot.Name)
			assert.Len(t, rep.Snapshot.Records, 2)
			assert.Len(t, rep.Results, 7)
		})
	}
}

func TestRunFlagsOverrideWorkload(t *testing.T) {
	cfg := writeFile(t, "w.jsonc", workloadJSONC)
	var out, errOut bytes.Buffer
	code := run([]string{"-c", cfg, "--capacity", "100", "--policy", "insertion-order", "--log", "logrus", "--hooks"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	// with room for everything nothing is evicted
	assert.Contains(t, out.String(), "evictions=0")
	assert.Contains(t, errOut.String(), "slab created")
}

func TestRunReportsErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run([]string{"--no-such-flag"}, &out, &errOut))
	assert.Equal(t, 1, run([]string{"--config", "/does/not/exist.jsonc"}, &out, &errOut))
	assert.Equal(t, 1, run([]string{"--capacity", "16", "--format", "yaml", "--report", filepath.Join(t.TempDir(), "r")}, &out, &errOut))
	assert.Equal(t, 1, run([]string{"--log", "glog"}, &out, &errOut))

	out.Reset()
	assert.Equal(t, 0, run([]string{"--help"}, &out, &errOut))
	assert.True(t, strings.Contains(out.String(), "--capacity"))
}

func TestREPLExec(t *testing.T) {
	ctx := context.Background()
	w := DefaultWorkload()
	w.Capacity = 8
	w.Stride = 1
	sim, err := openSim(ctx, w, nil, nil)
	require.NoError(t, err)
	defer sim.Close(ctx)

	var out bytes.Buffer
	r := &REPL{sim: sim, out: &out}
	for _, line := range []string{"insert a 3 7", "query a", "owner 1", "owner 6", "snap", "stats", "verify", "bogus"} {
		require.False(t, r.exec(ctx, line), line)
	}
	require.True(t, r.exec(ctx, "quit"))

	s := out.String()
	for _, want := range []string{"[0, 3) uploaded", "[0, 3) cached", "element 1 belongs to record 1", "element 6 is free", "free          [3, 8)", "Unknown command: bogus"} {
		assert.Contains(t, s, want)
	}
	assert.Len(t, r.results, 3)
}
