package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/slabcache"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Error("store write failed", slabcache.Fields{"slab": "mesh", "err": errors.New("device lost"), "start": 4})
	l.Debug("evicted", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries want 2", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "slabcache" || e.Level != zapcore.ErrorLevel {
		t.Fatalf("entry=%+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["slab"] != "mesh" || ctx["err"] != "device lost" || ctx["start"] != int64(4) {
		t.Fatalf("fields=%v", ctx)
	}
	// keys are emitted sorted
	if e.Context[0].Key != "err" || e.Context[2].Key != "start" {
		t.Fatalf("field order=%v", e.Context)
	}
}
