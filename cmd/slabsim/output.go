package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/slabcache"
	"github.com/unkn0wn-root/slabcache/codec"
	logruslog "github.com/unkn0wn-root/slabcache/log/logrus"
	sloglog "github.com/unkn0wn-root/slabcache/log/slog"
	zaplog "github.com/unkn0wn-root/slabcache/log/zap"
	"github.com/unkn0wn-root/slabcache/sloghooks"
)

// newLogger builds the cache logger selected by kind. flush must be called
// before exit.
func newLogger(kind string, verbose bool, errOut io.Writer) (slabcache.Logger, func(), error) {
	nop := func() {}
	switch kind {
	case "", "none":
		return slabcache.NopLogger{}, nop, nil
	case "zap":
		level := zapcore.InfoLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		core := zapcore.NewCore(enc, zapcore.AddSync(errOut), level)
		l := zap.New(core)
		return zaplog.New(l), func() { _ = l.Sync() }, nil
	case "logrus":
		l := logrus.New()
		l.SetOutput(errOut)
		if verbose {
			l.SetLevel(logrus.DebugLevel)
		}
		return logruslog.New(l), nop, nil
	case "slog":
		return sloglog.New(newSlog(errOut, verbose)), nop, nil
	default:
		return nil, nil, fmt.Errorf("unknown logger %q", kind)
	}
}

func newSlog(errOut io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}

func newSlogHooks(errOut io.Writer, verbose bool) *sloghooks.Hooks {
	every := uint64(100)
	if verbose {
		every = 1
	}
	return sloghooks.New(newSlog(errOut, verbose), sloghooks.Options{EvictedEvery: every, RejectedEvery: every})
}

func printResults(out io.Writer, results []Result) {
	for _, r := range results {
		switch {
		case r.Err != "":
			fmt.Fprintf(out, "%-7s %-20s error: %s\n", r.Op, r.Name, r.Err)
		case r.Op == "insert" || r.Op == "query" && r.Cached:
			state := "uploaded"
			if r.Cached {
				state = "cached"
			}
			fmt.Fprintf(out, "%-7s %-20s [%d, %d) %s\n", r.Op, r.Name, r.Start, r.End, state)
		case r.Op == "query":
			fmt.Fprintf(out, "%-7s %-20s miss\n", r.Op, r.Name)
		default:
			fmt.Fprintf(out, "%-7s ok\n", r.Op)
		}
	}
}

func printSummary(out io.Writer, c slabcache.Cache) {
	st := c.Stats()
	used := 0
	for _, r := range c.Snapshot().Records {
		used += r.End - r.Start
	}
	fmt.Fprintf(out, "Mesh cache: %.1f%% (%d records, %d/%d elements x %d bytes)\n",
		c.PercentageUsed(), c.Len(), used, c.Capacity(), c.Stride())
	fmt.Fprintf(out, "inserts=%d hits=%d misses=%d evictions=%d rejected=%d store_errors=%d resets=%d\n",
		st.Inserts, st.Hits, st.Misses, st.Evictions, st.Rejected, st.StoreErrors, st.Resets)
}

// writeReport encodes rep with the named codec and replaces path atomically.
func writeReport(path, format string, rep Report) error {
	c, ok := codec.ByName[Report](format)
	if !ok {
		return fmt.Errorf("unknown report format %q", format)
	}
	b, err := c.Encode(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return os.Chmod(path, 0o644)
}
