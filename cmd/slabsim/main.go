// Command slabsim replays a mesh upload workload against a slab cache and
// reports how the slab filled up and what it evicted.
//
// Usage:
//
//	slabsim --config workload.jsonc [--report out.json --format json]
//	slabsim --capacity 4096 --layout shaded --interactive
//	slabsim --config w.jsonc --store redis --redis-addr localhost:6379 --index redis
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/unkn0wn-root/slabcache"
	asynchook "github.com/unkn0wn-root/slabcache/hooks/async"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliOptions struct {
	config      string
	report      string
	format      string
	logKind     string
	verbose     bool
	hooks       bool
	interactive bool
	help        bool
}

func run(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("slabsim", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var opts cliOptions
	flagSet.StringVarP(&opts.config, "config", "c", "", "Workload file (JSONC)")
	flagSet.StringVar(&opts.report, "report", "", "Write the final snapshot and results to this file")
	flagSet.StringVar(&opts.format, "format", "json", "Report format: json, cbor, msgpack or proto")
	flagSet.StringVar(&opts.logKind, "log", "none", "Logger: zap, logrus, slog or none")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")
	flagSet.BoolVar(&opts.hooks, "hooks", false, "Log cache events through slog hooks")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "Start a REPL after the workload")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "Show help")

	def := DefaultWorkload()
	name := flagSet.String("name", def.Name, "Slab name")
	capacity := flagSet.Int("capacity", def.Capacity, "Slab capacity in elements")
	stride := flagSet.Int("stride", 0, "Bytes per element (overrides --layout)")
	layoutName := flagSet.String("layout", def.Layout, "Vertex layout: solid or shaded")
	policy := flagSet.String("policy", def.Policy, "Recency policy: lru or insertion-order")
	storeKind := flagSet.String("store", def.Store, "Backing store: memory, mmap or redis")
	indexKind := flagSet.String("index", def.Index, "Key index: local, ristretto, bigcache or redis")
	mmapPath := flagSet.String("mmap-path", "", "File to map for --store mmap (anonymous if empty)")
	redisAddr := flagSet.String("redis-addr", "", "Redis address for redis store/index")
	shadow := flagSet.Bool("shadow", false, "Keep a memory copy of every write")

	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}
	if opts.help {
		printUsage(out, flagSet)
		return 0
	}

	w := def
	if opts.config != "" {
		loaded, err := LoadWorkload(opts.config)
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		w = loaded
	}

	// flags given explicitly win over the file
	overrides := map[string]func(){
		"name":       func() { w.Name = *name },
		"capacity":   func() { w.Capacity = *capacity },
		"stride":     func() { w.Stride = *stride },
		"layout":     func() { w.Layout = *layoutName },
		"policy":     func() { w.Policy = *policy },
		"store":      func() { w.Store = *storeKind },
		"index":      func() { w.Index = *indexKind },
		"mmap-path":  func() { w.MmapPath = *mmapPath },
		"redis-addr": func() { w.RedisAddr = *redisAddr },
		"shadow":     func() { w.Shadow = *shadow },
	}
	for flagName, apply := range overrides {
		if flagSet.Changed(flagName) {
			apply()
		}
	}
	if err := w.validate(); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	if err := simulate(context.Background(), w, opts, out, errOut); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func simulate(ctx context.Context, w Workload, opts cliOptions, out, errOut io.Writer) (err error) {
	log, flush, err := newLogger(opts.logKind, opts.verbose, errOut)
	if err != nil {
		return err
	}
	defer flush()

	var hooks slabcache.Hooks
	if opts.hooks {
		ah := asynchook.New(newSlogHooks(errOut, opts.verbose), 1, 1024)
		defer func() {
			ah.Close()
			if n := ah.Dropped(); n > 0 {
				fmt.Fprintf(errOut, "hooks: dropped %d events\n", n)
			}
		}()
		hooks = ah
	}

	sim, err := openSim(ctx, w, log, hooks)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sim.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	results := sim.Run(ctx, w.Ops)
	printResults(out, results)
	printSummary(out, sim.cache)

	if opts.interactive {
		repl := &REPL{sim: sim, out: out}
		if err := repl.Run(ctx); err != nil {
			return err
		}
		results = append(results, repl.results...)
	}

	if opts.report != "" {
		rep := Report{Snapshot: sim.cache.Snapshot(), Results: results}
		if err := writeReport(opts.report, opts.format, rep); err != nil {
			return err
		}
		fmt.Fprintf(out, "report written to %s (%s)\n", opts.report, opts.format)
	}
	return nil
}

func printUsage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Usage: slabsim [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Replays a JSONC workload of insert/query/reset/verify ops against a slab cache.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fmt.Fprint(out, fs.FlagUsages())
}
