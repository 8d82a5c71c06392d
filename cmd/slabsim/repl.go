package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

// REPL drives a Sim one op at a time.
type REPL struct {
	sim     *Sim
	out     io.Writer
	liner   *liner.State
	results []Result
}

var replCommands = []string{"insert", "query", "owner", "reset", "verify", "stats", "snap", "help", "quit"}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".slabsim_history")
}

// Run reads commands until quit, EOF or Ctrl-C.
func (r *REPL) Run(ctx context.Context) error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range replCommands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c)
			}
		}
		return out
	})
	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}
	defer r.saveHistory()

	fmt.Fprintln(r.out, "Type 'help' for available commands.")
	for {
		line, err := r.liner.Prompt("slab> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		if quit := r.exec(ctx, line); quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the REPL should stop.
func (r *REPL) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		r.printHelp()
	case "insert", "put":
		if len(args) < 2 {
			fmt.Fprintln(r.out, "usage: insert <name> <elements> [fill]")
			return false
		}
		size, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintln(r.out, "bad element count:", err)
			return false
		}
		fill := 0
		if len(args) > 2 {
			if fill, err = strconv.Atoi(args[2]); err != nil {
				fmt.Fprintln(r.out, "bad fill:", err)
				return false
			}
		}
		r.apply(ctx, Op{Op: "insert", Name: args[0], Size: size, Fill: fill})
	case "query", "get":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: query <name>")
			return false
		}
		r.apply(ctx, Op{Op: "query", Name: args[0]})
	case "owner":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: owner <element>")
			return false
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(r.out, "bad element:", err)
			return false
		}
		if id, ok := r.sim.cache.Owner(i); ok {
			fmt.Fprintf(r.out, "element %d belongs to record %d\n", i, id)
		} else {
			fmt.Fprintf(r.out, "element %d is free\n", i)
		}
	case "reset":
		r.apply(ctx, Op{Op: "reset"})
	case "verify":
		r.apply(ctx, Op{Op: "verify"})
	case "stats":
		printSummary(r.out, r.sim.cache)
	case "snap", "snapshot":
		snap := r.sim.cache.Snapshot()
		for _, rec := range snap.Records {
			fmt.Fprintf(r.out, "  record %-6d [%d, %d) clock=%d\n", rec.ID, rec.Start, rec.End, rec.Clock)
		}
		for _, sp := range snap.Free {
			fmt.Fprintf(r.out, "  free          [%d, %d)\n", sp.Start, sp.End)
		}
	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (r *REPL) apply(ctx context.Context, op Op) {
	res := r.sim.Apply(ctx, op)
	r.results = append(r.results, res...)
	printResults(r.out, res)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, `Commands:
  insert <name> <elements> [fill]  Resolve name, uploading on miss
  query <name>                     Look name up without uploading
  owner <element>                  Record covering an element
  reset                            Drop every record
  verify                           Check slab invariants
  stats                            Usage and counters
  snap                             Records and free ranges in address order
  quit                             Leave`)
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}
