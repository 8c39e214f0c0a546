// warehouse-sim applies an operation script to an empty warehouse store and
// prints the final state. It is the offline counterpart of warehouse-server:
// the same store, the same script format the server preloads, no network.
//
// Usage Examples
// ==============
//
// Replay a script from stdin and print the bucket rendering:
//
//	warehouse-sim < ops.txt
//
// Compare eviction strategies on the same input by digest:
//
//	warehouse-sim -in ops.txt -strategy basic -digest
//	warehouse-sim -in ops.txt -strategy better -digest
//
// Dump the final state as JSON and log every record:
//
//	warehouse-sim -in ops.txt -format json -v
//
// Records that address a missing product, or that a purchase cannot satisfy,
// are skipped and counted; they do not stop the run.
//
// Exit Codes
// ==========
//
// 0: The script was applied.
// 1: Bad flags, unreadable input, a malformed script, or a failed write.

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"warehouse.lopezb.com/internal/opstream"
	"warehouse.lopezb.com/internal/warehouse"
)

type config struct {
	in       string
	out      string
	format   string
	strategy string
	score    string
	digest   bool
	verbose  bool
}

// summary counts what happened to the records of one run.
type summary struct {
	records int
	applied int
	skipped int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process globals, so tests can drive it.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return 1
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := simulate(cfg, logger, stdin, stdout); err != nil {
		logger.Error("simulation failed", "error", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("warehouse-sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.in, "in", "", "Operation script (empty for stdin)")
	fs.StringVar(&cfg.out, "out", "", "Output file (empty for stdout)")
	fs.StringVar(&cfg.format, "format", "text", "Output format: text or json")
	fs.StringVar(&cfg.strategy, "strategy", "basic", "How add records are applied: basic or better")
	fs.StringVar(&cfg.score, "score", "demand", "Popularity score: demand or recency")
	fs.BoolVar(&cfg.digest, "digest", false, "Print the store digest after the rendering")
	fs.BoolVar(&cfg.verbose, "v", false, "Log every record")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.format != "text" && cfg.format != "json" {
		err := fmt.Errorf("unknown format %q (want text or json)", cfg.format)
		fmt.Fprintln(stderr, err)
		return cfg, err
	}
	return cfg, nil
}

func simulate(cfg config, logger *slog.Logger, stdin io.Reader, stdout io.Writer) error {
	strategy, err := opstream.ParseStrategy(cfg.strategy)
	if err != nil {
		return err
	}

	scorer, err := warehouse.ParseScorer(cfg.score)
	if err != nil {
		return err
	}

	in := stdin
	if cfg.in != "" {
		f, err := os.Open(cfg.in)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	store := warehouse.New(warehouse.Config{Scorer: scorer})

	sum, err := replay(store, opstream.NewReader(in), strategy, logger)
	if err != nil {
		return err
	}

	stats := store.Stats()
	logger.Info("script applied",
		"records", sum.records,
		"applied", sum.applied,
		"skipped", sum.skipped,
		"products", stats.Products,
		"evictions", stats.Evictions,
		"displacements", stats.Displacements)

	if cfg.out != "" {
		return writeFile(cfg.out, func(w io.Writer) error { return render(w, store, cfg) })
	}
	return render(stdout, store, cfg)
}

// writeFile creates path and hands fn a buffered writer on it. Errors from
// the final flush and close are returned, so a short write never passes as
// success.
func writeFile(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// replay applies every record in r to store.
func replay(store *warehouse.Store, r *opstream.Reader, strategy opstream.Strategy, logger *slog.Logger) (summary, error) {
	var sum summary
	for {
		op, err := r.Next()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, err
		}
		sum.records++

		outcome, err := opstream.Apply(store, op, strategy)
		if err != nil {
			sum.skipped++
			logger.Debug("record skipped", "record", sum.records, "op", op.String(), "error", err)
			continue
		}
		sum.applied++

		switch op.Kind {
		case opstream.KindAdd, opstream.KindBetterAdd:
			attrs := []any{"record", sum.records, "op", op.String(), "bucket", outcome.Add.Bucket}
			if outcome.Add.Displaced {
				attrs = append(attrs, "displaced", true)
			}
			if ev := outcome.Add.Evicted; ev != nil {
				attrs = append(attrs, "evicted", ev.String())
			}
			logger.Debug("record applied", attrs...)
		default:
			logger.Debug("record applied", "record", sum.records, "op", op.String(), "product", outcome.Product.String())
		}
	}
}

func render(w io.Writer, store *warehouse.Store, cfg config) error {
	switch cfg.format {
	case "json":
		data, err := store.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	default:
		if _, err := fmt.Fprintln(w, store.String()); err != nil {
			return err
		}
	}

	if cfg.digest {
		if _, err := fmt.Fprintf(w, "digest %016x\n", store.Digest()); err != nil {
			return err
		}
	}
	return nil
}
