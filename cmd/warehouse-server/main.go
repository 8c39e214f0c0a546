// main.go is the entry point for the warehouse server. It builds the store,
// optionally preloads it from an operation script, and serves the command
// protocol until SIGINT or SIGTERM.
//
// Startup Sequence
// ================
//
// The store is created empty, with its removal journal attached. If -preload
// names a script, every record in it is applied before the listener opens, so
// the first client already sees the preloaded state and no locking is needed
// during the load.
//
// State lives only in memory. Restarting the server starts from an empty
// store (or from the preload script again).

package main

import (
	"flag"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"warehouse.lopezb.com/internal/warehouse"
)

type config struct {
	port            int
	maxConnections  int
	shutdownTimeout time.Duration
	idleTimeout     time.Duration
	journalSize     int
	score           string
	preload         string
}

type application struct {
	config      config
	logger      *slog.Logger
	listener    net.Listener
	store       *Store
	router      *Router
	metrics     *Metrics
	readyCh     chan struct{}
	wg          sync.WaitGroup
	connLimiter chan struct{}
}

func main() {
	var cfg config

	flag.IntVar(&cfg.port, "port", 6480, "TCP server port")
	flag.IntVar(&cfg.maxConnections, "max-conn", 100, "Maximum concurrent connections")
	flag.DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.DurationVar(&cfg.idleTimeout, "idle-timeout", 0, "Idle client connection timeout (0 for no timeout)")
	flag.IntVar(&cfg.journalSize, "journal-size", 128, "Number of removed products remembered for WH.EVICTED")
	flag.StringVar(&cfg.score, "score", "demand", "Popularity score: demand or recency")
	flag.StringVar(&cfg.preload, "preload", "", "Operation script applied at startup (empty for none)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	store, err := newStoreFromConfig(cfg)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app := &application{
		config:      cfg,
		logger:      logger,
		store:       store,
		metrics:     NewMetrics(),
		connLimiter: make(chan struct{}, cfg.maxConnections),
	}

	app.router = app.commands()

	if cfg.preload != "" {
		if err := app.preload(cfg.preload); err != nil {
			logger.Error("failed to preload store", "file", cfg.preload, "error", err)
			os.Exit(1)
		}
	}

	if err := app.serve(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// newStoreFromConfig builds the guarded store with the configured scorer
// and journal size.
func newStoreFromConfig(cfg config) (*Store, error) {
	scorer, err := warehouse.ParseScorer(cfg.score)
	if err != nil {
		return nil, err
	}
	journal, err := warehouse.NewJournal(cfg.journalSize)
	if err != nil {
		return nil, err
	}
	return NewStore(warehouse.Config{Scorer: scorer, Journal: journal}), nil
}
