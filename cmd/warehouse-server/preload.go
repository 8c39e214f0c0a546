package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"warehouse.lopezb.com/internal/opstream"
	"warehouse.lopezb.com/internal/warehouse"
)

// preload applies an operation script to the store before the server starts
// accepting connections. Records that address missing products are counted
// and skipped; a malformed script aborts startup.
func (app *application) preload(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return app.preloadFrom(f)
}

func (app *application) preloadFrom(r io.Reader) error {
	start := time.Now()
	reader := opstream.NewReader(r)

	var applied, skipped int
	err := app.store.Mutate(func(wh *warehouse.Store) error {
		for {
			op, err := reader.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("preload: %w", err)
			}

			if _, err := opstream.Apply(wh, op, opstream.StrategyBasic); err != nil {
				skipped++
				app.logger.Debug("preload record skipped", "op", op.String(), "error", err)
				continue
			}
			applied++
		}
	})
	if err != nil {
		return err
	}

	app.logger.Info("store preloaded",
		"applied", applied,
		"skipped", skipped,
		"duration", time.Since(start))
	return nil
}
