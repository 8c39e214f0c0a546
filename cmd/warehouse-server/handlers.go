// handlers.go implements general utility commands.
//
// This file provides server-level commands that are not tied to products:
// PING and INFO.

package main

import (
	"fmt"
	"io"
	"strings"

	"warehouse.lopezb.com/internal/warehouse"
)

// handlePing handles the PING command.
// Syntax: PING
func (app *application) handlePing(w io.Writer, args []string) {
	if len(args) != 0 {
		app.wrongNumberOfArgsResponse(w, "PING")
		return
	}

	_ = app.writeSimpleStringResponse(w, "PONG")
}

// handleInfo handles the INFO command.
// Syntax: INFO
//
// The report follows the Redis INFO layout: CRLF-terminated "key:value"
// lines grouped under "# Section" headers. The Server section comes from the
// atomic metrics; the Warehouse section is read under the store lock.
func (app *application) handleInfo(w io.Writer, args []string) {
	if len(args) > 0 {
		app.wrongNumberOfArgsResponse(w, "INFO")
		return
	}

	totalConns := app.metrics.TotalConnections.Load()
	totalCmds := app.metrics.TotalCommands.Load()
	failedCmds := app.metrics.FailedCommands.Load()
	activeConns := len(app.connLimiter)

	var (
		stats warehouse.Stats
		valid = true
	)
	_ = app.store.View(func(wh *warehouse.Store) error {
		stats = wh.Stats()
		for _, b := range wh.Buckets() {
			valid = valid && b.Valid()
		}
		return nil
	})

	var journaled int
	if j := app.store.Journal(); j != nil {
		journaled = j.Len()
	}

	var b strings.Builder

	b.WriteString("# Server\r\n")
	fmt.Fprintf(&b, "connections_total:%d\r\n", totalConns)
	fmt.Fprintf(&b, "connections_active:%d\r\n", activeConns)
	fmt.Fprintf(&b, "commands_processed_total:%d\r\n", totalCmds)
	fmt.Fprintf(&b, "commands_failed_total:%d\r\n", failedCmds)

	b.WriteString("# Warehouse\r\n")
	fmt.Fprintf(&b, "products:%d\r\n", stats.Products)
	fmt.Fprintf(&b, "capacity:%d\r\n", warehouse.BucketCount*warehouse.BucketCapacity)
	for i, n := range stats.BucketSizes {
		fmt.Fprintf(&b, "bucket%d:%d\r\n", i, n)
	}
	fmt.Fprintf(&b, "evictions_total:%d\r\n", stats.Evictions)
	fmt.Fprintf(&b, "deletions_total:%d\r\n", stats.Deletions)
	fmt.Fprintf(&b, "displacements_total:%d\r\n", stats.Displacements)
	fmt.Fprintf(&b, "journal_entries:%d\r\n", journaled)
	fmt.Fprintf(&b, "heaps_valid:%t\r\n", valid)

	_ = app.writeBulkStringResponse(w, b.String())
}
