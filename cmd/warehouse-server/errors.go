package main

import (
	"errors"
	"fmt"
	"io"

	"warehouse.lopezb.com/internal/warehouse"
)

// unknownCommandResponse sends an unknown command error to the client.
func (app *application) unknownCommandResponse(w io.Writer, commandName string) {
	msg := fmt.Sprintf("ERR unknown command '%s'", commandName)
	_ = app.writeErrorResponse(w, msg)
}

// wrongNumberOfArgsResponse sends a wrong number of arguments error to the client.
func (app *application) wrongNumberOfArgsResponse(w io.Writer, commandName string) {
	msg := fmt.Sprintf("ERR wrong number of arguments for '%s' command", commandName)
	_ = app.writeErrorResponse(w, msg)
}

// storeErrorResponse maps a warehouse error to its client-facing message.
// Errors with no mapping are logged and reported generically.
func (app *application) storeErrorResponse(w io.Writer, commandName string, err error) {
	switch {
	case errors.Is(err, warehouse.ErrNotFound):
		_ = app.writeErrorResponse(w, "ERR no such product")
	case errors.Is(err, warehouse.ErrInsufficientStock):
		_ = app.writeErrorResponse(w, "ERR insufficient stock")
	case errors.Is(err, warehouse.ErrOverflow):
		_ = app.writeErrorResponse(w, "ERR increment would overflow")
	case errors.Is(err, warehouse.ErrInvalidAmount):
		_ = app.writeErrorResponse(w, "ERR invalid amount")
	case errors.Is(err, warehouse.ErrInvalidProduct):
		_ = app.writeErrorResponse(w, "ERR stock and demand must be non-negative")
	case errors.Is(err, warehouse.ErrBucketNotFound):
		_ = app.writeErrorResponse(w, "ERR no such bucket")
	default:
		app.logger.Error("store operation failed", "command", commandName, "error", err)
		_ = app.writeErrorResponse(w, "ERR internal error")
	}
}
