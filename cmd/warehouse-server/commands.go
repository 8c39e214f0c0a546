package main

// commands creates a new router and registers all the application's command handlers.
// This is the single source of truth for what commands the server supports.
func (app *application) commands() *Router {
	router := NewRouter()

	// Generic Commands
	router.Handle("PING", app.handlePing)
	router.Handle("INFO", app.handleInfo)

	// Writes
	router.Handle("WH.ADD", app.handleAdd)
	router.Handle("WH.BADD", app.handleBetterAdd)
	router.Handle("WH.DEL", app.handleDelete)
	router.Handle("WH.RESTOCK", app.handleRestock)
	router.Handle("WH.BUY", app.handlePurchase)

	// Reads
	router.Handle("WH.GET", app.handleGet)
	router.Handle("WH.LOCATE", app.handleLocate)
	router.Handle("WH.BUCKET", app.handleBucket)
	router.Handle("WH.SHOW", app.handleShow)
	router.Handle("WH.JSON", app.handleJSON)
	router.Handle("WH.DIGEST", app.handleDigest)
	router.Handle("WH.EVICTED", app.handleEvicted)

	return router
}
