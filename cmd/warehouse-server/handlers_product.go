// handlers_product.go implements the WH.* product commands.
//
// Every handler parses its arguments before taking the store lock and copies
// whatever it needs to reply out of the store inside the lock; responses are
// written after the lock is released so a slow client never holds the store.

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/oarkflow/json"

	"warehouse.lopezb.com/internal/warehouse"
)

type addFunc func(wh *warehouse.Store, id int, name string, stock, day, demand int) (warehouse.AddResult, error)

// handleAdd handles WH.ADD.
// Syntax: WH.ADD id name stock day demand
// Reply: [bucket, evicted-id or nil]
func (app *application) handleAdd(w io.Writer, args []string) {
	app.add(w, "WH.ADD", args, (*warehouse.Store).AddProduct)
}

// handleBetterAdd handles WH.BADD, which probes other buckets before evicting.
// Syntax: WH.BADD id name stock day demand
// Reply: [bucket, evicted-id or nil]
func (app *application) handleBetterAdd(w io.Writer, args []string) {
	app.add(w, "WH.BADD", args, (*warehouse.Store).BetterAddProduct)
}

func (app *application) add(w io.Writer, commandName string, args []string, fn addFunc) {
	if len(args) != 5 {
		app.wrongNumberOfArgsResponse(w, commandName)
		return
	}

	name := args[1]
	nums, msg, ok := parseInts(
		[]string{args[0], args[2], args[3], args[4]},
		"id", "stock", "day", "demand",
	)
	if !ok {
		_ = app.writeErrorResponse(w, msg)
		return
	}
	id, stock, day, demand := nums[0], nums[1], nums[2], nums[3]

	var res warehouse.AddResult
	err := app.store.Mutate(func(wh *warehouse.Store) error {
		var err error
		res, err = fn(wh, id, name, stock, day, demand)
		return err
	})
	if err != nil {
		app.storeErrorResponse(w, commandName, err)
		return
	}

	if res.Evicted != nil {
		app.logger.Debug("product evicted", "bucket", res.Bucket, "evicted", res.Evicted.ID(), "by", id)
	}

	buf := appendArrayHeader(make([]byte, 0, 32), 2)
	buf = appendInteger(buf, int64(res.Bucket))
	if res.Evicted != nil {
		buf = appendInteger(buf, int64(res.Evicted.ID()))
	} else {
		buf = appendNil(buf)
	}
	_, _ = w.Write(buf)
}

// handleDelete handles WH.DEL.
// Syntax: WH.DEL id
// Reply: 1 if the product was removed, 0 if its home bucket does not hold it.
func (app *application) handleDelete(w io.Writer, args []string) {
	if len(args) != 1 {
		app.wrongNumberOfArgsResponse(w, "WH.DEL")
		return
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		_ = app.writeErrorResponse(w, "ERR id is not an integer")
		return
	}

	err = app.store.Mutate(func(wh *warehouse.Store) error {
		_, err := wh.DeleteProduct(id)
		return err
	})
	switch {
	case err == nil:
		_ = app.writeIntegerResponse(w, 1)
	case errors.Is(err, warehouse.ErrNotFound):
		_ = app.writeIntegerResponse(w, 0)
	default:
		app.storeErrorResponse(w, "WH.DEL", err)
	}
}

// handleRestock handles WH.RESTOCK.
// Syntax: WH.RESTOCK id amount
// Reply: the new stock.
func (app *application) handleRestock(w io.Writer, args []string) {
	if len(args) != 2 {
		app.wrongNumberOfArgsResponse(w, "WH.RESTOCK")
		return
	}

	nums, msg, ok := parseInts(args, "id", "amount")
	if !ok {
		_ = app.writeErrorResponse(w, msg)
		return
	}

	var stock int
	err := app.store.Mutate(func(wh *warehouse.Store) error {
		p, err := wh.RestockProduct(nums[0], nums[1])
		if err != nil {
			return err
		}
		stock = p.Stock
		return nil
	})
	if err != nil {
		app.storeErrorResponse(w, "WH.RESTOCK", err)
		return
	}

	_ = app.writeIntegerResponse(w, stock)
}

// handlePurchase handles WH.BUY.
// Syntax: WH.BUY id day amount
// Reply: the remaining stock.
//
// A purchase can be refused for insufficient stock even when the product
// itself has enough, if a product scanned before it in the bucket has less.
func (app *application) handlePurchase(w io.Writer, args []string) {
	if len(args) != 3 {
		app.wrongNumberOfArgsResponse(w, "WH.BUY")
		return
	}

	nums, msg, ok := parseInts(args, "id", "day", "amount")
	if !ok {
		_ = app.writeErrorResponse(w, msg)
		return
	}

	var stock int
	err := app.store.Mutate(func(wh *warehouse.Store) error {
		p, err := wh.PurchaseProduct(nums[0], nums[1], nums[2])
		if err != nil {
			return err
		}
		stock = p.Stock
		return nil
	})
	if err != nil {
		app.storeErrorResponse(w, "WH.BUY", err)
		return
	}

	_ = app.writeIntegerResponse(w, stock)
}

// handleGet handles WH.GET.
// Syntax: WH.GET id
// Reply: the product rendering, or nil. Only the home bucket is searched.
func (app *application) handleGet(w io.Writer, args []string) {
	if len(args) != 1 {
		app.wrongNumberOfArgsResponse(w, "WH.GET")
		return
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		_ = app.writeErrorResponse(w, "ERR id is not an integer")
		return
	}

	var (
		rendered string
		found    bool
	)
	_ = app.store.View(func(wh *warehouse.Store) error {
		if p, ok := wh.Lookup(id); ok {
			rendered, found = p.String(), true
		}
		return nil
	})

	if !found {
		_ = app.writeNilResponse(w)
		return
	}
	_ = app.writeBulkStringResponse(w, rendered)
}

// handleLocate handles WH.LOCATE.
// Syntax: WH.LOCATE id
// Reply: [bucket, position], or nil. Every bucket is searched, so displaced
// products are found too.
func (app *application) handleLocate(w io.Writer, args []string) {
	if len(args) != 1 {
		app.wrongNumberOfArgsResponse(w, "WH.LOCATE")
		return
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		_ = app.writeErrorResponse(w, "ERR id is not an integer")
		return
	}

	var (
		bucket, pos int
		found       bool
	)
	_ = app.store.View(func(wh *warehouse.Store) error {
		bucket, pos, found = wh.Locate(id)
		return nil
	})

	if !found {
		_ = app.writeNilResponse(w)
		return
	}
	_ = app.writeIntegerArrayResponse(w, []int{bucket, pos})
}

// handleBucket handles WH.BUCKET.
// Syntax: WH.BUCKET index
func (app *application) handleBucket(w io.Writer, args []string) {
	if len(args) != 1 {
		app.wrongNumberOfArgsResponse(w, "WH.BUCKET")
		return
	}

	idx, err := strconv.Atoi(args[0])
	if err != nil {
		_ = app.writeErrorResponse(w, "ERR index is not an integer")
		return
	}

	var rendered string
	err = app.store.View(func(wh *warehouse.Store) error {
		b, err := wh.Bucket(idx)
		if err != nil {
			return err
		}
		rendered = b.String()
		return nil
	})
	if err != nil {
		app.storeErrorResponse(w, "WH.BUCKET", err)
		return
	}

	_ = app.writeBulkStringResponse(w, rendered)
}

// handleShow handles WH.SHOW.
// Syntax: WH.SHOW
func (app *application) handleShow(w io.Writer, args []string) {
	if len(args) != 0 {
		app.wrongNumberOfArgsResponse(w, "WH.SHOW")
		return
	}

	var rendered string
	_ = app.store.View(func(wh *warehouse.Store) error {
		rendered = wh.String()
		return nil
	})

	_ = app.writeBulkStringResponse(w, rendered)
}

// handleJSON handles WH.JSON.
// Syntax: WH.JSON
//
// The snapshot is taken under the lock and encoded after it is released.
func (app *application) handleJSON(w io.Writer, args []string) {
	if len(args) != 0 {
		app.wrongNumberOfArgsResponse(w, "WH.JSON")
		return
	}

	var snap warehouse.Snapshot
	_ = app.store.View(func(wh *warehouse.Store) error {
		snap = wh.Snapshot()
		return nil
	})

	data, err := json.Marshal(snap)
	if err != nil {
		app.storeErrorResponse(w, "WH.JSON", err)
		return
	}

	_ = app.writeBulkBytesResponse(w, data)
}

// handleDigest handles WH.DIGEST.
// Syntax: WH.DIGEST
// Reply: the 64-bit store digest as 16 hex digits.
func (app *application) handleDigest(w io.Writer, args []string) {
	if len(args) != 0 {
		app.wrongNumberOfArgsResponse(w, "WH.DIGEST")
		return
	}

	var digest uint64
	_ = app.store.View(func(wh *warehouse.Store) error {
		digest = wh.Digest()
		return nil
	})

	_ = app.writeBulkStringResponse(w, fmt.Sprintf("%016x", digest))
}

// handleEvicted handles WH.EVICTED.
// Syntax: WH.EVICTED [count]
// Reply: up to count journal entries, newest first. Without count, all of them.
func (app *application) handleEvicted(w io.Writer, args []string) {
	if len(args) > 1 {
		app.wrongNumberOfArgsResponse(w, "WH.EVICTED")
		return
	}

	count := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			_ = app.writeErrorResponse(w, "ERR count must be a non-negative integer")
			return
		}
		if n == 0 {
			_ = app.writeBulkArrayResponse(w, nil)
			return
		}
		count = n
	}

	j := app.store.Journal()
	if j == nil {
		_ = app.writeBulkArrayResponse(w, nil)
		return
	}

	recent := j.Recent(count)
	lines := make([]string, len(recent))
	for i, r := range recent {
		lines[i] = r.String()
	}

	_ = app.writeBulkArrayResponse(w, lines)
}
