// Package warehouse implements a fixed-capacity inventory store.
//
// The store is a hash table of BucketCount buckets that never grows. Every
// bucket is a BucketCapacity-slot min-heap of products ordered by popularity,
// so when a bucket overflows the least popular product is evicted instead of
// rehashing into more space.
//
// Routing
// =======
//
// A product with id n lives in bucket n mod BucketCount. Every operation that
// addresses a product by id (restock, delete, purchase, lookup) scans only
// that home bucket.
//
// BetterAddProduct is the exception on the write side: when the home bucket
// is full it probes the following buckets for a free slot before evicting
// anything. A product placed this way is displaced. It lives outside its home
// bucket, and home-addressed operations will not find it. Locate scans every
// bucket and is the only lookup that sees displaced products.
//
// Concurrency
// ===========
//
// A Store is not safe for concurrent use. Wrappers that share one must
// serialize access themselves.
package warehouse

import (
	"fmt"
	"math"
	"strings"
)

// BucketCount is the fixed number of buckets in a store.
const BucketCount = 10

// Config holds optional store collaborators.
type Config struct {
	// Scorer orders products inside each bucket. Defaults to ByDemand.
	Scorer Scorer
	// Journal, when set, receives every evicted or deleted product.
	Journal *Journal
}

// AddResult describes where an insertion landed.
type AddResult struct {
	Bucket    int      // Bucket that received the product
	Evicted   *Product // Product evicted to make room, or nil
	Displaced bool     // True if Bucket is not the id's home bucket
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Products      int
	BucketSizes   [BucketCount]int
	Evictions     uint64
	Deletions     uint64
	Displacements uint64
}

// Store is an array of BucketCount buckets.
type Store struct {
	buckets [BucketCount]*Bucket
	journal *Journal

	evictions     uint64
	deletions     uint64
	displacements uint64
}

// New creates a store with BucketCount empty buckets.
func New(cfg Config) *Store {
	s := &Store{journal: cfg.Journal}
	for i := 0; i < BucketCount; i++ {
		s.buckets[i] = NewBucket(cfg.Scorer)
	}
	return s
}

// HomeBucket returns the bucket index an id routes to. Negative ids are
// folded into range.
func HomeBucket(id int) int {
	return ((id % BucketCount) + BucketCount) % BucketCount
}

func (s *Store) home(id int) *Bucket {
	return s.buckets[HomeBucket(id)]
}

// AddProduct inserts a product into its home bucket, evicting the least
// popular product first if the bucket is full, then repairs the heap.
func (s *Store) AddProduct(id int, name string, stock, day, demand int) (AddResult, error) {
	if stock < 0 || demand < 0 {
		return AddResult{}, fmt.Errorf("%w: id %d: negative stock or demand", ErrInvalidProduct, id)
	}

	h := HomeBucket(id)
	res := AddResult{Bucket: h}
	res.Evicted = s.evictIfNeeded(h)

	p := NewProduct(id, name, stock, day, demand)
	p.SetLastActivityDay(day)

	b := s.buckets[h]
	if err := b.Insert(p); err != nil {
		// Unreachable: evictIfNeeded always frees a slot.
		return res, fmt.Errorf("bucket %d: %w", h, err)
	}
	b.RepairAll()

	return res, nil
}

// evictIfNeeded frees one slot in bucket i if it is full and returns the
// evicted product.
func (s *Store) evictIfNeeded(i int) *Product {
	b := s.buckets[i]
	if !b.Full() {
		return nil
	}
	evicted, err := b.EvictLeastPopular()
	if err != nil {
		return nil
	}
	s.evictions++
	if s.journal != nil {
		s.journal.Record(ReasonEvicted, evicted)
	}
	return evicted
}

// BetterAddProduct inserts without evicting as long as any bucket has room.
//
// If the home bucket has room it behaves like AddProduct. Otherwise buckets
// are probed cyclically starting after the home bucket; the first one with a
// free slot receives the product, which is then displaced from its home. If
// the probe wraps back home, it falls back to AddProduct and evicts.
func (s *Store) BetterAddProduct(id int, name string, stock, day, demand int) (AddResult, error) {
	if stock < 0 || demand < 0 {
		return AddResult{}, fmt.Errorf("%w: id %d: negative stock or demand", ErrInvalidProduct, id)
	}

	h := HomeBucket(id)
	if !s.buckets[h].Full() {
		return s.AddProduct(id, name, stock, day, demand)
	}

	k := (h + 1) % BucketCount
	for k != h && s.buckets[k].Full() {
		k = (k + 1) % BucketCount
	}
	if k == h {
		return s.AddProduct(id, name, stock, day, demand)
	}

	p := NewProduct(id, name, stock, day, demand)
	p.SetLastActivityDay(day)

	b := s.buckets[k]
	if err := b.Insert(p); err != nil {
		return AddResult{}, fmt.Errorf("bucket %d: %w", k, err)
	}
	b.RepairAll()
	s.displacements++

	return AddResult{Bucket: k, Displaced: true}, nil
}

// RestockProduct adds amount to the stock of id. Amount may be negative as
// long as the stock stays non-negative, and positive as long as the stock
// fits in an int (ErrOverflow otherwise). Stock is not part of the ordering,
// so the heap is untouched.
func (s *Store) RestockProduct(id, amount int) (*Product, error) {
	b := s.home(id)
	pos, ok := b.Find(id)
	if !ok {
		return nil, fmt.Errorf("restock %d: %w", id, ErrNotFound)
	}
	p := b.slots[pos]
	if amount > 0 && p.Stock > math.MaxInt-amount {
		return nil, fmt.Errorf("restock %d by %d: %w", id, amount, ErrOverflow)
	}
	if p.Stock+amount < 0 {
		return nil, fmt.Errorf("restock %d by %d: %w", id, amount, ErrInsufficientStock)
	}
	p.UpdateStock(amount)
	return p, nil
}

// DeleteProduct removes id from its home bucket and returns it.
func (s *Store) DeleteProduct(id int) (*Product, error) {
	b := s.home(id)
	pos, ok := b.Find(id)
	if !ok {
		return nil, fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	removed, err := b.RemoveAt(pos)
	if err != nil {
		return nil, fmt.Errorf("delete %d: %w", id, err)
	}
	s.deletions++
	if s.journal != nil {
		s.journal.Record(ReasonDeleted, removed)
	}
	return removed, nil
}

// PurchaseProduct sells amount units of id on the given day.
//
// The home bucket is scanned in position order and the stock check runs
// against every product visited, not just the match: if amount exceeds the
// stock of any product reached before (or at) the match, the purchase is
// refused with ErrInsufficientStock and nothing changes. On success the
// product's day is stamped, its stock drops by amount, its demand rises by
// amount and it sinks to its new place in the heap. A purchase that would
// overflow the demand counter is refused with ErrOverflow.
func (s *Store) PurchaseProduct(id, day, amount int) (*Product, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("purchase %d: %w", id, ErrInvalidAmount)
	}

	b := s.home(id)
	for i := 1; i <= b.size; i++ {
		p := b.slots[i]
		if amount > p.Stock {
			return nil, fmt.Errorf("purchase %d of %d (blocked by %d): %w", amount, id, p.id, ErrInsufficientStock)
		}
		if p.id != id {
			continue
		}
		if p.Demand > math.MaxInt-amount {
			return nil, fmt.Errorf("purchase %d of %d: demand %d: %w", amount, id, p.Demand, ErrOverflow)
		}

		p.SetLastActivityDay(day)
		p.UpdateStock(-amount)
		p.UpdateDemand(amount)
		// Demand only grows, so this sinks; the rise is for recency scorers
		// fed an earlier day.
		b.fix(i)
		return p, nil
	}

	return nil, fmt.Errorf("purchase %d: %w", id, ErrNotFound)
}

// Lookup finds id in its home bucket.
//
// The product returned here, like those reachable through Bucket, Buckets
// and Slot, is the live record. Treat it as read-only: writing its fields
// directly bypasses the stock checks and leaves the heap out of order.
func (s *Store) Lookup(id int) (*Product, bool) {
	b := s.home(id)
	pos, ok := b.Find(id)
	if !ok {
		return nil, false
	}
	return b.slots[pos], true
}

// Locate scans every bucket for id, starting at its home, and reports where
// it actually lives. It finds displaced products that Lookup misses.
func (s *Store) Locate(id int) (bucket, pos int, ok bool) {
	h := HomeBucket(id)
	for n := 0; n < BucketCount; n++ {
		i := (h + n) % BucketCount
		if pos, ok := s.buckets[i].Find(id); ok {
			return i, pos, true
		}
	}
	return 0, 0, false
}

// Bucket returns bucket i.
func (s *Store) Bucket(i int) (*Bucket, error) {
	if i < 0 || i >= BucketCount {
		return nil, fmt.Errorf("bucket %d: %w", i, ErrBucketNotFound)
	}
	return s.buckets[i], nil
}

// Buckets returns the raw bucket array for external verification. The
// buckets and their products are live and must not be modified.
func (s *Store) Buckets() [BucketCount]*Bucket {
	return s.buckets
}

// Journal returns the attached journal, or nil.
func (s *Store) Journal() *Journal { return s.journal }

// Stats returns counters and bucket occupancy.
func (s *Store) Stats() Stats {
	st := Stats{
		Evictions:     s.evictions,
		Deletions:     s.deletions,
		Displacements: s.displacements,
	}
	for i, b := range s.buckets {
		st.BucketSizes[i] = b.Len()
		st.Products += b.Len()
	}
	return st
}

// String renders every bucket on its own tab-indented line between brackets.
func (s *Store) String() string {
	var sb strings.Builder
	sb.WriteString("[\n")
	for _, b := range s.buckets {
		sb.WriteByte('\t')
		sb.WriteString(b.String())
		sb.WriteByte('\n')
	}
	sb.WriteByte(']')
	return sb.String()
}
