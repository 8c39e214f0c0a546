package warehouse

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Reason records why a product left the store.
type Reason string

const (
	ReasonEvicted Reason = "evicted"
	ReasonDeleted Reason = "deleted"
)

// Removal is a journal entry. Product is a detached copy taken at removal time.
type Removal struct {
	Seq     uint64
	Reason  Reason
	Product *Product
}

func (r Removal) String() string {
	return fmt.Sprintf("%d %s %s", r.Seq, r.Reason, r.Product)
}

// Journal remembers the most recently removed products, keyed by id. Removing
// the same id again replaces its entry. The oldest entries fall off once size
// is reached. Safe for concurrent use.
type Journal struct {
	cache *lru.Cache[int, Removal]
	seq   atomic.Uint64
}

// NewJournal creates a journal holding at most size entries.
func NewJournal(size int) (*Journal, error) {
	c, err := lru.New[int, Removal](size)
	if err != nil {
		return nil, fmt.Errorf("warehouse: journal: %w", err)
	}
	return &Journal{cache: c}, nil
}

// Record stores a removal under the next sequence number.
func (j *Journal) Record(reason Reason, p *Product) Removal {
	r := Removal{Seq: j.seq.Add(1), Reason: reason, Product: p.clone()}
	j.cache.Add(p.id, r)
	return r
}

// Get returns the latest removal recorded for id.
func (j *Journal) Get(id int) (Removal, bool) {
	return j.cache.Peek(id)
}

// Recent returns up to n removals, newest first. n <= 0 returns all of them.
func (j *Journal) Recent(n int) []Removal {
	keys := j.cache.Keys() // oldest to newest
	if n <= 0 || n > len(keys) {
		n = len(keys)
	}
	out := make([]Removal, 0, n)
	for i := len(keys) - 1; i >= 0 && len(out) < n; i-- {
		if r, ok := j.cache.Peek(keys[i]); ok {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of entries held.
func (j *Journal) Len() int { return j.cache.Len() }
