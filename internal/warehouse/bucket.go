package warehouse

import (
	"fmt"
	"math"
	"strings"
)

// BucketCapacity is the fixed number of slots in every bucket.
const BucketCapacity = 5

// Scorer maps a product to its popularity. Lower scores are evicted first.
type Scorer func(p *Product) int

// ByDemand scores a product by its cumulative demand.
func ByDemand(p *Product) int { return p.Demand }

// ByDemandAndRecency adds the last activity day to the demand, so products
// that sold recently outrank stale ones with the same demand. The sum
// saturates at math.MaxInt instead of wrapping.
func ByDemandAndRecency(p *Product) int {
	if p.LastActivityDay > 0 && p.Demand > math.MaxInt-p.LastActivityDay {
		return math.MaxInt
	}
	return p.Demand + p.LastActivityDay
}

// ParseScorer maps "demand" or "recency" to a Scorer.
func ParseScorer(name string) (Scorer, error) {
	switch name {
	case "demand":
		return ByDemand, nil
	case "recency":
		return ByDemandAndRecency, nil
	default:
		return nil, fmt.Errorf("warehouse: unknown score %q (want demand or recency)", name)
	}
}

// Bucket is a fixed-capacity binary min-heap of products ordered by score.
//
// Positions are 1-indexed so that the parent of p is p/2 and its children are
// 2p and 2p+1; slot 0 is never used. The root (position 1) is always the least
// popular product and is the one evicted when the bucket overflows.
//
// Insert does not restore heap order on its own. Callers batch inserts and then
// run RepairAll, or use SiftUp/SiftDown after mutating a single product.
//
// Ties are not broken by a secondary key: the comparisons are strict, so equal
// scores keep whatever positions the swaps left them in.
type Bucket struct {
	slots [BucketCapacity + 1]*Product
	size  int
	score Scorer
}

// NewBucket creates an empty bucket. A nil scorer defaults to ByDemand.
func NewBucket(score Scorer) *Bucket {
	if score == nil {
		score = ByDemand
	}
	return &Bucket{score: score}
}

// Len returns the number of occupied slots.
func (b *Bucket) Len() int { return b.size }

// Full reports whether every slot is occupied.
func (b *Bucket) Full() bool { return b.size == BucketCapacity }

func (b *Bucket) less(i, j int) bool {
	return b.score(b.slots[i]) < b.score(b.slots[j])
}

func (b *Bucket) swap(i, j int) {
	b.slots[i], b.slots[j] = b.slots[j], b.slots[i]
}

// Insert appends p at the next free position. It does not restore order.
func (b *Bucket) Insert(p *Product) error {
	if b.size == BucketCapacity {
		return ErrBucketFull
	}
	b.size++
	b.slots[b.size] = p
	return nil
}

// RepairAll re-validates the whole heap by bubbling every position from 2 up
// to Len toward the root. Unlike a single SiftUp on the last insert, this also
// fixes positions left out of order by earlier removals.
func (b *Bucket) RepairAll() {
	for i := 2; i <= b.size; i++ {
		b.SiftUp(i)
	}
}

// SiftUp bubbles the product at pos toward the root until its parent scores
// no higher. Out-of-range positions are ignored.
func (b *Bucket) SiftUp(pos int) {
	if pos < 1 || pos > b.size {
		return
	}
	for pos > 1 {
		parent := pos / 2
		if !b.less(pos, parent) {
			break
		}
		b.swap(pos, parent)
		pos = parent
	}
}

// SiftDown sinks the product at pos toward the leaves until both children
// score no lower. Returns true if the product moved.
func (b *Bucket) SiftDown(pos int) bool {
	if pos < 1 || pos > b.size {
		return false
	}
	start := pos
	for {
		j := 2 * pos // left child
		if j > b.size {
			break
		}
		if j+1 <= b.size && b.less(j+1, j) {
			j++ // pick smaller child
		}
		if !b.less(j, pos) {
			break
		}
		b.swap(pos, j)
		pos = j
	}
	return pos > start
}

// fix restores order around pos after the product there was replaced.
func (b *Bucket) fix(pos int) {
	if !b.SiftDown(pos) {
		b.SiftUp(pos)
	}
}

// EvictLeastPopular removes the root of a full bucket: the root is swapped
// with the last slot, the last slot is dropped and the new root sinks into
// place. It frees exactly one slot.
func (b *Bucket) EvictLeastPopular() (*Product, error) {
	if b.size != BucketCapacity {
		return nil, ErrBucketNotFull
	}
	b.swap(1, b.size)
	evicted := b.slots[b.size]
	b.slots[b.size] = nil
	b.size--
	b.SiftDown(1)
	return evicted, nil
}

// RemoveAt removes the product at pos by swapping it with the last occupied
// slot and shrinking. Order is restored from the root down and then around
// pos, since the product moved into pos may belong above or below it.
func (b *Bucket) RemoveAt(pos int) (*Product, error) {
	if pos < 1 || pos > b.size {
		return nil, ErrPositionOutOfRange
	}
	b.swap(pos, b.size)
	removed := b.slots[b.size]
	b.slots[b.size] = nil
	b.size--
	b.SiftDown(1)
	if pos <= b.size {
		b.fix(pos)
	}
	return removed, nil
}

// Find returns the position of id using a forward linear scan. With five
// slots this beats any index.
func (b *Bucket) Find(id int) (int, bool) {
	for i := 1; i <= b.size; i++ {
		if b.slots[i].id == id {
			return i, true
		}
	}
	return 0, false
}

// Slot returns the product at pos. Position 0 and positions past Len are
// empty. The product is live; see Store.Lookup.
func (b *Bucket) Slot(pos int) (*Product, bool) {
	if pos < 1 || pos > b.size {
		return nil, false
	}
	return b.slots[pos], true
}

// Min returns the least popular product without removing it.
func (b *Bucket) Min() (*Product, bool) {
	return b.Slot(1)
}

// Products returns the occupied slots in heap order. The slice is a copy,
// the products are not.
func (b *Bucket) Products() []*Product {
	out := make([]*Product, b.size)
	copy(out, b.slots[1:b.size+1])
	return out
}

// Valid reports whether every occupied position scores no lower than its
// parent.
func (b *Bucket) Valid() bool {
	for i := 2; i <= b.size; i++ {
		if b.less(i, i/2) {
			return false
		}
	}
	return true
}

// String renders the bucket as "[p1, p2, ...]" in heap order.
func (b *Bucket) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 1; i <= b.size; i++ {
		if i > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.slots[i].String())
	}
	sb.WriteByte(']')
	return sb.String()
}
