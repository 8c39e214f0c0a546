package warehouse

import (
	"github.com/cespare/xxhash/v2"
	"github.com/oarkflow/json"
)

// ProductDoc is the JSON form of a product.
type ProductDoc struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Stock           int    `json:"stock"`
	Demand          int    `json:"demand"`
	LastActivityDay int    `json:"last_activity_day"`
}

// BucketDoc is the JSON form of a bucket. Products are in heap order.
type BucketDoc struct {
	Index    int          `json:"index"`
	Size     int          `json:"size"`
	Products []ProductDoc `json:"products"`
}

// Snapshot is a detached copy of the whole store, safe to hand to encoders
// after the store has moved on.
type Snapshot struct {
	Buckets []BucketDoc `json:"buckets"`
}

// Snapshot copies every bucket into a Snapshot.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Buckets: make([]BucketDoc, BucketCount)}
	for i, b := range s.buckets {
		doc := BucketDoc{
			Index:    i,
			Size:     b.Len(),
			Products: make([]ProductDoc, 0, b.Len()),
		}
		for _, p := range b.Products() {
			doc.Products = append(doc.Products, ProductDoc{
				ID:              p.id,
				Name:            p.Name,
				Stock:           p.Stock,
				Demand:          p.Demand,
				LastActivityDay: p.LastActivityDay,
			})
		}
		snap.Buckets[i] = doc
	}
	return snap
}

// MarshalJSON encodes the store as its Snapshot.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Digest returns the xxhash64 of the store's rendering. Two stores with the
// same digest hold the same products in the same slots.
func (s *Store) Digest() uint64 {
	return xxhash.Sum64String(s.String())
}
