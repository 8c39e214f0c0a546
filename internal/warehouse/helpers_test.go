package warehouse

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// requireHeaps fails the test if any bucket is over capacity or out of order.
func requireHeaps(t *testing.T, s *Store) {
	t.Helper()
	for i, b := range s.Buckets() {
		require.LessOrEqual(t, b.Len(), BucketCapacity, "bucket %d over capacity", i)
		require.True(t, b.Valid(), "bucket %d out of order:\n%s", i, spew.Sdump(b.Products()))
	}
}

// fillBucket adds BucketCapacity products routing to bucket i with demands
// 1..BucketCapacity.
func fillBucket(t *testing.T, s *Store, i int) {
	t.Helper()
	for n := 0; n < BucketCapacity; n++ {
		_, err := s.AddProduct(i+n*BucketCount, "filler", 10, 1, n+1)
		require.NoError(t, err)
	}
}

func demands(b *Bucket) []int {
	out := make([]int, 0, b.Len())
	for _, p := range b.Products() {
		out = append(out, p.Demand)
	}
	return out
}

func ids(b *Bucket) []int {
	out := make([]int, 0, b.Len())
	for _, p := range b.Products() {
		out = append(out, p.ID())
	}
	return out
}
