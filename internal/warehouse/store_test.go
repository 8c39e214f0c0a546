package warehouse

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/oarkflow/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeBucket(t *testing.T) {
	tests := []struct {
		id   int
		want int
	}{
		{0, 0},
		{7, 7},
		{10, 0},
		{123, 3},
		{-3, 7},
		{-10, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HomeBucket(tt.id), "id %d", tt.id)
	}
}

func TestAddProductEvictsLeastPopular(t *testing.T) {
	s := New(Config{})
	for i, id := range []int{0, 10, 20, 30, 40} {
		res, err := s.AddProduct(id, "item", 10, 1, i+1)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Bucket)
		assert.Nil(t, res.Evicted)
		assert.False(t, res.Displaced)
	}
	requireHeaps(t, s)

	res, err := s.AddProduct(50, "newcomer", 10, 2, 6)
	require.NoError(t, err)
	require.NotNil(t, res.Evicted)
	assert.Equal(t, 0, res.Evicted.ID())
	assert.Equal(t, 1, res.Evicted.Demand)

	b, err := s.Bucket(0)
	require.NoError(t, err)
	assert.Equal(t, BucketCapacity, b.Len())
	_, ok := s.Lookup(0)
	assert.False(t, ok)
	_, ok = s.Lookup(50)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), s.Stats().Evictions)
	requireHeaps(t, s)
}

// The capacity guard runs before the insert, so a newcomer less popular than
// everything in the bucket still gets in.
func TestAddProductEvictsBeforeInsert(t *testing.T) {
	s := New(Config{})
	fillBucket(t, s, 4)

	res, err := s.AddProduct(54, "unpopular", 1, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evicted.Demand)

	p, ok := s.Lookup(54)
	require.True(t, ok)
	assert.Equal(t, 3, p.LastActivityDay)
	root, _ := s.buckets[4].Min()
	assert.Equal(t, 54, root.ID())
	requireHeaps(t, s)
}

func TestAddProductInvalid(t *testing.T) {
	s := New(Config{})
	_, err := s.AddProduct(1, "bad", -1, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidProduct)
	_, err = s.BetterAddProduct(1, "bad", 0, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidProduct)
	assert.Equal(t, 0, s.Stats().Products)
}

func TestBetterAddProduct(t *testing.T) {
	t.Run("home has room", func(t *testing.T) {
		s := New(Config{})
		res, err := s.BetterAddProduct(12, "x", 1, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Bucket)
		assert.False(t, res.Displaced)
	})

	// A displaced product is invisible to operations addressed by id mod 10.
	t.Run("displaced to next bucket", func(t *testing.T) {
		s := New(Config{})
		fillBucket(t, s, 0)

		res, err := s.BetterAddProduct(50, "overflow", 10, 2, 9)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Bucket)
		assert.True(t, res.Displaced)
		assert.Nil(t, res.Evicted)
		assert.Equal(t, uint64(0), s.Stats().Evictions)
		assert.Equal(t, uint64(1), s.Stats().Displacements)

		_, ok := s.Lookup(50)
		assert.False(t, ok)
		_, err = s.DeleteProduct(50)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.RestockProduct(50, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.PurchaseProduct(50, 3, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		bucket, pos, ok := s.Locate(50)
		require.True(t, ok)
		assert.Equal(t, 1, bucket)
		assert.Equal(t, 1, pos)
		requireHeaps(t, s)
	})

	t.Run("probe wraps around", func(t *testing.T) {
		s := New(Config{})
		for i := 0; i < BucketCount; i++ {
			if i != 2 {
				fillBucket(t, s, i)
			}
		}

		res, err := s.BetterAddProduct(99, "wrapped", 1, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Bucket)
		assert.True(t, res.Displaced)
		assert.Nil(t, res.Evicted)
	})

	t.Run("all full falls back to eviction", func(t *testing.T) {
		s := New(Config{})
		for i := 0; i < BucketCount; i++ {
			fillBucket(t, s, i)
		}

		res, err := s.BetterAddProduct(100, "late", 1, 1, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Bucket)
		assert.False(t, res.Displaced)
		require.NotNil(t, res.Evicted)
		assert.Equal(t, 1, res.Evicted.Demand)
		_, ok := s.Lookup(100)
		assert.True(t, ok)
		requireHeaps(t, s)
	})

	t.Run("never evicts while any bucket has room", func(t *testing.T) {
		s := New(Config{})
		for n := 0; n < BucketCount*BucketCapacity; n++ {
			res, err := s.BetterAddProduct(n*BucketCount, "same-home", 1, n, n%7)
			require.NoError(t, err)
			require.Nil(t, res.Evicted, "insert %d evicted", n)
			requireHeaps(t, s)
		}
		st := s.Stats()
		assert.Equal(t, BucketCount*BucketCapacity, st.Products)
		assert.Equal(t, uint64(0), st.Evictions)
		assert.Equal(t, uint64(BucketCount*BucketCapacity-BucketCapacity), st.Displacements)
	})
}

func TestRestockProduct(t *testing.T) {
	s := New(Config{})
	_, err := s.AddProduct(5, "bolt", 3, 1, 2)
	require.NoError(t, err)

	p, err := s.RestockProduct(5, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)

	p, err = s.RestockProduct(5, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Stock)

	before := s.String()
	_, err = s.RestockProduct(5, -7)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, before, s.String())

	_, err = s.RestockProduct(15, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestockProductOverflow(t *testing.T) {
	s := New(Config{})
	_, err := s.AddProduct(5, "bolt", math.MaxInt-2, 1, 2)
	require.NoError(t, err)

	before := s.String()
	_, err = s.RestockProduct(5, 3)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, before, s.String())

	p, err := s.RestockProduct(5, 2)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, p.Stock)
}

func TestDeleteProduct(t *testing.T) {
	j, err := NewJournal(8)
	require.NoError(t, err)
	s := New(Config{Journal: j})
	fillBucket(t, s, 3)

	removed, err := s.DeleteProduct(23)
	require.NoError(t, err)
	assert.Equal(t, 23, removed.ID())
	assert.Equal(t, BucketCapacity-1, s.buckets[3].Len())
	_, ok := s.Lookup(23)
	assert.False(t, ok)
	requireHeaps(t, s)

	r, ok := j.Get(23)
	require.True(t, ok)
	assert.Equal(t, ReasonDeleted, r.Reason)

	before := s.String()
	_, err = s.DeleteProduct(23)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteProduct(4)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.String())
	assert.Equal(t, uint64(1), s.Stats().Deletions)
}

func TestPurchaseProduct(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := New(Config{})
		_, err := s.AddProduct(3, "widget", 10, 1, 0)
		require.NoError(t, err)

		p, err := s.PurchaseProduct(3, 7, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, p.Stock)
		assert.Equal(t, 4, p.Demand)
		assert.Equal(t, 7, p.LastActivityDay)
	})

	t.Run("purchase sinks the product", func(t *testing.T) {
		s := New(Config{})
		for i, id := range []int{2, 12, 22} {
			_, err := s.AddProduct(id, "gear", 100, 1, i)
			require.NoError(t, err)
		}

		_, err := s.PurchaseProduct(2, 3, 10)
		require.NoError(t, err)
		root, _ := s.buckets[2].Min()
		assert.Equal(t, 12, root.ID())
		requireHeaps(t, s)
	})

	t.Run("insufficient stock on the match", func(t *testing.T) {
		s := New(Config{})
		_, err := s.AddProduct(6, "rare", 2, 1, 0)
		require.NoError(t, err)

		digest := s.Digest()
		_, err = s.PurchaseProduct(6, 2, 3)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, digest, s.Digest())
	})

	// A low-stock product scanned before the match blocks the purchase even
	// though the match itself has plenty. Kept on purpose.
	t.Run("earlier low stock blocks the match", func(t *testing.T) {
		s := New(Config{})
		_, err := s.AddProduct(1, "scarce", 1, 1, 0)
		require.NoError(t, err)
		_, err = s.AddProduct(11, "plenty", 100, 1, 5)
		require.NoError(t, err)

		before := s.String()
		_, err = s.PurchaseProduct(11, 2, 5)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, before, s.String())

		// Buying the scarce product itself within its stock still works.
		_, err = s.PurchaseProduct(1, 2, 1)
		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		s := New(Config{})
		_, err := s.AddProduct(8, "nut", 50, 1, 0)
		require.NoError(t, err)
		_, err = s.PurchaseProduct(18, 2, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("demand overflow", func(t *testing.T) {
		s := New(Config{})
		_, err := s.AddProduct(1, "hot", 10, 1, math.MaxInt)
		require.NoError(t, err)

		before := s.String()
		_, err = s.PurchaseProduct(1, 2, 1)
		assert.ErrorIs(t, err, ErrOverflow)
		assert.Equal(t, before, s.String())

		p, ok := s.Lookup(1)
		require.True(t, ok)
		assert.Equal(t, math.MaxInt, p.Demand)
		assert.Equal(t, 10, p.Stock)
	})

	// With the recency scorer an earlier purchase day can lower the score, so
	// the product has to rise instead of sink.
	t.Run("earlier day raises the product", func(t *testing.T) {
		s := New(Config{Scorer: ByDemandAndRecency})
		for _, r := range []struct{ id, day int }{{0, 5}, {10, 20}, {20, 30}} {
			_, err := s.AddProduct(r.id, "p", 10, r.day, 0)
			require.NoError(t, err)
		}
		require.Equal(t, []int{0, 10, 20}, ids(s.buckets[0]))

		_, err := s.PurchaseProduct(20, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{20, 10, 0}, ids(s.buckets[0]))

		bucket, pos, ok := s.Locate(20)
		require.True(t, ok)
		assert.Equal(t, 0, bucket)
		assert.Equal(t, 1, pos)
		requireHeaps(t, s)
	})

	t.Run("invalid amount", func(t *testing.T) {
		s := New(Config{})
		_, err := s.PurchaseProduct(8, 2, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestStoreString(t *testing.T) {
	s := New(Config{})
	_, err := s.AddProduct(3, "apple", 5, 2, 7)
	require.NoError(t, err)

	var want strings.Builder
	want.WriteString("[\n")
	for i := 0; i < BucketCount; i++ {
		if i == 3 {
			want.WriteString("\t[(3: apple, 5, 2, 7)]\n")
		} else {
			want.WriteString("\t[]\n")
		}
	}
	want.WriteString("]")

	assert.Equal(t, want.String(), s.String())
}

func TestDigest(t *testing.T) {
	a := New(Config{})
	b := New(Config{})
	assert.Equal(t, a.Digest(), b.Digest())

	for _, s := range []*Store{a, b} {
		_, err := s.AddProduct(17, "cog", 4, 1, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, a.Digest(), b.Digest())

	_, err := b.RestockProduct(17, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestMarshalJSON(t *testing.T) {
	s := New(Config{})
	_, err := s.AddProduct(21, "spring", 9, 4, 3)
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap.Buckets, BucketCount)
	assert.Equal(t, 1, snap.Buckets[1].Size)
	assert.Equal(t, []ProductDoc{{ID: 21, Name: "spring", Stock: 9, Demand: 3, LastActivityDay: 4}}, snap.Buckets[1].Products)
	assert.Empty(t, snap.Buckets[0].Products)
}

func TestBucketAccessor(t *testing.T) {
	s := New(Config{})
	_, err := s.Bucket(BucketCount)
	assert.ErrorIs(t, err, ErrBucketNotFound)
	_, err = s.Bucket(-1)
	assert.ErrorIs(t, err, ErrBucketNotFound)

	raw := s.Buckets()
	assert.Len(t, raw, BucketCount)
}

func TestRecencyScorerStore(t *testing.T) {
	s := New(Config{Scorer: ByDemandAndRecency})
	for n := 0; n < BucketCapacity; n++ {
		// Older products carry more demand but lose on demand+day.
		_, err := s.AddProduct(n*BucketCount, "p", 10, 10*n, 5-n)
		require.NoError(t, err)
	}
	res, err := s.AddProduct(50, "new", 10, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Evicted.ID())
	requireHeaps(t, s)
}

// TestStoreRandomOperations drives a store through a seeded mix of every
// mutating operation and checks the heaps after each step. Failed purchases
// must leave the store exactly as it was.
func TestStoreRandomOperations(t *testing.T) {
	for _, scorer := range []string{"demand", "recency"} {
		t.Run(scorer, func(t *testing.T) {
			score, err := ParseScorer(scorer)
			require.NoError(t, err)
			s := New(Config{Scorer: score})
			rng := rand.New(rand.NewSource(7))

			for step := 0; step < 5000; step++ {
				id := rng.Intn(80)
				day := rng.Intn(50)
				var op string

				switch rng.Intn(5) {
				case 0:
					op = fmt.Sprintf("add %d", id)
					_, err = s.AddProduct(id, "p", rng.Intn(20), day, rng.Intn(10))
					require.NoError(t, err, op)
				case 1:
					op = fmt.Sprintf("betteradd %d", id)
					_, err = s.BetterAddProduct(id, "p", rng.Intn(20), day, rng.Intn(10))
					require.NoError(t, err, op)
				case 2:
					op = fmt.Sprintf("delete %d", id)
					before := s.String()
					if _, err := s.DeleteProduct(id); err != nil {
						require.ErrorIs(t, err, ErrNotFound, op)
						require.Equal(t, before, s.String(), op)
					}
				case 3:
					amount := rng.Intn(11) - 5
					op = fmt.Sprintf("restock %d %d", id, amount)
					before := s.String()
					if _, err := s.RestockProduct(id, amount); err != nil {
						require.Equal(t, before, s.String(), op)
					}
				case 4:
					amount := rng.Intn(6)
					op = fmt.Sprintf("purchase %d %d %d", day, id, amount)
					before := s.String()
					if _, err := s.PurchaseProduct(id, day, amount); err != nil {
						require.Equal(t, before, s.String(), op)
					}
				}

				requireHeaps(t, s)
				for i, b := range s.Buckets() {
					for _, p := range b.Products() {
						require.GreaterOrEqual(t, p.Stock, 0, "step %d (%s): bucket %d", step, op, i)
						require.GreaterOrEqual(t, p.Demand, 0, "step %d (%s): bucket %d", step, op, i)
					}
				}
			}
		})
	}
}
