package warehouse

import "errors"

var (
	// ErrNotFound is returned when an id is not present in the bucket it
	// addresses. Callers are expected to tolerate it.
	ErrNotFound = errors.New("warehouse: product not found")

	// ErrInsufficientStock is returned when a purchase or restock would drive a
	// stock level below zero. Nothing is mutated.
	ErrInsufficientStock = errors.New("warehouse: insufficient stock")

	// ErrBucketFull is returned by Bucket.Insert when all slots are occupied.
	ErrBucketFull = errors.New("warehouse: bucket full")

	// ErrBucketNotFull is returned by Bucket.EvictLeastPopular on a bucket with
	// a free slot.
	ErrBucketNotFull = errors.New("warehouse: bucket not full")

	// ErrOverflow is returned when a restock or purchase would push a stock or
	// demand counter past the range of int. Nothing is mutated.
	ErrOverflow = errors.New("warehouse: counter overflow")

	ErrBucketNotFound     = errors.New("warehouse: bucket index out of range")
	ErrPositionOutOfRange = errors.New("warehouse: position out of range")
	ErrInvalidAmount      = errors.New("warehouse: amount must be positive")
	ErrInvalidProduct     = errors.New("warehouse: invalid product")
)
