package blockentry

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// heightIndex groups hashes by height and keeps the lowest and highest occupied height. Removing
// an extreme height marks the bounds stale, they are recomputed on the next read.
type heightIndex struct {
	buckets  map[uint64]hashSet
	min, max uint64
	stale    bool
}

func newHeightIndex() heightIndex {
	return heightIndex{buckets: make(map[uint64]hashSet)}
}

func (h *heightIndex) add(number uint64, hash chainhash.Hash) {
	bucket, ok := h.buckets[number]
	if !ok {
		if len(h.buckets) == 0 {
			h.min, h.max, h.stale = number, number, false
		} else if !h.stale {
			h.min = min(h.min, number)
			h.max = max(h.max, number)
		}

		bucket = make(hashSet)
		h.buckets[number] = bucket
	}

	bucket[hash] = struct{}{}
}

func (h *heightIndex) remove(number uint64, hash chainhash.Hash) {
	bucket, ok := h.buckets[number]
	if !ok {
		return
	}

	delete(bucket, hash)

	if len(bucket) > 0 {
		return
	}

	delete(h.buckets, number)

	switch {
	case len(h.buckets) == 0:
		h.min, h.max, h.stale = 0, 0, false
	case number == h.min || number == h.max:
		h.stale = true
	}
}

func (h *heightIndex) get(number uint64) hashSet {
	return h.buckets[number]
}

// refresh must be called with the store's write lock held.
func (h *heightIndex) refresh() {
	if !h.stale {
		return
	}

	first := true

	for number := range h.buckets {
		if first {
			h.min, h.max, first = number, number, false
			continue
		}

		h.min = min(h.min, number)
		h.max = max(h.max, number)
	}

	h.stale = false
}

// inRange returns every hash stored at a height in [low, high].
func (h *heightIndex) inRange(low, high uint64) []chainhash.Hash {
	var hashes []chainhash.Hash

	for number, bucket := range h.buckets {
		if number < low || number > high {
			continue
		}

		for hash := range bucket {
			hashes = append(hashes, hash)
		}
	}

	return hashes
}
