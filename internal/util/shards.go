package util

// MaxShards caps the shard count; past this point partitions only add memory.
const MaxShards = 256

// NextPow2 returns the smallest power of two >= x (1 for x <= 1).
// Results that would overflow 64 bits are clamped to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	if x == 0 {
		return 1 << 63
	}
	return x
}

// ShardCount normalizes a requested shard count: rounded up to a power of
// two, clamped to [1..MaxShards], and never more shards than capacity so
// every shard can hold at least one entry.
func ShardCount(requested, capacity int) int {
	if requested <= 1 || capacity <= 1 {
		return 1
	}
	if requested > capacity {
		requested = capacity
	}
	n := int(NextPow2(uint64(requested)))
	if n > MaxShards {
		n = MaxShards
	}
	// Rounding up may overshoot capacity; step back to the previous power.
	for n > 1 && n > capacity {
		n >>= 1
	}
	return n
}

// ShardIndex maps a hash to a shard index. shards must be a power of two.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	return int(hash & uint64(shards-1))
}
