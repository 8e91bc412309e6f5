package core

// Quorum stream combinator. Every network query that solicits replies from
// multiple peers funnels them through Group: an answer only counts once
// enough distinct replies agree on it.

import "context"

// Group reads items from in and emits an item the first time its key has
// been observed threshold times; the emitted item is the threshold-th
// occurrence itself. Keys that have emitted stay suppressed. Distinct keys
// are tracked independently and emissions preserve arrival order. The
// returned channel closes when in closes or ctx is done.
func Group[T any, K comparable](ctx context.Context, in <-chan T, threshold int, key func(T) K) <-chan T {
	if threshold < 1 {
		threshold = 1
	}
	out := make(chan T)
	go func() {
		defer close(out)
		counts := map[K]int{}
		emitted := map[K]bool{}
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-in:
				if !ok {
					return
				}
				k := key(item)
				if emitted[k] {
					continue
				}
				counts[k]++
				if counts[k] < threshold {
					continue
				}
				delete(counts, k)
				emitted[k] = true
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// GroupByHash groups hashable items by their hash digest.
func GroupByHash[T Hashable](ctx context.Context, in <-chan T, threshold int) <-chan T {
	return Group(ctx, in, threshold, func(item T) HashDigest {
		return HashOf(item)
	})
}

// PeerMajority is the quorum threshold for n connected peers: ⌈n/2⌉.
func PeerMajority(peers int) int {
	return (peers + 1) / 2
}
