package core

// Balance computes the signed sum of credits to and debits from addr across
// every stored block, streaming the store in chain order instead of issuing
// one read per id. Wraps on overflow, like the arithmetic it mirrors.
func Balance(store *ChainStore, addr Address) (int64, error) {
	var sum int64
	err := store.Walk(func(b *Block) (bool, error) {
		sum += b.DiffForAddress(addr)
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return sum, nil
}
