package core

// ChainStore persists the committed block sequence in an ordered key-value
// store. Keys are big-endian block ids so the natural iteration order of the
// store is chain order; values are JSON rows carrying the id, the block's
// JSON encoding and the block creation time.

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// commitWriteOptions makes commits durable before CommitBlock returns.
var commitWriteOptions = &opt.WriteOptions{Sync: true}

// ErrBlockNotFound distinguishes an absent block from a store failure.
var ErrBlockNotFound = errors.New("block not found")

var blockPrefix = []byte("b/")

// ChainStore is single-writer; the mutex serializes every operation so
// concurrent readers always observe a consistent committed prefix.
type ChainStore struct {
	mu sync.Mutex
	db *leveldb.DB
	fn string
}

// rawBlock is the persisted row shape.
type rawBlock struct {
	ID      int32           `json:"id"`
	Block   json.RawMessage `json:"block"`
	Created int64           `json:"created"`
}

// OpenChainStore opens or creates the store at path, recovering a corrupted
// database if possible.
func OpenChainStore(path string) (*ChainStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if _, corrupted := err.(*ldberrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open chain store %s: %w", path, err)
	}
	logrus.Infof("Using block chain database %s", path)
	return &ChainStore{db: db, fn: path}, nil
}

// Close releases the underlying database.
func (s *ChainStore) Close() error {
	return s.db.Close()
}

func blockKey(id int64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], uint64(id))
	return key
}

// CommitBlock appends a block. Committing out of order or with a wrong
// parent hash is a programming error and panics; the store never holds a
// broken chain.
func (s *ChainStore) CommitBlock(b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(b)
}

func (s *ChainStore) commitLocked(b *Block) error {
	latest, err := s.latestLocked()
	if err != nil && !errors.Is(err, ErrBlockNotFound) {
		return err
	}
	if latest != nil {
		if latest.ID+1 != b.ID {
			logrus.Panicf("commit out of order: latest id %d, committing %d", latest.ID, b.ID)
		}
		parent := latest.Hash()
		if b.ParentHash == nil || *b.ParentHash != parent {
			logrus.Panicf("commit with wrong parent: block %d does not extend %s", b.ID, parent)
		}
	}
	row, err := newRawBlock(b)
	if err != nil {
		return err
	}
	value, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode block row: %w", err)
	}
	if err := s.db.Put(blockKey(b.ID), value, commitWriteOptions); err != nil {
		return fmt.Errorf("store block %d: %w", b.ID, err)
	}
	logrus.Infof("Committed %s", b)
	return nil
}

// CommitAsGenesis atomically clears all existing blocks and commits b as the
// new chain root.
func (s *ChainStore) CommitAsGenesis(b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("scan chain store: %w", err)
	}
	if err := s.db.Write(batch, commitWriteOptions); err != nil {
		return fmt.Errorf("clear chain store: %w", err)
	}
	return s.commitLocked(b)
}

// LatestBlock returns the block with the greatest id, or ErrBlockNotFound on
// an empty store.
func (s *ChainStore) LatestBlock() (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestLocked()
}

func (s *ChainStore) latestLocked() (*Block, error) {
	iter := s.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()
	if !iter.Last() {
		if err := iter.Error(); err != nil {
			return nil, fmt.Errorf("read chain store: %w", err)
		}
		return nil, ErrBlockNotFound
	}
	return decodeRow(iter.Value())
}

// GetBlock returns the block with the given id, or ErrBlockNotFound.
func (s *ChainStore) GetBlock(id int64) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, err := s.db.Get(blockKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", id, err)
	}
	return decodeRow(value)
}

// RecentBlocks returns up to n blocks ending at the tip, newest first.
func (s *ChainStore) RecentBlocks(n int) ([]*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := []*Block{}
	iter := s.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()
	for ok := iter.Last(); ok && len(blocks) < n; ok = iter.Prev() {
		b, err := decodeRow(iter.Value())
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("read chain store: %w", err)
	}
	return blocks, nil
}

// Walk streams every committed block in chain order until fn returns false
// or an error. It avoids the one-read-per-id round trips of a naive scan.
func (s *ChainStore) Walk(fn func(*Block) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter := s.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		b, err := decodeRow(iter.Value())
		if err != nil {
			return err
		}
		cont, err := fn(b)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("walk chain store: %w", err)
	}
	return nil
}

func newRawBlock(b *Block) (*rawBlock, error) {
	encoded, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode block: %w", err)
	}
	return &rawBlock{
		ID:      int32(b.ID),
		Block:   encoded,
		Created: b.Timestamp,
	}, nil
}

func decodeRow(value []byte) (*Block, error) {
	var row rawBlock
	if err := json.Unmarshal(value, &row); err != nil {
		return nil, fmt.Errorf("decode block row: %w", err)
	}
	var b Block
	if err := json.Unmarshal(row.Block, &b); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	if int64(row.ID) != b.ID {
		return nil, fmt.Errorf("row id %d does not match block id %d", row.ID, b.ID)
	}
	return &b, nil
}
