// Package bolt implements the ability to read and write blocks to a bbolt
// database file. Blocks are keyed by their big endian number so the natural
// key order is the chain order.
package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

// ErrBlockNotFound is returned when the requested block isn't stored.
var ErrBlockNotFound = errors.New("block does not exist")

var blocksBucket = []byte("blocks")

// Bolt represents the serialization implementation for reading and storing
// blocks in a bbolt file. This implements the database.Serializer interface.
type Bolt struct {
	db *bolt.DB
}

// New opens or creates the bbolt file at the specified path.
func New(dbFile string) (*Bolt, error) {
	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}

	b := Bolt{db: db}
	if err := b.createBuckets(); err != nil {
		db.Close()
		return nil, err
	}

	return &b, nil
}

func (b *Bolt) createBuckets() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
}

// Path returns the location of the bbolt file.
func (b *Bolt) Path() string {
	return b.db.Path()
}

// Close releases the bbolt file.
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Write stores the block under its number. The block must be the next
// block in the chain.
func (b *Bolt) Write(blockData database.BlockData) error {
	data, err := cbor.Marshal(blockData)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", blockData.Block.Number, err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blocksBucket)

		var last uint64
		if k, _ := bkt.Cursor().Last(); k != nil {
			last = binary.BigEndian.Uint64(k)
		}

		if blockData.Block.Number != last+1 {
			return fmt.Errorf("block is out of order, got %d, exp %d", blockData.Block.Number, last+1)
		}

		return bkt.Put(key(blockData.Block.Number), data)
	})
	if err != nil {
		return fmt.Errorf("bolt db write failed, %w", err)
	}

	return nil
}

// GetBlock returns the block with the specified number.
func (b *Bolt) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData

	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(key(num))
		if data == nil {
			return ErrBlockNotFound
		}
		return cbor.Unmarshal(data, &blockData)
	})
	if err != nil {
		if errors.Is(err, ErrBlockNotFound) {
			return database.BlockData{}, err
		}
		return database.BlockData{}, fmt.Errorf("bolt db read failed, %w", err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (b *Bolt) ForEach() database.Iterator {
	return &boltIterator{storage: b, current: 1}
}

// Reset removes every block from the file.
func (b *Bolt) Reset() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(blocksBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(blocksBucket)
		return err
	})
}

// key converts the block number into its big endian key.
func key(num uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, num)
	return k
}

// =============================================================================

// boltIterator walks the blocks in key order. Each call to Next runs its own
// read transaction.
type boltIterator struct {
	storage *Bolt
	current uint64
	eoc     bool
}

// Next retrieves the next block from the file.
func (bi *boltIterator) Next() (database.BlockData, error) {
	if bi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := bi.storage.GetBlock(bi.current)
	if errors.Is(err, ErrBlockNotFound) {
		bi.eoc = true
	}

	bi.current++

	return blockData, err
}

// Done returns the end of chain value.
func (bi *boltIterator) Done() bool {
	return bi.eoc
}
