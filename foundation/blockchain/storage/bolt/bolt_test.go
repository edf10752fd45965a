package bolt_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/bolt"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func blockData(num uint64) database.BlockData {
	return database.BlockData{
		Hash: "0xabc",
		Block: database.BlockHeader{
			Number:        num,
			PrevBlockHash: "0xdef",
			BeneficiaryID: "0x02aa",
			Nonce:         uint256.NewInt(num + 7),
		},
	}
}

func TestBolt_WriteAndReopen(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "blocks.db")

	b, err := bolt.New(dbFile)
	require.NoError(t, err)

	require.NoError(t, b.Write(blockData(1)))
	require.NoError(t, b.Write(blockData(2)))
	require.Error(t, b.Write(blockData(5)))
	require.NoError(t, b.Close())

	b, err = bolt.New(dbFile)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.GetBlock(1)
	require.NoError(t, err)
	require.Equal(t, blockData(1), got)

	_, err = b.GetBlock(3)
	require.ErrorIs(t, err, bolt.ErrBlockNotFound)

	var nums []uint64
	iter := b.ForEach()
	for bd, err := iter.Next(); !iter.Done(); bd, err = iter.Next() {
		require.NoError(t, err)
		nums = append(nums, bd.Block.Number)
	}
	require.Equal(t, []uint64{1, 2}, nums)

	require.NoError(t, b.Reset())
	_, err = b.GetBlock(1)
	require.ErrorIs(t, err, bolt.ErrBlockNotFound)
	require.NoError(t, b.Write(blockData(1)))
}
