package mempool_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func sign(nonce uint64, key string, value string) (database.SignedTx, error) {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		return database.SignedTx{}, err
	}

	from := database.PublicKeyToAccountID(pk.PublicKey)

	tx, err := database.NewTx(uint256.NewInt(nonce), from, database.ChangeStoreValueRecord(key, value))
	if err != nil {
		return database.SignedTx{}, err
	}

	return tx.Sign(pk)
}

func TestCRUD(t *testing.T) {
	t.Log("Given the need to validate mempool api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
		{
			mp := mempool.New()

			var trans []database.SignedTx
			for i, key := range []string{"a", "b", "c", "d"} {
				tx, err := sign(uint64(i+1), key, "v")
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to sign transaction: %v", failed, testID, err)
				}

				if _, err := mp.Add(tx); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to add new transaction: %v", failed, testID, err)
				}
				trans = append(trans, tx)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add new transactions.", success, testID)

			if _, err := mp.Add(trans[0]); !errors.Is(err, mempool.ErrDuplicate) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a duplicate transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a duplicate transaction.", success, testID)

			for i, tx := range mp.Copy() {
				if tx.Key() != trans[i].Key() {
					t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx.Key())
					t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, trans[i].Key())
					t.Fatalf("\t%s\tTest %d:\tShould get back transactions in submission order.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get back transactions in submission order.", success, testID)

			mp.Delete(trans[1])
			if mp.Count() != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould be able to remove a transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to remove a transaction.", success, testID)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be able to truncate mempool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to truncate mempool.", success, testID)
		}
	}
}

func TestDrain(t *testing.T) {
	t.Log("Given the need to drain transactions for a block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen draining, releasing and requeuing transactions.", testID)
		{
			mp := mempool.New()

			var trans []database.SignedTx
			for i := 0; i < 5; i++ {
				tx, err := sign(uint64(i+1), "k", "v")
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to sign transaction: %v", failed, testID, err)
				}
				mp.Add(tx)
				trans = append(trans, tx)
			}

			drained := mp.Drain(2)
			if len(drained) != 2 || drained[0].Key() != trans[0].Key() || drained[1].Key() != trans[1].Key() {
				t.Fatalf("\t%s\tTest %d:\tShould drain the oldest transactions first.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould drain the oldest transactions first.", success, testID)

			if mp.Count() != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould have 3 transactions left, got %d.", failed, testID, mp.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould have 3 transactions left.", success, testID)

			if _, err := mp.Add(trans[0]); !errors.Is(err, mempool.ErrDuplicate) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a transaction that is being mined: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a transaction that is being mined.", success, testID)

			mp.Requeue(drained)
			copied := mp.Copy()
			if len(copied) != 5 || copied[0].Key() != trans[0].Key() || copied[2].Key() != trans[2].Key() {
				t.Fatalf("\t%s\tTest %d:\tShould requeue transactions at the front.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould requeue transactions at the front.", success, testID)

			drained = mp.Drain(-1)
			if len(drained) != 5 || mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould drain all transactions.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould drain all transactions.", success, testID)

			mp.Release(drained)
			if _, err := mp.Add(trans[0]); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept a released key again: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept a released key again.", success, testID)
		}
	}
}
