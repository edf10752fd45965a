package worker_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	userKey  = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	minerKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func Test_MineInBackground(t *testing.T) {
	t.Log("Given the need to mine submitted transactions in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a transaction is submitted to a running worker.", testID)
		{
			userPK, err := crypto.HexToECDSA(userKey)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the user key: %v", failed, testID, err)
			}
			minerPK, err := crypto.HexToECDSA(minerKey)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the miner key: %v", failed, testID, err)
			}

			user := database.PublicKeyToAccountID(userPK.PublicKey)
			miner := database.PublicKeyToAccountID(minerPK.PublicKey)

			storage, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
			}

			st, err := state.New(state.Config{
				BeneficiaryID: miner,
				Genesis: genesis.Genesis{
					TransPerBlock: 5,
					Difficulty:    4,
					Accounts: map[string]genesis.Seed{
						string(user):  {Type: genesis.TypeUser, Tokens: "10"},
						string(miner): {Type: genesis.TypeValidator},
					},
				},
				Storage: storage,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct state: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to construct state.", success, testID)

			worker.Run(st, nil)
			defer st.Shutdown()

			tx, err := database.NewTx(uint256.NewInt(1), user, database.TransferTokenRecord(miner, 4))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct transaction: %v", failed, testID, err)
			}
			signedTx, err := tx.Sign(userPK)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign transaction: %v", failed, testID, err)
			}

			if err := st.SubmitTransaction(signedTx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to submit transaction.", success, testID)

			deadline := time.Now().Add(10 * time.Second)
			for st.RetrieveLatestBlock().Number == 0 {
				if time.Now().After(deadline) {
					t.Fatalf("\t%s\tTest %d:\tShould mine a block in the background.", failed, testID)
				}
				time.Sleep(10 * time.Millisecond)
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block in the background.", success, testID)

			account, err := st.QueryAccount(miner)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould find the miner account: %v", failed, testID, err)
			}
			if account.Tokens.Uint64() != 4 || account.Type.Validator.CorrectlyValidatedBlocks != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould credit the miner, got %s tokens and %d blocks.", failed, testID, account.Tokens.Dec(), account.Type.Validator.CorrectlyValidatedBlocks)
			}
			t.Logf("\t%s\tTest %d:\tShould credit the miner.", success, testID)
		}
	}
}

func Test_TruncateCancelsMining(t *testing.T) {
	t.Log("Given the need to truncate the chain while the worker is mining.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining is cancelled for a truncate.", testID)
		{
			userPK, err := crypto.HexToECDSA(userKey)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the user key: %v", failed, testID, err)
			}
			user := database.PublicKeyToAccountID(userPK.PublicKey)

			storage, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
			}

			st, err := state.New(state.Config{
				BeneficiaryID: user,
				Genesis: genesis.Genesis{
					TransPerBlock: 5,
					Difficulty:    database.MaxDifficulty,
					Accounts: map[string]genesis.Seed{
						string(user): {Type: genesis.TypeUser, Tokens: "10"},
					},
				},
				Storage: storage,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct state: %v", failed, testID, err)
			}

			var mu sync.Mutex
			var events []string
			worker.Run(st, func(v string, args ...any) {
				mu.Lock()
				defer mu.Unlock()
				events = append(events, fmt.Sprintf(v, args...))
			})
			defer st.Shutdown()

			tx, err := database.NewTx(uint256.NewInt(1), user, database.ChangeStoreValueRecord("k", "v"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct transaction: %v", failed, testID, err)
			}
			signedTx, err := tx.Sign(userPK)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign transaction: %v", failed, testID, err)
			}

			if err := st.SubmitTransaction(signedTx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit transaction: %v", failed, testID, err)
			}

			// The difficulty can't be met so the worker keeps the
			// transaction until it is told to stop.
			deadline := time.Now().Add(5 * time.Second)
			for st.QueryMempoolLength() != 0 {
				if time.Now().After(deadline) {
					t.Fatalf("\t%s\tTest %d:\tShould start mining the transaction.", failed, testID)
				}
				time.Sleep(time.Millisecond)
			}
			t.Logf("\t%s\tTest %d:\tShould start mining the transaction.", success, testID)

			done := st.Worker.SignalCancelMining(state.ErrChainTruncated)
			if err := st.Truncate(); err != nil {
				done()
				t.Fatalf("\t%s\tTest %d:\tShould be able to truncate: %v", failed, testID, err)
			}
			done()

			if err := st.SubmitTransaction(signedTx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the transaction again on the reset chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the transaction again on the reset chain.", success, testID)

			deadline = time.Now().Add(5 * time.Second)
			for {
				mu.Lock()
				var seen bool
				for _, ev := range events {
					if strings.Contains(ev, "CANCEL: complete: "+state.ErrChainTruncated.Error()) {
						seen = true
						break
					}
				}
				mu.Unlock()

				if seen {
					break
				}
				if time.Now().After(deadline) {
					t.Fatalf("\t%s\tTest %d:\tShould cancel mining for the truncate.", failed, testID)
				}
				time.Sleep(time.Millisecond)
			}
			t.Logf("\t%s\tTest %d:\tShould cancel mining for the truncate.", success, testID)
		}
	}
}
