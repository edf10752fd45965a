package commands

import (
	"fmt"
	"reflect"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Verify reads every stored block and replays the chain from the genesis
// ledger. The result must match the ledger the database built on open.
func Verify(db *database.Database) error {
	var blocks []database.Block

	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
	}

	ledger, err := database.Replay(db.Genesis(), blocks)
	if err != nil {
		return err
	}

	if !reflect.DeepEqual(ledger.Accounts(), db.Accounts()) {
		return fmt.Errorf("replayed ledger does not match the database ledger")
	}

	fmt.Printf("Verified %d blocks, %d accounts\n", len(blocks), len(ledger.Accounts()))
	return nil
}
