package commands

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Blocks prints the blocks that involve the account, or every block when
// no account is provided.
func Blocks(onlyAct string, db *database.Database) error {
	accountID := database.AccountID(onlyAct)

	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return err
		}

		var trans []database.SignedTx
		for _, tx := range block.Trans {
			if accountID == "" || tx.Involves(accountID) {
				trans = append(trans, tx)
			}
		}
		if len(trans) == 0 && block.BeneficiaryID != accountID {
			continue
		}

		fmt.Printf("Block: %d  Hash: %s  Beneficiary: %s\n", block.Number, block.Hash, block.BeneficiaryID)
		for _, tx := range trans {
			fmt.Printf("  %s\n", tx)
		}
	}

	return nil
}
