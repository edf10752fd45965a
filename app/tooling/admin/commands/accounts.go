// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Accounts prints the current set of accounts, or a single account.
func Accounts(onlyAct string, db *database.Database) error {
	fmt.Printf("LastestBlock: %d  %s\n\n", db.LatestBlock().Number, db.LatestBlock().Hash)

	accounts := db.Accounts()

	ids := make([]database.AccountID, 0, len(accounts))
	for id := range accounts {
		if onlyAct != "" && string(id) != onlyAct {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		act := accounts[id]
		fmt.Printf("Account: %s  Type: %s  Tokens: %s", id, act.Type.Kind, act.Tokens.Dec())
		if act.Type.IsValidator() {
			fmt.Printf("  Validated: %d  Flagged: %v", act.Type.Validator.CorrectlyValidatedBlocks, act.Type.Validator.Flagged)
		}
		fmt.Println()
	}

	return nil
}
