package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var showKey bool

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the ledger account id for the wallet key",
	Long: `Print the ledger account id for the wallet key. The account id is the
0x prefixed hex of the 33 byte compressed secp256k1 public key, so it can be
used directly to verify signatures made by this wallet.`,
	Run: accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.Flags().BoolVarP(&showKey, "public-key", "k", false, "Also print the uncompressed public key.")
}

func accountRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)

	// The id must decode back to the key that signs for it.
	if _, err := accountID.PublicKey(); err != nil {
		log.Fatalf("account id %s does not hold a valid public key: %s", accountID, err)
	}

	fmt.Println(accountID)

	if showKey {
		fmt.Println("public key:", hexutil.Encode(crypto.FromECDSAPub(&privateKey.PublicKey)))
	}
}
