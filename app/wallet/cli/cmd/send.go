package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var (
	nonce  string
	target string
	amount string
	key    string
	value  string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
}

var sendCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user account",
	Run: func(cmd *cobra.Command, args []string) {
		newID, err := database.ToAccountID(target)
		if err != nil {
			log.Fatal(err)
		}
		send(database.CreateUserAccountRecord(newID))
	},
}

var sendStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Change a value in your account store",
	Run: func(cmd *cobra.Command, args []string) {
		send(database.ChangeStoreValueRecord(key, value))
	},
}

var sendTransferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer tokens to another account",
	Run: func(cmd *cobra.Command, args []string) {
		to, amt := targetAmount()
		send(database.Record{TransferToken: &database.TransferToken{To: to, Amount: amt}})
	},
}

var sendMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint new tokens to an account, validators only",
	Run: func(cmd *cobra.Command, args []string) {
		to, amt := targetAmount()
		send(database.Record{CreateTokens: &database.CreateTokens{Receiver: to, Amount: amt}})
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.PersistentFlags().StringVarP(&nonce, "nonce", "n", "", "Nonce for the transaction, random when empty.")

	sendCmd.AddCommand(sendCreateCmd)
	sendCreateCmd.Flags().StringVarP(&target, "id", "i", "", "Account id of the new account.")

	sendCmd.AddCommand(sendStoreCmd)
	sendStoreCmd.Flags().StringVarP(&key, "key", "k", "", "Key to change.")
	sendStoreCmd.Flags().StringVarP(&value, "value", "v", "", "Value to store.")

	for _, c := range []*cobra.Command{sendTransferCmd, sendMintCmd} {
		sendCmd.AddCommand(c)
		c.Flags().StringVarP(&target, "to", "t", "", "Account id receiving the tokens.")
		c.Flags().StringVarP(&amount, "amount", "m", "0", "Number of tokens.")
	}
}

func targetAmount() (database.AccountID, *uint256.Int) {
	to, err := database.ToAccountID(target)
	if err != nil {
		log.Fatal(err)
	}

	amt, err := uint256.FromDecimal(amount)
	if err != nil {
		log.Fatalf("amount: %s", err)
	}

	return to, amt
}

func send(record database.Record) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	if err := sendWithDetails(privateKey, record); err != nil {
		log.Fatal(err)
	}
}

func sendWithDetails(privateKey *ecdsa.PrivateKey, record database.Record) error {
	n, err := txNonce()
	if err != nil {
		return err
	}

	tx, err := database.NewTx(n, database.PublicKeyToAccountID(privateKey.PublicKey), record)
	if err != nil {
		return err
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		return err
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", resp.Status, body)
	}

	fmt.Println(signedTx.Key(), string(body))
	return nil
}

func txNonce() (*uint256.Int, error) {
	if nonce == "" {
		return database.NewNonce()
	}
	return uint256.FromDecimal(nonce)
}
