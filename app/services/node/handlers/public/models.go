package public

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/holiman/uint256"
)

type account struct {
	AccountID database.AccountID      `json:"account"`
	Name      string                  `json:"name"`
	Type      database.AccountKind    `json:"type"`
	Validator *database.ValidatorInfo `json:"validator,omitempty"`
	Tokens    string                  `json:"tokens"`
	Store     map[string]string       `json:"store"`
}

type actInfo struct {
	LastestBlock string    `json:"lastest_block"`
	Uncommitted  int       `json:"uncommitted"`
	Accounts     []account `json:"accounts"`
}

type tx struct {
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name"`
	Nonce       string             `json:"nonce"`
	CreatedAt   int64              `json:"created_at"`
	Kind        string             `json:"kind"`
	Record      database.Record    `json:"record"`
	Sig         string             `json:"sig"`
}

type block struct {
	Number          uint64             `json:"number"`
	PrevBlockHash   string             `json:"prev_block_hash"`
	Hash            string             `json:"hash"`
	BeneficiaryID   database.AccountID `json:"beneficiary"`
	BeneficiaryName string             `json:"beneficiary_name"`
	Nonce           string             `json:"nonce"`
	Transactions    []tx               `json:"trans"`
}

// submitTx is what a wallet posts. The nonce is a decimal string since it
// can be larger than a JSON number can carry.
type submitTx struct {
	Nonce     string          `json:"nonce" validate:"required,numeric"`
	From      string          `json:"from" validate:"required,accountid"`
	CreatedAt int64           `json:"created_at" validate:"required"`
	Record    database.Record `json:"record"`
	Sig       string          `json:"sig"`
}

func (st submitTx) toSignedTx() (database.SignedTx, error) {
	nonce, err := uint256.FromDecimal(st.Nonce)
	if err != nil {
		return database.SignedTx{}, fmt.Errorf("nonce: %w", err)
	}

	signedTx := database.SignedTx{
		Tx: database.Tx{
			Nonce:     nonce,
			From:      database.AccountID(st.From),
			CreatedAt: st.CreatedAt,
			Record:    st.Record,
		},
		Signature: st.Sig,
	}

	return signedTx, nil
}

// =============================================================================

func toAccount(ns *nameservice.NameService, a database.Account) account {
	return account{
		AccountID: a.AccountID,
		Name:      ns.Lookup(a.AccountID),
		Type:      a.Type.Kind,
		Validator: a.Type.Validator,
		Tokens:    a.Tokens.Dec(),
		Store:     a.Store,
	}
}

func toTx(ns *nameservice.NameService, signedTx database.SignedTx) tx {
	return tx{
		FromAccount: signedTx.From,
		FromName:    ns.Lookup(signedTx.From),
		Nonce:       signedTx.Nonce.Dec(),
		CreatedAt:   signedTx.CreatedAt,
		Kind:        signedTx.Record.Kind(),
		Record:      signedTx.Record,
		Sig:         signedTx.Signature,
	}
}

func toBlock(ns *nameservice.NameService, b database.Block) block {
	trans := make([]tx, len(b.Trans))
	for i, signedTx := range b.Trans {
		trans[i] = toTx(ns, signedTx)
	}

	return block{
		Number:          b.Number,
		PrevBlockHash:   b.PrevBlockHash,
		Hash:            b.Hash,
		BeneficiaryID:   b.BeneficiaryID,
		BeneficiaryName: ns.Lookup(b.BeneficiaryID),
		Nonce:           b.Nonce.Dec(),
		Transactions:    trans,
	}
}
