package database

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
)

// canonical is the deterministic CBOR encoding used for everything that is
// hashed or signed. Field order is fixed by the toarray structs below and
// 128 bit values are always encoded as 16 byte big endian strings.
var canonical = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Record kinds as they appear in the canonical encoding.
const (
	recordCreateUserAccount uint8 = iota + 1
	recordChangeStoreValue
	recordTransferToken
	recordCreateTokens
)

type recordBody struct {
	_      struct{} `cbor:",toarray"`
	Kind   uint8
	A      string
	B      string
	Amount []byte
}

type txBody struct {
	_         struct{} `cbor:",toarray"`
	Nonce     []byte
	From      string
	CreatedAt int64
	Record    recordBody
}

type signedTxBody struct {
	_         struct{} `cbor:",toarray"`
	Tx        txBody
	Signature string
}

type blockBody struct {
	_             struct{} `cbor:",toarray"`
	PrevBlockHash string
	BeneficiaryID string
	Trans         []signedTxBody
	Nonce         []byte
}

// =============================================================================

// to16 returns the low 128 bits of the value as 16 big endian bytes.
func to16(v *uint256.Int) []byte {
	b := make([]byte, 16)
	if v == nil {
		return b
	}
	b32 := v.Bytes32()
	copy(b, b32[16:])
	return b
}

func toRecordBody(r Record) recordBody {
	switch {
	case r.CreateUserAccount != nil:
		return recordBody{Kind: recordCreateUserAccount, A: string(r.CreateUserAccount.NewID), Amount: to16(nil)}
	case r.ChangeStoreValue != nil:
		return recordBody{Kind: recordChangeStoreValue, A: r.ChangeStoreValue.Key, B: r.ChangeStoreValue.Value, Amount: to16(nil)}
	case r.TransferToken != nil:
		return recordBody{Kind: recordTransferToken, A: string(r.TransferToken.To), Amount: to16(r.TransferToken.Amount)}
	case r.CreateTokens != nil:
		return recordBody{Kind: recordCreateTokens, A: string(r.CreateTokens.Receiver), Amount: to16(r.CreateTokens.Amount)}
	}
	return recordBody{Amount: to16(nil)}
}

func toTxBody(tx Tx) txBody {
	return txBody{
		Nonce:     to16(tx.Nonce),
		From:      string(tx.From),
		CreatedAt: tx.CreatedAt,
		Record:    toRecordBody(tx.Record),
	}
}

// encodeBlock returns the canonical encoding of the hashed block fields. The
// nonce is always the final 16 bytes of the output so a miner can replace it
// in place.
func encodeBlock(prevBlockHash string, beneficiaryID AccountID, trans []SignedTx, nonce *uint256.Int) ([]byte, error) {
	body := blockBody{
		PrevBlockHash: prevBlockHash,
		BeneficiaryID: string(beneficiaryID),
		Trans:         make([]signedTxBody, len(trans)),
		Nonce:         to16(nonce),
	}

	for i, tx := range trans {
		body.Trans[i] = signedTxBody{
			Tx:        toTxBody(tx.Tx),
			Signature: tx.Signature,
		}
	}

	return canonical.Marshal(body)
}
