package database

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Digest returns the hash of the transaction body and its signature. It
// makes a signed transaction usable as a merkle leaf.
func (tx SignedTx) Digest() ([]byte, error) {
	data, err := tx.Encode()
	if err != nil {
		return nil, err
	}
	h := merkle.Blake2b()
	h.Write(data)
	h.Write([]byte(tx.Signature))

	return h.Sum(nil), nil
}

// Equals reports whether both values are the same from:nonce transaction.
func (tx SignedTx) Equals(other SignedTx) bool {
	return tx.Key() == other.Key()
}

// =============================================================================

// TxProof proves a transaction is part of a block without the other
// transactions of the block.
//
// The merkle root is not one of the hashed block fields, so the block hash
// does not commit to it. Verify only shows the leaf belongs under the
// MerkleRoot carried in the proof, which is the root reported by the node
// that built it. Use VerifyRoot with a root obtained from a source you trust
// to bind the proof to a block.
type TxProof struct {
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	MerkleRoot  string   `json:"merkle_root"`
	Leaf        string   `json:"leaf"`
	Proof       []string `json:"proof"`
	Order       []int64  `json:"order"`
}

// MerkleRoot returns the hex encoded merkle root of the block transactions.
func MerkleRoot(block Block) (string, error) {
	tree, err := merkle.NewTree(block.Trans)
	if err != nil {
		return "", err
	}
	return tree.RootHex(), nil
}

// NewTxProof builds the merkle tree of the block transactions and returns
// the proof for the transaction with the specified from:nonce key.
func NewTxProof(block Block, key string) (TxProof, error) {
	tree, err := merkle.NewTree(block.Trans)
	if err != nil {
		return TxProof{}, err
	}

	var target *SignedTx
	for i := range block.Trans {
		if block.Trans[i].Key() == key {
			target = &block.Trans[i]
			break
		}
	}
	if target == nil {
		return TxProof{}, fmt.Errorf("transaction %s: %w", key, merkle.ErrNotFound)
	}

	proof, order, err := tree.Proof(*target)
	if err != nil {
		return TxProof{}, err
	}

	leaf, err := target.Digest()
	if err != nil {
		return TxProof{}, err
	}

	txProof := TxProof{
		BlockNumber: block.Number,
		BlockHash:   block.Hash,
		MerkleRoot:  tree.RootHex(),
		Leaf:        hexutil.Encode(leaf),
		Proof:       make([]string, len(proof)),
		Order:       order,
	}
	for i, p := range proof {
		txProof.Proof[i] = hexutil.Encode(p)
	}

	return txProof, nil
}

// Verify recomputes the merkle root from the leaf and the proof hashes.
func (p TxProof) Verify() error {
	leaf, err := hexutil.Decode(p.Leaf)
	if err != nil {
		return err
	}

	root, err := hexutil.Decode(p.MerkleRoot)
	if err != nil {
		return err
	}

	proof := make([][]byte, len(p.Proof))
	for i, s := range p.Proof {
		if proof[i], err = hexutil.Decode(s); err != nil {
			return err
		}
	}

	return merkle.VerifyProof(merkle.Blake2b, leaf, proof, p.Order, root)
}

// VerifyRoot verifies the proof and that it leads to the specified root.
func (p TxProof) VerifyRoot(root string) error {
	if p.MerkleRoot != root {
		return fmt.Errorf("merkle root doesn't match, got %s, exp %s", p.MerkleRoot, root)
	}
	return p.Verify()
}
