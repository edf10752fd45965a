package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// MaxDifficulty is the largest number of leading zero bits a hash can have.
const MaxDifficulty = signature.HashLength * 8

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Number        uint64       `json:"number"`          // Block number in the chain, starting at 1.
	PrevBlockHash string       `json:"prev_block_hash"` // Hash of the previous block in the chain.
	BeneficiaryID AccountID    `json:"beneficiary"`     // Account of the node who mined the block.
	Nonce         *uint256.Int `json:"nonce"`           // Value identified to solve the hash solution.
	Hash          string       `json:"hash"`            // Hash of the block that satisfies the difficulty.
	Trans         []SignedTx   `json:"trans"`           // Transactions in the order they are applied.
}

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	BeneficiaryID AccountID
	Difficulty    uint16
	PrevBlock     Block
	Trans         []SignedTx
	EvHandler     func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The search has no upper bound and
// returns when the context is cancelled.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	if len(args.Trans) == 0 {
		return Block{}, ErrEmptyBlock
	}

	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	// When mining the first block, the previous block's hash is the
	// genesis hash.
	prevBlockHash := signature.GenesisHash
	if args.PrevBlock.Number > 0 {
		prevBlockHash = args.PrevBlock.Hash
	}

	trans := make([]SignedTx, len(args.Trans))
	copy(trans, args.Trans)

	// Construct the block to be mined.
	nb := Block{
		Number:        args.PrevBlock.Number + 1,
		PrevBlockHash: prevBlockHash,
		BeneficiaryID: args.BeneficiaryID,
		Nonce:         new(uint256.Int),
		Trans:         trans,
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, args.Difficulty, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, difficulty uint16, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started")
	defer ev("database: PerformPOW: MINING: completed")

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Trans {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	// Encode the block once. The nonce is the last 16 bytes of the encoding
	// so only those bytes change between attempts.
	data, err := encodeBlock(b.PrevBlockHash, b.BeneficiaryID, b.Trans, b.Nonce)
	if err != nil {
		return err
	}
	noncePos := len(data) - 16

	// Loop until we find a solution for the next block or are cancelled.
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		copy(data[noncePos:], to16(b.Nonce))
		hash := signature.HashBytes(data)
		if !isHashSolved(difficulty, hash) {
			b.Nonce.AddUint64(b.Nonce, 1)
			if !fits128(b.Nonce) {
				return errors.New("nonce space exhausted")
			}
			continue
		}

		b.Hash = signature.Hash(data)

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", short(b.PrevBlockHash), short(b.Hash))
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// ComputeHash recomputes the hash of the block from its fields.
func (b Block) ComputeHash() (string, error) {
	data, err := encodeBlock(b.PrevBlockHash, b.BeneficiaryID, b.Trans, b.Nonce)
	if err != nil {
		return "", err
	}
	return signature.Hash(data), nil
}

// ValidateBlock takes a block and validates it to be the next block after
// the previous block. A zero value previous block means the chain is empty.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block has transactions", b.Number)

	if len(b.Trans) == 0 {
		return ErrEmptyBlock
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Number)

	nextNumber := previousBlock.Number + 1
	if b.Number != nextNumber {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrChainLinkMismatch, b.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Number)

	prevBlockHash := signature.GenesisHash
	if previousBlock.Number > 0 {
		prevBlockHash = previousBlock.Hash
	}
	if b.PrevBlockHash != prevBlockHash {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrChainLinkMismatch, short(b.PrevBlockHash), short(prevBlockHash))
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Number)

	if b.Nonce == nil || !fits128(b.Nonce) {
		return fmt.Errorf("%w: nonce must be a 128 bit value", ErrProofOfWorkInvalid)
	}

	hash, err := b.ComputeHash()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProofOfWorkInvalid, err)
	}
	if hash != b.Hash {
		return fmt.Errorf("%w: hash doesn't match the block, got %s, exp %s", ErrProofOfWorkInvalid, short(b.Hash), short(hash))
	}

	raw, err := hexutil.Decode(hash)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProofOfWorkInvalid, err)
	}
	if !isHashSolved(difficulty, raw) {
		return fmt.Errorf("%w: %s does not meet difficulty %d", ErrProofOfWorkInvalid, short(hash), difficulty)
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// The hash must start with difficulty number of zero bits.
func isHashSolved(difficulty uint16, hash []byte) bool {
	if int(difficulty) > len(hash)*8 {
		return false
	}

	for _, b := range hash {
		switch {
		case difficulty == 0:
			return true
		case difficulty >= 8:
			if b != 0 {
				return false
			}
			difficulty -= 8
		default:
			return b>>(8-difficulty) == 0
		}
	}

	return true
}

// short returns the leading part of a hash for logging.
func short(hash string) string {
	if len(hash) > 18 {
		return hash[:18]
	}
	return hash
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash  string      `json:"hash"`
	Block BlockHeader `json:"block"`
	Trans []SignedTx  `json:"trans"`
}

// BlockHeader is the part of the block that is not the transactions.
type BlockHeader struct {
	Number        uint64       `json:"number"`
	PrevBlockHash string       `json:"prev_block_hash"`
	BeneficiaryID AccountID    `json:"beneficiary"`
	Nonce         *uint256.Int `json:"nonce"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash: block.Hash,
		Block: BlockHeader{
			Number:        block.Number,
			PrevBlockHash: block.PrevBlockHash,
			BeneficiaryID: block.BeneficiaryID,
			Nonce:         block.Nonce,
		},
		Trans: block.Trans,
	}
}

// ToBlock converts the serialized data back into a Block. The stored hash
// must match the hash computed from the fields.
func ToBlock(blockData BlockData) (Block, error) {
	block := Block{
		Number:        blockData.Block.Number,
		PrevBlockHash: blockData.Block.PrevBlockHash,
		BeneficiaryID: blockData.Block.BeneficiaryID,
		Nonce:         blockData.Block.Nonce,
		Hash:          blockData.Hash,
		Trans:         blockData.Trans,
	}

	hash, err := block.ComputeHash()
	if err != nil {
		return Block{}, err
	}
	if hash != block.Hash {
		return Block{}, fmt.Errorf("%w: stored hash for block %d doesn't match its contents", ErrProofOfWorkInvalid, block.Number)
	}

	return block, nil
}
