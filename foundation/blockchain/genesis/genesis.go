// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"
)

// Set of account types a seed can declare.
const (
	TypeUser      = "user"
	TypeContract  = "contract"
	TypeValidator = "validator"
)

// maxDifficulty is the number of bits in a block hash.
const maxDifficulty = 512

// Seed is the starting state of a single account.
type Seed struct {
	Type                       string            `json:"type"`                                   // user, contract or validator.
	Tokens                     string            `json:"tokens"`                                 // Decimal balance, must fit in 128 bits.
	Store                      map[string]string `json:"store,omitempty"`                        // Starting key/value store.
	Flagged                    bool              `json:"flagged,omitempty"`                      // Validators only.
	IncorrectlyValidatedBlocks uint64            `json:"incorrectly_validated_blocks,omitempty"` // Validators only.
}

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time       `json:"date"`
	ChainID       uint16          `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	TransPerBlock uint16          `json:"trans_per_block"` // The maximum number of transactions that can be in a block.
	Difficulty    uint16          `json:"difficulty"`      // Number of leading zero bits a block hash needs.
	Accounts      map[string]Seed `json:"accounts"`        // Account id to starting state.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %s: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the chain parameters and the shape of every seed. Account
// ids are checked by the database when the ledger is built.
func (g Genesis) Validate() error {
	if g.TransPerBlock == 0 {
		return errors.New("trans_per_block must be greater than zero")
	}

	if g.Difficulty > maxDifficulty {
		return fmt.Errorf("difficulty %d exceeds %d bits", g.Difficulty, maxDifficulty)
	}

	for id, seed := range g.Accounts {
		switch seed.Type {
		case TypeUser, TypeContract:
			if seed.Flagged || seed.IncorrectlyValidatedBlocks != 0 {
				return fmt.Errorf("account %s: only validators carry validator fields", id)
			}
		case TypeValidator:
		default:
			return fmt.Errorf("account %s: unknown type %q", id, seed.Type)
		}

		if _, err := seed.Balance(); err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
	}

	return nil
}

// Balance parses the seed tokens. An empty value is a zero balance.
func (s Seed) Balance() (*uint256.Int, error) {
	if s.Tokens == "" {
		return new(uint256.Int), nil
	}

	v, err := uint256.FromDecimal(s.Tokens)
	if err != nil {
		return nil, fmt.Errorf("tokens %q: %w", s.Tokens, err)
	}

	if v.BitLen() > 128 {
		return nil, fmt.Errorf("tokens %q exceeds 128 bits", s.Tokens)
	}

	return v, nil
}
