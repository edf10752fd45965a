package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const account = "0x02412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf"

func Test_Load(t *testing.T) {
	t.Log("Given the need to load a genesis file.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the file is well formed.", testID)
		{
			content := `{
				"date": "2026-10-01T00:00:00Z",
				"chain_id": 1,
				"trans_per_block": 10,
				"difficulty": 12,
				"accounts": {
					"` + account + `": {"type": "user", "tokens": "340282366920938463463374607431768211455", "store": {"name": "kennedy"}}
				}
			}`

			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %v", failed, testID, err)
			}

			g, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the file.", success, testID)

			bal, err := g.Accounts[account].Balance()
			if err != nil || bal.BitLen() != 128 {
				t.Fatalf("\t%s\tTest %d:\tShould parse the largest 128 bit balance: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould parse the largest 128 bit balance.", success, testID)
		}
	}
}

func Test_Validate(t *testing.T) {
	tt := []struct {
		name string
		gen  genesis.Genesis
	}{
		{"zero trans per block", genesis.Genesis{Difficulty: 1}},
		{"difficulty too large", genesis.Genesis{TransPerBlock: 1, Difficulty: 513}},
		{"unknown type", genesis.Genesis{TransPerBlock: 1, Accounts: map[string]genesis.Seed{account: {Type: "admin"}}}},
		{"flagged user", genesis.Genesis{TransPerBlock: 1, Accounts: map[string]genesis.Seed{account: {Type: genesis.TypeUser, Flagged: true}}}},
		{"bad tokens", genesis.Genesis{TransPerBlock: 1, Accounts: map[string]genesis.Seed{account: {Type: genesis.TypeUser, Tokens: "-1"}}}},
		{"tokens over 128 bits", genesis.Genesis{TransPerBlock: 1, Accounts: map[string]genesis.Seed{account: {Type: genesis.TypeUser, Tokens: "340282366920938463463374607431768211456"}}}},
	}

	t.Log("Given the need to reject bad genesis values.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				if err := tst.gen.Validate(); err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject the genesis.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the genesis.", success, testID)
			}
		}
	}
}
