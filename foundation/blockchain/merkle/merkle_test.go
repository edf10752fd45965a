package merkle_test

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data uses the sha256 hashing algorithm for the leafs.
type Data struct {
	x string
}

// Digest hashes the values using sha256.
func (d Data) Digest() ([]byte, error) {
	h := sha256.Sum256([]byte(d.x))
	return h[:], nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func sum(parts ...[]byte) []byte {
	h := sha256.Sum256(bytes.Join(parts, nil))
	return h[:]
}

// =============================================================================

func Test_Root(t *testing.T) {
	t.Log("Given the need to compute a merkle root.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling three leafs with sha256.", testID)
		{
			data := []Data{{"a"}, {"b"}, {"c"}}
			tree, err := merkle.NewTree(data, merkle.WithHashStrategy[Data](sha256.New))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %v", failed, testID, err)
			}

			a, _ := data[0].Digest()
			b, _ := data[1].Digest()
			c, _ := data[2].Digest()
			exp := sum(sum(a, b), sum(c, c))

			if !bytes.Equal(tree.MerkleRoot, exp) {
				t.Fatalf("\t%s\tTest %d:\tShould pad the last leaf, got %x exp %x", failed, testID, tree.MerkleRoot, exp)
			}
			t.Logf("\t%s\tTest %d:\tShould pad the last leaf.", success, testID)

			if len(tree.Values()) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould return the values without padding.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould return the values without padding.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling no leafs.", testID)
		{
			if _, err := merkle.NewTree([]Data{}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not build an empty tree.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not build an empty tree.", success, testID)
		}
	}
}

func Test_Proof(t *testing.T) {
	t.Log("Given the need to prove a value is in the tree.")
	{
		for testID, n := range []int{1, 2, 5, 6, 8} {
			t.Logf("\tTest %d:\tWhen handling %d leafs with the default hash.", testID, n)
			{
				var data []Data
				for i := 0; i < n; i++ {
					data = append(data, Data{fmt.Sprintf("tx%d", i)})
				}

				tree, err := merkle.NewTree(data)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %v", failed, testID, err)
				}

				for _, d := range data {
					proof, order, err := tree.Proof(d)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould get a proof for %s: %v", failed, testID, d.x, err)
					}

					leaf, _ := d.Digest()
					if err := merkle.VerifyProof(merkle.Blake2b, leaf, proof, order, tree.MerkleRoot); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould verify the proof for %s: %v", failed, testID, d.x, err)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould verify a proof for every leaf.", success, testID)

				proof, order, _ := tree.Proof(data[0])
				other, _ := Data{"other"}.Digest()
				if err := merkle.VerifyProof(merkle.Blake2b, other, proof, order, tree.MerkleRoot); err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject a proof for the wrong leaf.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject a proof for the wrong leaf.", success, testID)

				if _, _, err := tree.Proof(Data{"missing"}); err != merkle.ErrNotFound {
					t.Fatalf("\t%s\tTest %d:\tShould not find a missing value: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould not find a missing value.", success, testID)
			}
		}
	}
}
