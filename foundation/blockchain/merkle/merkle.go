// Package merkle provides a merkle tree over the transactions of a block so
// inclusion of a single transaction can be proven without the whole block.
package merkle

import (
	"bytes"
	"errors"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// Set of proof orders. Left means the proof hash is concatenated first.
const (
	Left  int64 = 0
	Right int64 = 1
)

// ErrNotFound is returned when the value is not a leaf of the tree.
var ErrNotFound = errors.New("unable to find data in tree")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Digest() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   []byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using
// blake2b-512 when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: Blake2b,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Blake2b is the default hash strategy.
func Blake2b() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}

// generate constructs the leafs and nodes of the tree from the specified data.
// An odd number of leafs is padded by duplicating the last leaf.
func (t *Tree[T]) generate(values []T) error {
	if len(values) == 0 {
		return errors.New("cannot construct tree with no content")
	}

	var leafs []*Node[T]
	for _, value := range values {
		hash, err := value.Digest()
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
		})
	}

	if len(leafs)%2 == 1 {
		last := leafs[len(leafs)-1]
		leafs = append(leafs, &Node[T]{
			Hash:  last.Hash,
			Value: last.Value,
			leaf:  true,
			dup:   true,
		})
	}

	root, err := t.buildIntermediate(leafs)
	if err != nil {
		return err
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving the value is in the tree. Walking from the leaf hash,
// each proof hash is concatenated before the running hash when the order
// is Left and after it when the order is Right. The final hash is the root.
func (t *Tree[T]) Proof(data T) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if node.dup || !node.Value.Equals(data) {
			continue
		}

		var proof [][]byte
		var order []int64
		for parent := node.Parent; parent != nil; parent = parent.Parent {
			if parent.Left == node {
				proof = append(proof, parent.Right.Hash)
				order = append(order, Right)
			} else {
				proof = append(proof, parent.Left.Hash)
				order = append(order, Left)
			}
			node = parent
		}

		return proof, order, nil
	}

	return nil, nil, ErrNotFound
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

// Values returns the values stored in the tree without the padding leaf.
func (t *Tree[T]) Values() []T {
	var values []T
	for _, node := range t.Leafs {
		if !node.dup {
			values = append(values, node.Value)
		}
	}
	return values
}

// buildIntermediate constructs the intermediate and root levels of the tree
// for a given list of nodes and returns the root node.
func (t *Tree[T]) buildIntermediate(nl []*Node[T]) (*Node[T], error) {
	var nodes []*Node[T]

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if i+1 == len(nl) {
			right = i
		}

		h, err := t.combine(nl[left].Hash, nl[right].Hash)
		if err != nil {
			return nil, err
		}

		n := Node[T]{
			Left:  nl[left],
			Right: nl[right],
			Hash:  h,
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n

		if len(nl) == 2 {
			return &n, nil
		}
	}

	return t.buildIntermediate(nodes)
}

func (t *Tree[T]) combine(left []byte, right []byte) ([]byte, error) {
	h := t.hashStrategy()
	if _, err := h.Write(append(append([]byte{}, left...), right...)); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// =============================================================================

// Node represents a node, root, or leaf in the tree.
type Node[T Hashable[T]] struct {
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
	leaf   bool
	dup    bool
}

// =============================================================================

// VerifyProof recomputes the root from the leaf hash and the proof produced
// by Tree.Proof using the specified hash strategy.
func VerifyProof(hashStrategy func() hash.Hash, leaf []byte, proof [][]byte, order []int64, root []byte) error {
	if len(proof) != len(order) {
		return errors.New("proof and order length mismatch")
	}

	current := leaf
	for i, p := range proof {
		var data []byte
		switch order[i] {
		case Left:
			data = append(append([]byte{}, p...), current...)
		case Right:
			data = append(append([]byte{}, current...), p...)
		default:
			return errors.New("invalid proof order")
		}

		h := hashStrategy()
		if _, err := h.Write(data); err != nil {
			return err
		}
		current = h.Sum(nil)
	}

	if !bytes.Equal(current, root) {
		return errors.New("calculated root does not match the merkle root")
	}

	return nil
}
