// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

// HashLength is the number of bytes in a hash produced by this package.
const HashLength = blake2b.Size

// genesisSentinel is the fixed value whose hash is used as the previous
// block hash of the first block in the chain.
const genesisSentinel = "ardan ledger genesis"

// GenesisHash represents the hash the first block must point to.
var GenesisHash = Hash([]byte(genesisSentinel))

// =============================================================================

// Hash returns the hex encoded BLAKE2b-512 hash of the data.
func Hash(data []byte) string {
	h := blake2b.Sum512(data)
	return hexutil.Encode(h[:])
}

// HashBytes returns the raw BLAKE2b-512 hash of the data.
func HashBytes(data []byte) []byte {
	h := blake2b.Sum512(data)
	return h[:]
}

// Sign uses the specified private key to sign the data. The signature is
// returned hex encoded in the [R|S|V] format.
func Sign(data []byte, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	digest := stamp(data)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest, rs) {
		return "", errors.New("invalid signature")
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced over the data by the private key
// matching the specified public key. The public key can be compressed or
// uncompressed.
func Verify(data []byte, sig string, publicKey []byte) error {
	sigBytes, err := hexutil.Decode(sig)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	if len(sigBytes) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length, got %d, exp %d", len(sigBytes), crypto.SignatureLength)
	}

	// Check the recovery id is either 0 or 1.
	if v := sigBytes[crypto.RecoveryIDOffset]; v != 0 && v != 1 {
		return errors.New("invalid recovery id")
	}

	if !crypto.VerifySignature(publicKey, stamp(data), sigBytes[:crypto.RecoveryIDOffset]) {
		return errors.New("signature does not match public key")
	}

	return nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(data []byte) []byte {

	// Hash the data into a 64 byte array. This is the same digest used for
	// the transaction and block hashes.
	bodyHash := blake2b.Sum512(data)

	// This stamp is used so signatures we produce when signing data
	// are always unique to this ledger.
	stamp := []byte("\x19Ardan Ledger Signed Message:\n64")

	// Hash the stamp and body hash together in a final 32 byte array
	// which is what secp256k1 signs.
	return crypto.Keccak256(stamp, bodyHash[:])
}
