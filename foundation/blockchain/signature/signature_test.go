package signature_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey    = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherHexKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	data := []byte("Bill")

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(data, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signature.Verify(data, sig, crypto.CompressPubkey(&pk.PublicKey)); err != nil {
		t.Fatalf("Should be able to verify the signature with the compressed key: %s", err)
	}

	if err := signature.Verify(data, sig, crypto.FromECDSAPub(&pk.PublicKey)); err != nil {
		t.Fatalf("Should be able to verify the signature with the uncompressed key: %s", err)
	}
}

func Test_VerifyFailures(t *testing.T) {
	data := []byte("Bill")

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	other, err := crypto.HexToECDSA(otherHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(data, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	t.Log("Given the need to reject signatures that don't match.")
	{
		if err := signature.Verify([]byte("Jill"), sig, crypto.CompressPubkey(&pk.PublicKey)); err == nil {
			t.Fatalf("\t%s\tShould reject a signature over different data.", failed)
		}
		t.Logf("\t%s\tShould reject a signature over different data.", success)

		if err := signature.Verify(data, sig, crypto.CompressPubkey(&other.PublicKey)); err == nil {
			t.Fatalf("\t%s\tShould reject a signature for a different key.", failed)
		}
		t.Logf("\t%s\tShould reject a signature for a different key.", success)

		if err := signature.Verify(data, "0x1234", crypto.CompressPubkey(&pk.PublicKey)); err == nil {
			t.Fatalf("\t%s\tShould reject a short signature.", failed)
		}
		t.Logf("\t%s\tShould reject a short signature.", success)

		if err := signature.Verify(data, "not-hex", crypto.CompressPubkey(&pk.PublicKey)); err == nil {
			t.Fatalf("\t%s\tShould reject a signature that isn't hex.", failed)
		}
		t.Logf("\t%s\tShould reject a signature that isn't hex.", success)
	}
}

func Test_Hash(t *testing.T) {
	data := []byte("Bill")

	h := signature.Hash(data)
	if !strings.HasPrefix(h, "0x") || len(h) != 2+2*signature.HashLength {
		t.Fatalf("Should get back a 0x prefixed 64 byte hash: %s", h)
	}

	if h2 := signature.Hash(data); h != h2 {
		t.Logf("got: %s", h2)
		t.Logf("exp: %s", h)
		t.Fatalf("Should get back the same hash twice.")
	}

	if h3 := signature.Hash([]byte("Jill")); h == h3 {
		t.Fatalf("Should get back a different hash for different data.")
	}

	if signature.GenesisHash == "" || signature.GenesisHash != signature.Hash([]byte("ardan ledger genesis")) {
		t.Fatalf("Should have a stable genesis hash.")
	}
}

func Test_SignConsistency(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig1, err := signature.Sign([]byte("Bill"), pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	sig2, err := signature.Sign([]byte("Bill"), pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if sig1 != sig2 {
		t.Errorf("Got: %s", sig1)
		t.Errorf("Got: %s", sig2)
		t.Fatalf("Should get deterministic signatures for the same data.")
	}
}
