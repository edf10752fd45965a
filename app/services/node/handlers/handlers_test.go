package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	aliceKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	minerKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

func newMux(t *testing.T) (http.Handler, *state.State, database.AccountID) {
	alicePK, err := crypto.HexToECDSA(aliceKey)
	require.NoError(t, err)
	minerPK, err := crypto.HexToECDSA(minerKey)
	require.NoError(t, err)

	alice := database.PublicKeyToAccountID(alicePK.PublicKey)
	miner := database.PublicKeyToAccountID(minerPK.PublicKey)

	storage, err := memory.New()
	require.NoError(t, err)

	st, err := state.New(state.Config{
		BeneficiaryID: miner,
		Genesis: genesis.Genesis{
			TransPerBlock: 10,
			Difficulty:    4,
			Accounts: map[string]genesis.Seed{
				string(alice): {Type: genesis.TypeUser, Tokens: "100"},
				string(miner): {Type: genesis.TypeValidator},
			},
		},
		Storage: storage,
	})
	require.NoError(t, err)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	})

	return mux, st, miner
}

func submitBody(t *testing.T, signedTx database.SignedTx) []byte {
	body := map[string]any{
		"nonce":      signedTx.Nonce.Dec(),
		"from":       signedTx.From,
		"created_at": signedTx.CreatedAt,
		"record":     signedTx.Record,
		"sig":        signedTx.Signature,
	}

	data, err := json.Marshal(body)
	require.NoError(t, err)

	return data
}

func TestSubmitTransaction(t *testing.T) {
	mux, st, miner := newMux(t)

	alicePK, err := crypto.HexToECDSA(aliceKey)
	require.NoError(t, err)
	alice := database.PublicKeyToAccountID(alicePK.PublicKey)

	tx, err := database.NewTx(uint256.NewInt(1), alice, database.TransferTokenRecord(miner, 30))
	require.NoError(t, err)
	signedTx, err := tx.Sign(alicePK)
	require.NoError(t, err)

	// A valid transaction is queued.
	r := httptest.NewRequest(http.MethodPost, "/v1/tx/submit", bytes.NewReader(submitBody(t, signedTx)))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, st.QueryMempoolLength())

	// The same nonce is a replay.
	r = httptest.NewRequest(http.MethodPost, "/v1/tx/submit", bytes.NewReader(submitBody(t, signedTx)))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// A tampered transaction fails the signature check.
	tampered := signedTx
	tampered.Nonce = uint256.NewInt(2)
	r = httptest.NewRequest(http.MethodPost, "/v1/tx/submit", bytes.NewReader(submitBody(t, tampered)))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// A bad account id is caught by validation.
	r = httptest.NewRequest(http.MethodPost, "/v1/tx/submit", bytes.NewReader([]byte(`{"nonce":"1","from":"0x01","created_at":1,"record":{}}`)))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errs.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Contains(t, resp.Fields, "from")
}

func TestAccounts(t *testing.T) {
	mux, _, miner := newMux(t)

	r := httptest.NewRequest(http.MethodGet, "/v1/accounts/list/"+string(miner), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info struct {
		Accounts []struct {
			AccountID string `json:"account"`
			Type      string `json:"type"`
			Tokens    string `json:"tokens"`
		} `json:"accounts"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	require.Len(t, info.Accounts, 1)
	require.Equal(t, "validator", info.Accounts[0].Type)
	require.Equal(t, "0", info.Accounts[0].Tokens)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	r = httptest.NewRequest(http.MethodGet, "/v1/accounts/list/"+string(database.PublicKeyToAccountID(key.PublicKey)), nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/v1/blocks/list", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
}
