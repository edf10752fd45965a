// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Subscribe()
	defer h.Evts.Release(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a new wallet transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	signedTx, err := req.toSignedTx()
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "from:nonce", signedTx, "kind", signedTx.Record.Kind())
	if err := h.State.SubmitTransaction(signedTx); err != nil {
		return errs.FromLedger(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining asks the worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status  string `json:"status"`
		Mempool int    `json:"mempool"`
	}{
		Status:  "mining signalled",
		Mempool: h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AppendBlock accepts a block mined somewhere else, validates it and if that
// passes, adds the block to the local blockchain.
func (h Handlers) AppendBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var blockData database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := database.ToBlock(blockData)
	if err != nil {
		return errs.FromLedger(fmt.Errorf("unable to decode block: %w", err))
	}

	if err := h.State.AppendBlock(block); err != nil {
		return errs.FromLedger(err)
	}

	resp := struct {
		Status string `json:"status"`
		Number uint64 `json:"number"`
	}{
		Status: "accepted",
		Number: block.Number,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID := database.AccountID(web.Param(r, "account"))

	trans := []tx{}
	for _, signedTx := range h.State.RetrieveMempool() {
		if accountID != "" && !signedTx.Involves(accountID) {
			continue
		}
		trans = append(trans, toTx(h.NS, signedTx))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Accounts returns the current state of all accounts or a single account.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var acts []account

	switch param := web.Param(r, "account"); param {
	case "":
		for _, dbAccount := range h.State.RetrieveAccounts() {
			acts = append(acts, toAccount(h.NS, dbAccount))
		}

	default:
		accountID, err := h.NS.Resolve(param)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		dbAccount, err := h.State.QueryAccount(accountID)
		if err != nil {
			return errs.FromLedger(err)
		}
		acts = append(acts, toAccount(h.NS, dbAccount))
	}

	ai := actInfo{
		LastestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted:  h.State.QueryMempoolLength(),
		Accounts:     acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByAccount returns all the blocks and their details. When no account
// is provided every block is returned.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if param := web.Param(r, "account"); param != "" {
		var err error
		accountID, err = h.NS.Resolve(param)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	dbBlocks, err := h.State.QueryBlocksByAccount(accountID)
	if err != nil {
		return err
	}

	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(h.NS, dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// TransactionProof returns the merkle proof that a transaction is part of
// the specified block.
func (h Handlers) TransactionProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := strconv.ParseUint(web.Param(r, "block"), 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if number == 0 || number > h.State.RetrieveLatestBlock().Number {
		return errs.NewTrusted(fmt.Errorf("block %d does not exist", number), http.StatusNotFound)
	}

	proof, err := h.State.QueryTransactionProof(number, web.Param(r, "key"))
	if err != nil {
		if errors.Is(err, merkle.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}
