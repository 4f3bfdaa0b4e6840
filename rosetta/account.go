// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rosetta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/move-exec/txstore/object"
	"github.com/move-exec/txstore/server/writer"
)

// StakeStatus reports whether a stake has finished activating.
type StakeStatus string

const (
	StakePending StakeStatus = "Pending"
	StakeActive  StakeStatus = "Active"
)

// Stake is one delegation a FullNodeAPI reports for an address, in
// whatever stage of activation it currently occupies.
type Stake struct {
	StakeID         object.ObjectID
	Validator       object.Address
	Status          StakeStatus
	Principal       uint64
	EstimatedReward uint64
}

// FullNodeAPI is the read-through surface the account handlers query.
// This module never implements it; a real full node is a separate
// deployment concern. Tests supply a stub.
type FullNodeAPI interface {
	// GetBalance returns the total SUI balance owned by addr.
	GetBalance(ctx context.Context, addr object.Address) (uint64, error)
	// GetCoins returns every unspent coin owned by addr.
	GetCoins(ctx context.Context, addr object.Address) ([]Coin, error)
	// GetStakes returns every delegation, pending or active, owned by
	// addr.
	GetStakes(ctx context.Context, addr object.Address) ([]Stake, error)
	// CurrentBlockIdentifier returns the identifier of the most
	// recently executed checkpoint.
	CurrentBlockIdentifier(ctx context.Context) (BlockIdentifier, error)
}

// Handler serves the account/coin endpoints of the Rosetta Account API
// against a FullNodeAPI.
type Handler struct {
	API     FullNodeAPI
	Network NetworkIdentifier
}

func (h Handler) checkNetwork(n NetworkIdentifier) error {
	if n != h.Network {
		return fmt.Errorf("rosetta: unsupported network %+v", n)
	}
	return nil
}

// Balance implements POST /account/balance. When the request names a
// sub-account, it aggregates that account's stakes instead of
// returning the plain address balance.
func (h Handler) Balance(w http.ResponseWriter, r *http.Request) {
	var req AccountBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, NewErrorV1(CodeInvalidRequest, MsgDecodeRequest).WithError(err))
		return
	}
	if err := h.checkNetwork(req.NetworkIdentifier); err != nil {
		writeError(w, http.StatusBadRequest, NewErrorV1(CodeInvalidRequest, MsgDecodeRequest).WithError(err))
		return
	}

	if sub := req.AccountIdentifier.SubAccount; sub != nil {
		block, err := h.API.CurrentBlockIdentifier(r.Context())
		if err != nil {
			WriteErrorAuto(w, err)
			return
		}
		amount, err := h.subAccountBalance(r.Context(), sub.AccountType, req.AccountIdentifier.Address)
		if err != nil {
			WriteErrorAuto(w, err)
			return
		}
		writer.JSON(w, http.StatusOK, AccountBalanceResponse{
			BlockIdentifier: block,
			Balances:        []Amount{amount},
		}, false)
		return
	}

	block, err := h.blockIdentifierFor(r.Context(), req.BlockIdentifier)
	if err != nil {
		WriteErrorAuto(w, err)
		return
	}
	balance, err := h.API.GetBalance(r.Context(), req.AccountIdentifier.Address)
	if err != nil {
		WriteErrorAuto(w, err)
		return
	}

	writer.JSON(w, http.StatusOK, AccountBalanceResponse{
		BlockIdentifier: block,
		Balances:        []Amount{amountOf(balance)},
	}, false)
}

// blockIdentifierFor resolves an optional request block identifier to
// a concrete one. This module does not index checkpoints by hash or
// historical index, so any explicit request identifier is echoed back
// as given and only an absent one falls through to the current block.
func (h Handler) blockIdentifierFor(ctx context.Context, requested *BlockIdentifier) (BlockIdentifier, error) {
	if requested != nil {
		return *requested, nil
	}
	return h.API.CurrentBlockIdentifier(ctx)
}

// subAccountBalance filters addr's stakes by the status accountType
// implies and aggregates them into a single Amount, per-stake detail
// attached as SubBalances. An account with no matching stakes reports
// a single zero amount rather than an empty list.
func (h Handler) subAccountBalance(ctx context.Context, accountType SubAccountType, addr object.Address) (Amount, error) {
	stakes, err := h.API.GetStakes(ctx, addr)
	if err != nil {
		return Amount{}, err
	}

	var subBalances []SubBalance
	for _, s := range stakes {
		switch accountType {
		case SubAccountStake:
			if s.Status == StakeActive {
				subBalances = append(subBalances, SubBalance{StakeID: s.StakeID, Validator: s.Validator, Value: s.Principal})
			}
		case SubAccountPendingStake:
			if s.Status == StakePending {
				subBalances = append(subBalances, SubBalance{StakeID: s.StakeID, Validator: s.Validator, Value: s.Principal})
			}
		case SubAccountEstimatedReward:
			if s.Status == StakeActive {
				subBalances = append(subBalances, SubBalance{StakeID: s.StakeID, Validator: s.Validator, Value: s.EstimatedReward})
			}
		default:
			return Amount{}, fmt.Errorf("rosetta: unknown sub-account type %q", accountType)
		}
	}

	if len(subBalances) == 0 {
		return amountOf(0), nil
	}
	var total uint64
	for _, sb := range subBalances {
		total += sb.Value
	}
	amount := amountOf(total)
	amount.SubBalances = subBalances
	return amount, nil
}

// Coins implements POST /account/coins.
func (h Handler) Coins(w http.ResponseWriter, r *http.Request) {
	var req AccountCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, NewErrorV1(CodeInvalidRequest, MsgDecodeRequest).WithError(err))
		return
	}
	if err := h.checkNetwork(req.NetworkIdentifier); err != nil {
		writeError(w, http.StatusBadRequest, NewErrorV1(CodeInvalidRequest, MsgDecodeRequest).WithError(err))
		return
	}

	block, err := h.API.CurrentBlockIdentifier(r.Context())
	if err != nil {
		WriteErrorAuto(w, err)
		return
	}
	coins, err := h.API.GetCoins(r.Context(), req.AccountIdentifier.Address)
	if err != nil {
		WriteErrorAuto(w, err)
		return
	}

	writer.JSON(w, http.StatusOK, AccountCoinsResponse{BlockIdentifier: block, Coins: coins}, false)
}

func amountOf(balance uint64) Amount {
	return Amount{
		Value:    strconv.FormatUint(balance, 10),
		Currency: suiCurrency,
	}
}
