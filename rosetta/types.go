// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rosetta implements the read-through account/coin half of the
// Rosetta Account API (https://www.rosetta-api.org/docs/AccountApi.html):
// POST /account/balance and POST /account/coins, backed by a FullNodeAPI
// this module defines but does not implement.
package rosetta

import (
	"github.com/move-exec/txstore/object"
)

// NetworkIdentifier names the network a request targets. This module
// serves a single network, so Balance and Coins only check it against
// the handler's configured identifier rather than routing on it.
type NetworkIdentifier struct {
	Blockchain string `json:"blockchain"`
	Network    string `json:"network"`
}

// BlockIdentifier names a checkpoint by index and/or hash. A request
// may supply either, both, or neither (meaning "current"); a response
// always reports the index, and the hash only when one is known.
type BlockIdentifier struct {
	Index uint64  `json:"index"`
	Hash  *string `json:"hash,omitempty"`
}

// SubAccountType enumerates the staking sub-balances an account
// identifier may request instead of its plain address balance.
type SubAccountType string

const (
	SubAccountStake           SubAccountType = "Stake"
	SubAccountPendingStake    SubAccountType = "PendingStake"
	SubAccountEstimatedReward SubAccountType = "EstimatedReward"
)

// SubAccount selects a staking sub-balance of an account rather than
// its plain address balance.
type SubAccount struct {
	AccountType SubAccountType `json:"account_type"`
}

// SubBalance is the contribution of a single stake to an aggregated
// sub-account Amount.
type SubBalance struct {
	StakeID   object.ObjectID `json:"stake_id"`
	Validator object.Address  `json:"validator"`
	Value     uint64          `json:"value"`
}

// AccountIdentifier names the account a balance or coin lookup targets.
// SubAccount is optional: when present, Balance aggregates stake
// balances of the named kind instead of returning the address balance.
type AccountIdentifier struct {
	Address    object.Address `json:"address"`
	SubAccount *SubAccount    `json:"sub_account,omitempty"`
}

// Currency describes the unit an Amount is denominated in.
type Currency struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// Amount pairs a value with the currency it is denominated in. Value is
// a decimal string per the Rosetta spec, wide enough to carry a uint64
// without precision loss through JSON. SubBalances is populated only
// for aggregated sub-account balances.
type Amount struct {
	Value       string       `json:"value"`
	Currency    Currency     `json:"currency"`
	SubBalances []SubBalance `json:"sub_balances,omitempty"`
}

// AccountBalanceRequest is the body of POST /account/balance.
type AccountBalanceRequest struct {
	NetworkIdentifier NetworkIdentifier `json:"network_identifier"`
	AccountIdentifier AccountIdentifier `json:"account_identifier"`
	BlockIdentifier   *BlockIdentifier  `json:"block_identifier,omitempty"`
}

// AccountBalanceResponse is the body returned from POST /account/balance.
type AccountBalanceResponse struct {
	BlockIdentifier BlockIdentifier `json:"block_identifier"`
	Balances        []Amount        `json:"balances"`
}

// Coin is one unspent coin object belonging to an account.
type Coin struct {
	CoinObjectID object.ObjectID `json:"coin_object_id"`
	Amount       Amount          `json:"amount"`
}

// AccountCoinsRequest is the body of POST /account/coins.
type AccountCoinsRequest struct {
	NetworkIdentifier NetworkIdentifier `json:"network_identifier"`
	AccountIdentifier AccountIdentifier `json:"account_identifier"`
}

// AccountCoinsResponse is the body returned from POST /account/coins.
type AccountCoinsResponse struct {
	BlockIdentifier BlockIdentifier `json:"block_identifier"`
	Coins           []Coin          `json:"coins"`
}

// suiCurrency is the fixed currency every balance and coin in this
// module is denominated in; there is no multi-currency concept in
// scope.
var suiCurrency = Currency{Symbol: "SUI", Decimals: 9}
