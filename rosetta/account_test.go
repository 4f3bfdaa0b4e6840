// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rosetta

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/move-exec/txstore/object"
	"github.com/move-exec/txstore/storage"
)

var testNetwork = NetworkIdentifier{Blockchain: "sui", Network: "testnet"}

type stubFullNode struct {
	balances map[object.Address]uint64
	coins    map[object.Address][]Coin
	stakes   map[object.Address][]Stake
	block    BlockIdentifier
	err      error
}

func (s stubFullNode) GetBalance(_ context.Context, addr object.Address) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.balances[addr], nil
}

func (s stubFullNode) GetCoins(_ context.Context, addr object.Address) ([]Coin, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.coins[addr], nil
}

func (s stubFullNode) GetStakes(_ context.Context, addr object.Address) ([]Stake, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stakes[addr], nil
}

func (s stubFullNode) CurrentBlockIdentifier(_ context.Context) (BlockIdentifier, error) {
	if s.err != nil {
		return BlockIdentifier{}, s.err
	}
	return s.block, nil
}

func TestBalanceReturnsAmount(t *testing.T) {
	addr := object.Address{1}
	h := Handler{Network: testNetwork, API: stubFullNode{
		balances: map[object.Address]uint64{addr: 1_500_000_000},
		block:    BlockIdentifier{Index: 10},
	}}

	body, _ := json.Marshal(AccountBalanceRequest{NetworkIdentifier: testNetwork, AccountIdentifier: AccountIdentifier{Address: addr}})
	req := httptest.NewRequest(http.MethodPost, "/account/balance", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Balance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp AccountBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Balances) != 1 || resp.Balances[0].Value != "1500000000" {
		t.Fatalf("unexpected balances: %+v", resp.Balances)
	}
	if resp.Balances[0].Currency.Symbol != "SUI" {
		t.Fatalf("expected SUI currency, got %+v", resp.Balances[0].Currency)
	}
	if resp.BlockIdentifier.Index != 10 {
		t.Fatalf("expected block index 10, got %+v", resp.BlockIdentifier)
	}
}

func TestBalancePropagatesNotFoundAsAccountNotFound(t *testing.T) {
	h := Handler{Network: testNetwork, API: stubFullNode{err: &storage.Error{Code: storage.NotFoundErr, Message: "no such account"}}}

	body, _ := json.Marshal(AccountBalanceRequest{NetworkIdentifier: testNetwork})
	req := httptest.NewRequest(http.MethodPost, "/account/balance", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Balance(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	var e ErrorV1
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if e.Code != CodeAccountNotFound {
		t.Fatalf("expected code %s, got %s", CodeAccountNotFound, e.Code)
	}
}

func TestBalanceAggregatesActiveStakeSubAccount(t *testing.T) {
	addr := object.Address{3}
	validator := object.Address{7}
	stakeA := object.ObjectID{1}
	stakeB := object.ObjectID{2}
	h := Handler{Network: testNetwork, API: stubFullNode{
		block: BlockIdentifier{Index: 20},
		stakes: map[object.Address][]Stake{
			addr: {
				{StakeID: stakeA, Validator: validator, Status: StakeActive, Principal: 100, EstimatedReward: 5},
				{StakeID: stakeB, Validator: validator, Status: StakePending, Principal: 50},
			},
		},
	}}

	body, _ := json.Marshal(AccountBalanceRequest{
		NetworkIdentifier: testNetwork,
		AccountIdentifier: AccountIdentifier{Address: addr, SubAccount: &SubAccount{AccountType: SubAccountStake}},
	})
	req := httptest.NewRequest(http.MethodPost, "/account/balance", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Balance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp AccountBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Balances) != 1 || resp.Balances[0].Value != "100" {
		t.Fatalf("unexpected balances: %+v", resp.Balances)
	}
	if len(resp.Balances[0].SubBalances) != 1 || resp.Balances[0].SubBalances[0].StakeID != stakeA {
		t.Fatalf("expected a single sub-balance for the active stake, got %+v", resp.Balances[0].SubBalances)
	}
}

func TestBalanceSubAccountWithNoMatchingStakesIsZero(t *testing.T) {
	addr := object.Address{4}
	h := Handler{Network: testNetwork, API: stubFullNode{
		stakes: map[object.Address][]Stake{addr: {{Status: StakePending}}},
	}}

	body, _ := json.Marshal(AccountBalanceRequest{
		NetworkIdentifier: testNetwork,
		AccountIdentifier: AccountIdentifier{Address: addr, SubAccount: &SubAccount{AccountType: SubAccountStake}},
	})
	req := httptest.NewRequest(http.MethodPost, "/account/balance", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Balance(rec, req)

	var resp AccountBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Balances) != 1 || resp.Balances[0].Value != "0" || resp.Balances[0].SubBalances != nil {
		t.Fatalf("expected a single zero amount with no sub-balances, got %+v", resp.Balances)
	}
}

func TestCoinsReturnsCoinList(t *testing.T) {
	addr := object.Address{2}
	coinID := object.ObjectID{9}
	h := Handler{Network: testNetwork, API: stubFullNode{coins: map[object.Address][]Coin{
		addr: {{CoinObjectID: coinID, Amount: amountOf(42)}},
	}}}

	body, _ := json.Marshal(AccountCoinsRequest{NetworkIdentifier: testNetwork, AccountIdentifier: AccountIdentifier{Address: addr}})
	req := httptest.NewRequest(http.MethodPost, "/account/coins", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Coins(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp AccountCoinsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Coins) != 1 || resp.Coins[0].CoinObjectID != coinID {
		t.Fatalf("unexpected coins: %+v", resp.Coins)
	}
}

func TestBalanceRejectsMalformedBody(t *testing.T) {
	h := Handler{Network: testNetwork, API: stubFullNode{}}
	req := httptest.NewRequest(http.MethodPost, "/account/balance", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	h.Balance(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
