// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/move-exec/txstore/layout"
	"github.com/move-exec/txstore/metrics"
	"github.com/move-exec/txstore/object"
)

// GasCostSummary is the subset of a transaction's gas accounting the
// conservation checks and produced effects need.
type GasCostSummary struct {
	ComputationCost         uint64
	StorageCost             uint64
	StorageRebate           uint64
	NonRefundableStorageFee uint64
}

// EpochGasSummary carries the protocol-level fee/rebate adjustment
// applied only to an epoch-change transaction's conservation check:
// newly minted staking rewards count as input, burned previous-epoch
// fees count as output.
type EpochGasSummary struct {
	EpochFees    uint64
	EpochRebates uint64
}

type modifiedObjectRebate struct {
	hasInput     bool
	inputRebate  uint64
	hasOutput    bool
	outputRebate uint64
}

// modifiedObjects streams every id this transaction touched together
// with whichever of its pre-image and post-image rebate exist.
func (ts *TemporaryStore) modifiedObjects() map[object.ObjectID]modifiedObjectRebate {
	out := map[object.ObjectID]modifiedObjectRebate{}
	for id, vd := range ts.results.ObjectsModifiedAt {
		m := modifiedObjectRebate{hasInput: true, inputRebate: ts.getInputStorageRebate(id, vd.Version)}
		if obj, ok := ts.results.WrittenObjects[id]; ok {
			m.hasOutput = true
			m.outputRebate = obj.StorageRebate
		}
		out[id] = m
	}
	for id, obj := range ts.results.WrittenObjects {
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = modifiedObjectRebate{hasOutput: true, outputRebate: obj.StorageRebate}
	}
	return out
}

// CheckSuiConserved runs the cheap conservation check: it verifies
// the sum of storage_rebate fields balances against the transaction's
// gas summary, without inspecting any object's embedded token
// balances.
func (ts *TemporaryStore) CheckSuiConserved(gas GasCostSummary) error {
	metrics.ObserveStorageCost(gas.StorageCost)

	var inputRebate, outputRebate uint64
	for _, m := range ts.modifiedObjects() {
		if m.hasInput {
			inputRebate += m.inputRebate
		}
		if m.hasOutput {
			outputRebate += m.outputRebate
		}
	}

	if gas.StorageCost == 0 {
		want := outputRebate + gas.StorageRebate + gas.NonRefundableStorageFee
		if inputRebate != want {
			metrics.IncConservationCheck("mismatch")
			return &Error{Code: InvariantViolationErr, Message: "SUI conservation failed -- input storage rebate does not equal output storage rebate plus gas rebate and non-refundable fee"}
		}
		metrics.IncConservationCheck("ok")
		return nil
	}

	want := gas.StorageRebate + gas.NonRefundableStorageFee
	if inputRebate != want {
		metrics.IncConservationCheck("mismatch")
		return &Error{Code: InvariantViolationErr, Message: "SUI conservation failed -- input storage rebate does not equal gas rebate plus non-refundable fee"}
	}
	if gas.StorageCost != outputRebate {
		metrics.IncConservationCheck("mismatch")
		return &Error{Code: InvariantViolationErr, Message: "SUI conservation failed -- storage cost charged for storage does not equal storage rebate field of output objects"}
	}
	metrics.IncConservationCheck("ok")
	return nil
}

// CheckSuiConservedExpensive runs the expensive conservation check:
// it resolves every touched object's Move layout and sums the
// embedded token balances on both sides of the transaction.
func (ts *TemporaryStore) CheckSuiConservedExpensive(resolver layout.Resolver, gas GasCostSummary, epoch *EpochGasSummary) error {
	var totalInput, totalOutput uint64

	for id, vd := range ts.results.ObjectsModifiedAt {
		pre, ok := ts.inputObjects[id]
		if !ok {
			var err error
			pre, ok, err = ts.store.GetObjectByKey(id, vd.Version)
			if err != nil {
				return err
			}
			if !ok {
				invariantPanic("conservation check: missing pre-image for modified object %s", id)
			}
		}
		bal, err := pre.TotalBalance(resolver)
		if err != nil {
			return err
		}
		totalInput += bal
	}

	for _, obj := range ts.results.WrittenObjects {
		bal, err := obj.TotalBalance(resolver)
		if err != nil {
			return err
		}
		totalOutput += bal
	}
	totalOutput += gas.ComputationCost + gas.NonRefundableStorageFee

	if epoch != nil {
		totalInput += epoch.EpochFees
		totalOutput += epoch.EpochRebates
	}

	if totalInput != totalOutput {
		metrics.IncConservationCheck("mismatch")
		return &Error{Code: InvariantViolationErr, Message: "SUI conservation failed -- total input token balance does not equal total output token balance"}
	}
	metrics.IncConservationCheck("ok")
	return nil
}
