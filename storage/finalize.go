// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import (
	"crypto/sha256"

	"github.com/move-exec/txstore/effects"
	"github.com/move-exec/txstore/execution"
	"github.com/move-exec/txstore/metrics"
	"github.com/move-exec/txstore/object"
)

// IntoInner decomposes the store into its immutable, committable
// snapshot. Callers normally reach this only through IntoEffects.
func (ts *TemporaryStore) IntoInner() effects.InnerTemporaryStore {
	loaded := make(map[object.ObjectID]object.Version, len(ts.loadedChildObjects))
	for id, meta := range ts.loadedChildObjects {
		loaded[id] = meta.Version
	}
	return effects.InnerTemporaryStore{
		InputObjects:                ts.inputObjects,
		MutableInputs:               ts.mutableInputRefs,
		Written:                     ts.results.WrittenObjects,
		Events:                      ts.results.UserEvents,
		MaxBinaryFormatVersion:      ts.protocolConfig.MoveBinaryFormatVersion,
		NoExtraneousModuleBytes:     ts.protocolConfig.NoExtraneousModuleBytes,
		LoadedChildObjects:          loaded,
		RuntimePackagesLoadedFromDB: ts.snapshotPackagesLoadedFromDB(),
	}
}

// computeEventsDigest hashes the BCS-concatenation of every event in
// emission order, or returns nil if there were none.
func computeEventsDigest(bcsEvents [][]byte) *object.Digest {
	if len(bcsEvents) == 0 {
		return nil
	}
	h := sha256.New()
	for _, bs := range bcsEvents {
		h.Write(bs)
	}
	var d object.Digest
	copy(d[:], h.Sum(nil))
	return &d
}

// IntoEffects finalizes the store: it stamps every written object
// with the Lamport version and digest, snapshots the gas coin's
// post-image, classifies every touched object into the effects'
// object-change list, and returns both the committable snapshot and
// the compact transaction-effects record.
func (ts *TemporaryStore) IntoEffects(
	sharedObjectRefs []object.ObjectRef,
	deps []object.Digest,
	gas GasCostSummary,
	status effects.ExecutionStatus,
	charger GasCharger,
	epoch uint64,
) (effects.InnerTemporaryStore, effects.TransactionEffects) {
	ts.UpdateObjectVersionAndPrevTx()

	var gasInfo effects.GasObjectInfo
	if coinID, ok := charger.GasCoin(); ok {
		obj := ts.results.WrittenObjects[coinID]
		gasInfo = effects.GasObjectInfo{Ref: obj.ComputeObjectReference(), Owner: obj.Owner}
	} else {
		gasInfo = effects.GasObjectInfo{
			Ref:   object.ObjectRef{ID: object.ZeroObjectID, Version: object.MinVersion, Digest: object.MinDigest},
			Owner: object.AddressOwner(object.Address{}),
		}
	}

	objectChanges := ts.results.GetObjectChanges()
	var written, deleted int
	for _, c := range objectChanges {
		switch c.Kind {
		case execution.ObjectChangeDeleted:
			deleted++
		case execution.ObjectChangeCreated, execution.ObjectChangeMutated:
			written++
		}
	}
	metrics.ObserveObjectCounts(written, deleted)

	lamportVersion := ts.lamportTimestamp
	protocolVersion := ts.protocolConfig.Version
	inner := ts.IntoInner()

	bcsEvents := make([][]byte, 0, len(inner.Events))
	for _, e := range inner.Events {
		bcsEvents = append(bcsEvents, e.BCS)
	}

	eff := effects.TransactionEffects{
		ProtocolVersion:         protocolVersion,
		Status:                  status,
		Epoch:                   epoch,
		GasSummary:              effects.GasCostSummary(gas),
		SharedObjectRefs:        sharedObjectRefs,
		TransactionDigest:       ts.digest,
		LamportVersion:          lamportVersion,
		ObjectChanges:           objectChanges,
		GasObject:               gasInfo,
		EventsDigest:            computeEventsDigest(bcsEvents),
		TransactionDependencies: deps,
	}
	return inner, eff
}
