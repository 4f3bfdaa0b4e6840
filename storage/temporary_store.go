// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/move-exec/txstore/execution"
	"github.com/move-exec/txstore/object"
)

// TemporaryStore mediates a single transaction's execution against a
// read-only BackingStore. It owns the transaction's input objects,
// the running execution-results accumulator, the set of child objects
// loaded during dynamic-field reads, and the set of packages pulled
// in from the backing store at runtime.
//
// One TemporaryStore serves exactly one transaction. Its methods are
// not safe for concurrent use except for the resolver-adapter reads
// in resolve.go, which may be called from multiple VM-internal
// contexts while execution is in flight.
type TemporaryStore struct {
	store  BackingStore
	digest object.Digest

	inputObjects map[object.ObjectID]object.Object

	// lamportTimestamp is the version every object this store writes
	// will ultimately be stamped with.
	lamportTimestamp object.Version

	mutableInputRefs map[object.ObjectID]object.VersionDigest

	results *execution.Results

	loadedChildObjects map[object.ObjectID]execution.LoadedChildObjectMetadata

	protocolConfig ProtocolConfig

	packagesMu                  sync.RWMutex
	runtimePackagesLoadedFromDB map[object.ObjectID]object.Object
}

// New creates a store for a single transaction, seeded with the
// objects the caller resolved as inputs.
func New(store BackingStore, inputs object.InputObjects, digest object.Digest, cfg ProtocolConfig) *TemporaryStore {
	return &TemporaryStore{
		store:                       store,
		digest:                      digest,
		inputObjects:                inputs.IntoObjectMap(),
		lamportTimestamp:            inputs.LamportTimestamp(),
		mutableInputRefs:            inputs.MutableInputs(),
		results:                     execution.New(),
		loadedChildObjects:          map[object.ObjectID]execution.LoadedChildObjectMetadata{},
		protocolConfig:              cfg,
		runtimePackagesLoadedFromDB: map[object.ObjectID]object.Object{},
	}
}

// NewForMockTransaction builds a store for dry-run and dev-inspect
// paths. It pins the Lamport timestamp to MaxVersion so that dynamic
// field reads against versions the real transaction would never have
// seen cannot trip an internal assertion.
func NewForMockTransaction(store BackingStore, inputs object.InputObjects, digest object.Digest, cfg ProtocolConfig) *TemporaryStore {
	ts := New(store, inputs, digest, cfg)
	ts.lamportTimestamp = object.MaxVersion
	return ts
}

// Objects returns the store's input-object map. Callers must treat it
// as read-only.
func (ts *TemporaryStore) Objects() map[object.ObjectID]object.Object {
	return ts.inputObjects
}

// BackingGetObject reaches past the in-flight accumulator straight to
// the backing store. It exists for the narrow set of native,
// non-Move callers (advancing the epoch in safe mode) that must
// consult the persisted system-state object directly rather than
// whatever this transaction has written so far.
func (ts *TemporaryStore) BackingGetObject(id object.ObjectID) (object.Object, bool, error) {
	return ts.store.GetObject(id)
}

// ReadObject returns the post-image if the object has been written
// this transaction, else its pre-image from the input set, else
// false.
func (ts *TemporaryStore) ReadObject(id object.ObjectID) (object.Object, bool) {
	if DebugAssertions {
		if _, deleted := ts.results.DeletedObjectIDs[id]; deleted {
			invariantPanic("read after delete of object %s", id)
		}
	}
	if obj, ok := ts.results.WrittenObjects[id]; ok {
		return obj, true
	}
	obj, ok := ts.inputObjects[id]
	return obj, ok
}

// RecordExecutionResults merges a VM execution's accumulated results
// into the store. The VM may be invoked more than once against the
// same store (e.g. publishing a new system package during an
// epoch-change transaction), so this may be called repeatedly; each
// call's results are merged in, not replaced.
func (ts *TemporaryStore) RecordExecutionResults(results *execution.Results) {
	ts.results.Merge(results)
}

// MutateInputObject records a mutation to an object outside of VM
// execution (i.e. pushed by the engine directly). id must be a
// declared-mutable input.
func (ts *TemporaryStore) MutateInputObject(obj object.Object) {
	id := obj.ID
	pre, ok := ts.mutableInputRefs[id]
	if !ok {
		invariantPanic("mutate_input_object called on non-mutable-input id %s", id)
	}
	ts.results.ObjectsModifiedAt[id] = pre
	ts.results.WrittenObjects[id] = obj
}

// MutateChildObject mutates a child object outside of Move execution.
// This is used only by native, non-Move paths such as advancing the
// epoch in safe mode.
func (ts *TemporaryStore) MutateChildObject(oldObj, newObj object.Object) {
	id := newObj.ID
	if DebugAssertions && oldObj.ID != id {
		invariantPanic("mutate_child_object id mismatch: old=%s new=%s", oldObj.ID, id)
	}
	ts.loadedChildObjects[id] = execution.LoadedChildObjectMetadata{
		Version:       oldObj.VersionField,
		Digest:        oldObj.DigestField,
		StorageRebate: oldObj.StorageRebate,
	}
	ts.results.ObjectsModifiedAt[id] = object.VersionDigest{Version: oldObj.VersionField, Digest: oldObj.DigestField}
	ts.results.WrittenObjects[id] = newObj
}

// UpgradeSystemPackage records an upgrade of a system package. Legal
// only for ids the protocol config allow-lists; callers are expected
// to have checked that via ProtocolConfig.IsSystemPackage before the
// ownership authenticator runs.
func (ts *TemporaryStore) UpgradeSystemPackage(pkg object.Object) error {
	id := pkg.ID
	old, ok, err := ts.store.GetObject(id)
	if err != nil {
		return err
	}
	if !ok {
		invariantPanic("upgrading system package %s: current version does not exist", id)
	}
	ts.results.ObjectsModifiedAt[id] = object.VersionDigest{Version: old.VersionField, Digest: old.DigestField}
	ts.results.WrittenObjects[id] = pkg
	return nil
}

// CreateObject records a brand-new object created outside of Move
// execution.
func (ts *TemporaryStore) CreateObject(obj object.Object) {
	if DebugAssertions && !obj.IsImmutable() && obj.VersionField != object.MinVersion {
		invariantPanic("created mutable object %s should not have a version set", obj.ID)
	}
	ts.results.CreatedObjectIDs[obj.ID] = struct{}{}
	ts.results.WrittenObjects[obj.ID] = obj
}

// DeleteInputObject records the deletion of a declared-mutable input
// object outside of Move execution.
func (ts *TemporaryStore) DeleteInputObject(id object.ObjectID) {
	if DebugAssertions {
		if _, written := ts.results.WrittenObjects[id]; written {
			invariantPanic("delete after write of object %s", id)
		}
	}
	pre, ok := ts.mutableInputRefs[id]
	if !ok {
		invariantPanic("delete_input_object called on non-mutable-input id %s", id)
	}
	ts.results.ObjectsModifiedAt[id] = pre
	ts.results.DeletedObjectIDs[id] = struct{}{}
}

// DropWrites discards every effect accumulated so far, used when the
// VM aborts and the caller wants to retry or abandon the transaction.
func (ts *TemporaryStore) DropWrites() {
	ts.results.DropWrites()
}

// SaveLoadedChildObjects idempotently merges newly observed
// child-object metadata into the store's running set. Colliding keys
// must carry identical metadata; DebugAssertions promotes a mismatch
// to a panic.
func (ts *TemporaryStore) SaveLoadedChildObjects(loaded map[object.ObjectID]execution.LoadedChildObjectMetadata) {
	if DebugAssertions {
		for id, v1 := range loaded {
			if v2, ok := ts.loadedChildObjects[id]; ok && v1 != v2 {
				invariantPanic("save_loaded_child_objects: conflicting metadata for %s: %+v vs %+v", id, v1, v2)
			}
		}
	}
	for id, v := range loaded {
		ts.loadedChildObjects[id] = v
	}
}

// ConserveUnmeteredStorageRebate folds an unmetered storage rebate
// (produced by a system transaction that bypasses the usual gas
// accounting) into the system-state wrapper object's storage_rebate
// field. A zero amount is a no-op, since the genesis transaction
// creates the wrapper object and cannot mutate it yet.
func (ts *TemporaryStore) ConserveUnmeteredStorageRebate(amount uint64) {
	if amount == 0 {
		return
	}
	wrapper, ok := ts.ReadObject(SystemStateObjectID)
	if !ok {
		invariantPanic("system-state object must be mutated in a system tx with unmetered storage rebate")
	}
	if wrapper.StorageRebate != 0 {
		invariantPanic("system-state object storage_rebate must be zero before conserve_unmetered_storage_rebate, got %d", wrapper.StorageRebate)
	}
	wrapper.StorageRebate = amount
	ts.MutateInputObject(wrapper)
}

// EnsureActiveInputsMutated forces every declared-mutable input that
// the transaction did not otherwise touch to be mutated as a no-op
// (its contents rewritten unchanged). This guarantees every mutable
// input's version advances, a requirement for consensus ordering of
// shared and owned objects alike.
func (ts *TemporaryStore) EnsureActiveInputsMutated() {
	var toUpdate []object.Object
	for id := range ts.mutableInputRefs {
		if _, ok := ts.results.ObjectsModifiedAt[id]; !ok {
			toUpdate = append(toUpdate, ts.inputObjects[id])
		}
	}
	for _, obj := range toUpdate {
		ts.MutateInputObject(obj)
	}
}

// UpdateObjectVersionAndPrevTx stamps every written object with this
// transaction's Lamport version and digest, then runs the debug-only
// consistency check.
func (ts *TemporaryStore) UpdateObjectVersionAndPrevTx() {
	ts.results.UpdateVersionAndPreviousTx(ts.lamportTimestamp, ts.digest)
	if DebugAssertions {
		ts.checkInvariants()
	}
}

func (ts *TemporaryStore) checkInvariants() {
	for id := range ts.results.WrittenObjects {
		if _, deleted := ts.results.DeletedObjectIDs[id]; deleted {
			invariantPanic("object %s both written and deleted", id)
		}
	}
	for id := range ts.mutableInputRefs {
		if _, ok := ts.results.ObjectsModifiedAt[id]; !ok {
			invariantPanic("mutable input %s not modified", id)
		}
	}
	for id, obj := range ts.results.WrittenObjects {
		if obj.PreviousTransaction != ts.digest {
			invariantPanic("object %s previous_transaction not properly set", id)
		}
	}
}

// WrappedObjectIDs returns every id this transaction touched but
// neither wrote nor deleted: it now lives inside another object's
// bytes.
func (ts *TemporaryStore) WrappedObjectIDs() []object.ObjectID {
	return ts.results.WrappedIDs()
}

// EstimateEffectsSizeUpperBound bounds the serialized size of the
// effects this store will produce, without constructing them.
func (ts *TemporaryStore) EstimateEffectsSizeUpperBound() int {
	wrapped := 0
	for id := range ts.results.ObjectsModifiedAt {
		_, written := ts.results.WrittenObjects[id]
		_, deleted := ts.results.DeletedObjectIDs[id]
		if !written && !deleted {
			wrapped++
		}
	}
	numDeletes := len(ts.results.DeletedObjectIDs) + wrapped
	return estimateEffectsSizeUpperBound(len(ts.results.WrittenObjects), len(ts.mutableInputRefs), numDeletes, len(ts.inputObjects))
}

// WrittenObjectsSize sums the gas-metering size of every written
// object.
func (ts *TemporaryStore) WrittenObjectsSize() int {
	total := 0
	for _, obj := range ts.results.WrittenObjects {
		total += obj.ObjectSizeForGasMetering()
	}
	return total
}

// recordPackageLoadedFromDB caches a package the VM pulled from the
// backing store, guarded by a reader-writer lock because resolver
// reads may come from multiple VM-internal contexts concurrently.
func (ts *TemporaryStore) recordPackageLoadedFromDB(obj object.Object) {
	ts.packagesMu.Lock()
	defer ts.packagesMu.Unlock()
	ts.runtimePackagesLoadedFromDB[obj.ID] = obj
}

func (ts *TemporaryStore) snapshotPackagesLoadedFromDB() map[object.ObjectID]object.Object {
	ts.packagesMu.RLock()
	defer ts.packagesMu.RUnlock()
	out := make(map[object.ObjectID]object.Object, len(ts.runtimePackagesLoadedFromDB))
	for id, obj := range ts.runtimePackagesLoadedFromDB {
		out[id] = obj
	}
	return out
}
