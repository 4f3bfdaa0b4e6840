// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/move-exec/txstore/metrics"
	"github.com/move-exec/txstore/object"
)

// getInputStorageRebate returns the storage_rebate a mutated object
// carried before this transaction touched it. A modified object must
// come from exactly one of three places: the input set, the loaded
// child-object metadata, or (only for a system-package upgrade during
// epoch change) an exact-version lookup against the backing store.
func (ts *TemporaryStore) getInputStorageRebate(id object.ObjectID, expectedVersion object.Version) uint64 {
	if old, ok := ts.inputObjects[id]; ok {
		return old.StorageRebate
	}
	if meta, ok := ts.loadedChildObjects[id]; ok {
		if DebugAssertions && meta.Version != expectedVersion {
			invariantPanic("loaded child object %s version mismatch: have %d, want %d", id, meta.Version, expectedVersion)
		}
		return meta.StorageRebate
	}
	if obj, ok, err := ts.store.GetObjectByKey(id, expectedVersion); err == nil && ok {
		if DebugAssertions && !obj.IsPackage() {
			invariantPanic("unexpected non-package object %s found only via exact-version lookup", id)
		}
		return obj.StorageRebate
	}
	invariantPanic("looking up storage rebate of mutated object %s should not fail", id)
	return 0
}

// CollectStorageAndRebate apportions storage cost and rebate across
// every object this transaction wrote, then credits back the full
// rebate of every modified object that was deleted or wrapped rather
// than rewritten. It never charges anything itself: charger tracks
// the running totals and decides the new per-object rebate.
func (ts *TemporaryStore) CollectStorageAndRebate(charger GasCharger) {
	// Stage old rebates before mutating, since computing a written
	// object's new rebate must not see another write's new value.
	oldRebates := make(map[object.ObjectID]uint64, len(ts.results.WrittenObjects))
	for id := range ts.results.WrittenObjects {
		if vd, ok := ts.results.ObjectsModifiedAt[id]; ok {
			oldRebates[id] = ts.getInputStorageRebate(id, vd.Version)
		} else {
			oldRebates[id] = 0
		}
	}
	for id, obj := range ts.results.WrittenObjects {
		newSize := obj.ObjectSizeForGasMetering()
		obj.StorageRebate = charger.TrackStorageMutation(newSize, oldRebates[id])
		ts.results.WrittenObjects[id] = obj
		metrics.ObserveStorageRebate(obj.StorageRebate)
	}

	ts.collectRebate(charger)
}

func (ts *TemporaryStore) collectRebate(charger GasCharger) {
	for id, vd := range ts.results.ObjectsModifiedAt {
		if _, written := ts.results.WrittenObjects[id]; written {
			continue
		}
		rebate := ts.getInputStorageRebate(id, vd.Version)
		charger.TrackStorageMutation(0, rebate)
	}
}
