// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/move-exec/txstore/metrics"
	"github.com/move-exec/txstore/object"
)

func gasCoinSet(charger GasCharger) map[object.ObjectID]struct{} {
	set := map[object.ObjectID]struct{}{}
	for _, ref := range charger.GasCoins() {
		set[ref.ID] = struct{}{}
	}
	return set
}

// objectsToAuthenticate runs phases A and B of the ownership
// authentication algorithm: it classifies every input object, then
// every id the transaction modified that input classification did
// not already cover, and returns the worklist phase C must walk
// together with the set already proven authenticated.
func (ts *TemporaryStore) objectsToAuthenticate(sender object.Address, charger GasCharger, isEpochChange bool) ([]object.ObjectID, map[object.ObjectID]struct{}) {
	gasCoins := gasCoinSet(charger)

	authenticated := map[object.ObjectID]struct{}{}
	for id, obj := range ts.inputObjects {
		if _, isGas := gasCoins[id]; isGas {
			continue
		}
		switch obj.Owner.Kind {
		case object.AddressOwnerKind:
			if obj.Owner.Address != sender {
				invariantPanic("input object %s not owned by sender", id)
			}
			authenticated[id] = struct{}{}
		case object.SharedOwnerKind:
			authenticated[id] = struct{}{}
		case object.ImmutableOwnerKind:
			// Authenticated, but deliberately excluded from the root
			// set: an object chain rooted in an immutable object must
			// fail authentication, catching illegal mutation chains.
		case object.ObjectOwnerKind:
			invariantPanic("input object %s must be address-owned, shared, or immutable", id)
		}
	}

	var toAuthenticate []object.ObjectID
	for id := range ts.results.ObjectsModifiedAt {
		if _, ok := authenticated[id]; ok {
			continue
		}
		if _, isGas := gasCoins[id]; isGas {
			continue
		}
		old, ok, err := ts.store.GetObject(id)
		if err != nil || !ok {
			invariantPanic("modified object %s must exist in the backing store", id)
		}
		switch old.Owner.Kind {
		case object.ObjectOwnerKind:
			toAuthenticate = append(toAuthenticate, id)
		case object.AddressOwnerKind, object.SharedOwnerKind:
			invariantPanic("object %s should already be authenticated from its input classification", id)
		case object.ImmutableOwnerKind:
			if !isEpochChange {
				invariantPanic("immutable object %s cannot be written outside an epoch-change transaction", id)
			}
			if !ts.protocolConfig.IsSystemPackage(id) {
				invariantPanic("only system packages can be upgraded, got %s", id)
			}
		}
	}
	return toAuthenticate, authenticated
}

// CheckOwnershipInvariants proves that every object this transaction
// touched is rooted, directly or transitively, in the sender, a
// shared input, or (during an epoch-change transaction) a system
// package.
func (ts *TemporaryStore) CheckOwnershipInvariants(sender object.Address, charger GasCharger, isEpochChange bool) error {
	worklist, authenticated := ts.objectsToAuthenticate(sender, charger, isEpochChange)
	toAuthenticate := append([]object.ObjectID(nil), worklist...)

	covered := map[object.ObjectID]object.ObjectID{}
	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		old, ok, err := ts.store.GetObject(id)
		if err != nil {
			return err
		}
		if !ok {
			// Lookup failure here is expected when the parent is an
			// "object-less" id, e.g. the id of a dynamic-field table
			// or bag with no backing Object. We cannot distinguish
			// this from a genuine authentication failure, so we skip
			// it rather than fail the transaction.
			continue
		}
		if old.Owner.Kind != object.ObjectOwnerKind {
			invariantPanic("unauthenticated root at %s with owner kind %s", id, old.Owner.Kind)
		}
		parent := old.Owner.Parent

		if _, ok := authenticated[parent]; ok {
			authenticated[id] = struct{}{}
		} else if _, ok := covered[parent]; !ok {
			worklist = append(worklist, parent)
		}
		covered[id] = parent
	}

	// A child popped before its parent was proven authenticated is
	// authenticated once its parent is, so propagate down each chain.
	for changed := true; changed; {
		changed = false
		for id, parent := range covered {
			if _, ok := authenticated[id]; ok {
				continue
			}
			if _, ok := authenticated[parent]; ok {
				authenticated[id] = struct{}{}
				changed = true
			}
		}
	}

	for _, id := range toAuthenticate {
		if _, ok := authenticated[id]; !ok {
			metrics.IncOwnershipFailure()
			invariantPanic("ownership chain for %s never reached an authenticated root", id)
		}
	}
	return nil
}
