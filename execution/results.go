// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package execution accumulates the per-transaction effects a single
// VM execution (or a sequence of them, see Merge) produces: writes,
// creations, deletions, modified pre-images, and emitted events.
package execution

import (
	"bytes"
	"sort"

	"github.com/move-exec/txstore/object"
)

// Event is one VM-emitted event, opaque to the store beyond its
// ordering.
type Event struct {
	Type object.StructTag `json:"type"`
	BCS  []byte           `json:"bcs"`
}

// LoadedChildObjectMetadata records the pre-image reference and
// storage rebate of a child object the VM dereferenced via a dynamic
// field read, so storage-rebate accounting can see it even though it
// never appears in the transaction's declared inputs.
type LoadedChildObjectMetadata struct {
	Version       object.Version `json:"version"`
	Digest        object.Digest  `json:"digest"`
	StorageRebate uint64         `json:"storageRebate"`
}

// Results is the execution-results accumulator: every write, creation,
// deletion, and modified pre-image a transaction's execution has
// produced so far.
type Results struct {
	WrittenObjects   map[object.ObjectID]object.Object
	CreatedObjectIDs map[object.ObjectID]struct{}
	DeletedObjectIDs map[object.ObjectID]struct{}
	ObjectsModifiedAt map[object.ObjectID]object.VersionDigest
	UserEvents       []Event
}

// New returns an empty accumulator.
func New() *Results {
	return &Results{
		WrittenObjects:    map[object.ObjectID]object.Object{},
		CreatedObjectIDs:  map[object.ObjectID]struct{}{},
		DeletedObjectIDs:  map[object.ObjectID]struct{}{},
		ObjectsModifiedAt: map[object.ObjectID]object.VersionDigest{},
	}
}

// Merge union-merges other into r: values from other overwrite on
// collision in written_objects, sets union, and the earliest-observed
// modified-at pre-image wins (first-wins), because the VM may be
// invoked more than once against the same store (e.g. publishing a
// new system package during an epoch-change transaction) and later
// invocations must not clobber the true original pre-image. Events
// are appended in the order the batches were merged, i.e. in emission
// order across calls.
func (r *Results) Merge(other *Results) {
	for id, obj := range other.WrittenObjects {
		r.WrittenObjects[id] = obj
	}
	for id := range other.CreatedObjectIDs {
		r.CreatedObjectIDs[id] = struct{}{}
	}
	for id := range other.DeletedObjectIDs {
		r.DeletedObjectIDs[id] = struct{}{}
	}
	for id, vd := range other.ObjectsModifiedAt {
		if _, ok := r.ObjectsModifiedAt[id]; !ok {
			r.ObjectsModifiedAt[id] = vd
		}
	}
	r.UserEvents = append(r.UserEvents, other.UserEvents...)
}

// DropWrites clears every field of the accumulator, used when the VM
// aborts a call and wants to discard its partial effects.
func (r *Results) DropWrites() {
	r.WrittenObjects = map[object.ObjectID]object.Object{}
	r.CreatedObjectIDs = map[object.ObjectID]struct{}{}
	r.DeletedObjectIDs = map[object.ObjectID]struct{}{}
	r.ObjectsModifiedAt = map[object.ObjectID]object.VersionDigest{}
	r.UserEvents = nil
}

// UpdateVersionAndPreviousTx stamps every written object with the
// transaction's Lamport version and digest, the final step before a
// store is consumed into effects.
func (r *Results) UpdateVersionAndPreviousTx(version object.Version, digest object.Digest) {
	for id, obj := range r.WrittenObjects {
		obj.VersionField = version
		obj.PreviousTransaction = digest
		r.WrittenObjects[id] = obj
	}
}

// ObjectChangeKind classifies how a touched object changed.
type ObjectChangeKind int

const (
	// ObjectChangeCreated: a brand new id, not present before this tx.
	ObjectChangeCreated ObjectChangeKind = iota
	// ObjectChangeMutated: an existing id was rewritten.
	ObjectChangeMutated
	// ObjectChangeDeleted: an existing id was removed.
	ObjectChangeDeleted
	// ObjectChangeWrapped: an id was touched but neither rewritten nor
	// deleted — it now lives inside another object's bytes.
	ObjectChangeWrapped
)

// ObjectChange is one entry of the object-change list embedded in
// TransactionEffects.
type ObjectChange struct {
	ID   object.ObjectID  `json:"id"`
	Kind ObjectChangeKind `json:"kind"`
}

// GetObjectChanges classifies every id this accumulator touched into
// created/mutated/deleted/wrapped, in a stable order (modified-at ids
// first, then any pure creations not already modified, each group
// sorted by id bytes).
func (r *Results) GetObjectChanges() []ObjectChange {
	var changes []ObjectChange
	seen := map[object.ObjectID]struct{}{}

	modified := make([]object.ObjectID, 0, len(r.ObjectsModifiedAt))
	for id := range r.ObjectsModifiedAt {
		modified = append(modified, id)
	}
	sortIDs(modified)
	for _, id := range modified {
		seen[id] = struct{}{}
		switch {
		case r.isDeleted(id):
			changes = append(changes, ObjectChange{ID: id, Kind: ObjectChangeDeleted})
		case r.isWritten(id):
			kind := ObjectChangeMutated
			if r.isCreated(id) {
				kind = ObjectChangeCreated
			}
			changes = append(changes, ObjectChange{ID: id, Kind: kind})
		default:
			changes = append(changes, ObjectChange{ID: id, Kind: ObjectChangeWrapped})
		}
	}
	var created []object.ObjectID
	for id := range r.CreatedObjectIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		created = append(created, id)
	}
	sortIDs(created)
	for _, id := range created {
		changes = append(changes, ObjectChange{ID: id, Kind: ObjectChangeCreated})
	}
	return changes
}

func sortIDs(ids []object.ObjectID) {
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
}

func (r *Results) isDeleted(id object.ObjectID) bool {
	_, ok := r.DeletedObjectIDs[id]
	return ok
}

func (r *Results) isWritten(id object.ObjectID) bool {
	_, ok := r.WrittenObjects[id]
	return ok
}

func (r *Results) isCreated(id object.ObjectID) bool {
	_, ok := r.CreatedObjectIDs[id]
	return ok
}

// WrappedIDs returns every id in ObjectsModifiedAt that was neither
// written nor deleted — consumed into another object's bytes.
func (r *Results) WrappedIDs() []object.ObjectID {
	var out []object.ObjectID
	for id := range r.ObjectsModifiedAt {
		if !r.isWritten(id) && !r.isDeleted(id) {
			out = append(out, id)
		}
	}
	return out
}
