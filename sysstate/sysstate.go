// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package sysstate implements the native, non-Move path used to
// rotate the chain's system-state object when a full epoch-change
// transaction cannot run. It is a thin consumer of the storage
// package's TemporaryStore, not a core component: everything here
// could equally live behind a Move call, and does when the VM is
// available.
package sysstate

import (
	"encoding/binary"

	"github.com/move-exec/txstore/object"
	"github.com/move-exec/txstore/storage"
)

// AdvanceEpochParams carries the protocol-level inputs to an
// epoch-change.
type AdvanceEpochParams struct {
	NewEpoch            uint64
	NextProtocolVersion uint64
	StorageCharge       uint64
	ComputationCharge   uint64
	StorageRebate       uint64
}

// Wrapper is the minimal decoded shape of the system-state wrapper
// object this store cares about. The real object carries a great deal
// more Move-level state; everything else passes through untouched as
// opaque trailing bytes.
type Wrapper struct {
	Epoch                  uint64
	SafeModeStorageRebates uint64
	trailing               []byte
}

// DecodeWrapper reads a Wrapper's two leading uint64 fields out of
// obj's Move value contents.
func DecodeWrapper(obj object.Object) (Wrapper, error) {
	mv, ok := obj.Data.(object.MoveValue)
	if !ok {
		return Wrapper{}, &storage.Error{Code: storage.BadObjectTypeErr, Message: "system-state object is not a Move value"}
	}
	if len(mv.Contents) < 16 {
		return Wrapper{}, &storage.Error{Code: storage.InvariantViolationErr, Message: "system-state object contents too short"}
	}
	return Wrapper{
		Epoch:                  binary.LittleEndian.Uint64(mv.Contents[0:8]),
		SafeModeStorageRebates: binary.LittleEndian.Uint64(mv.Contents[8:16]),
		trailing:               mv.Contents[16:],
	}, nil
}

// Encode re-serializes w back into a Move value sharing tag with the
// original object it was decoded from.
func (w Wrapper) Encode(tag object.StructTag) object.MoveValue {
	out := make([]byte, 16+len(w.trailing))
	binary.LittleEndian.PutUint64(out[0:8], w.Epoch)
	binary.LittleEndian.PutUint64(out[8:16], w.SafeModeStorageRebates)
	copy(out[16:], w.trailing)
	return object.MoveValue{StructTag: tag, Contents: out}
}

// AdvanceEpochSafeMode retrieves the system-state wrapper from the
// backing store, advances its epoch and accumulated safe-mode storage
// rebate, and writes the new version into ts via MutateChildObject.
func AdvanceEpochSafeMode(ts *storage.TemporaryStore, params AdvanceEpochParams) error {
	old, ok, err := ts.BackingGetObject(storage.SystemStateObjectID)
	if err != nil {
		return err
	}
	if !ok {
		return &storage.Error{Code: storage.InvariantViolationErr, Message: "system-state object not found in backing store"}
	}
	wrapper, err := DecodeWrapper(old)
	if err != nil {
		return err
	}
	mv := old.Data.(object.MoveValue)

	wrapper.Epoch = params.NewEpoch
	wrapper.SafeModeStorageRebates += params.StorageRebate

	newObj := old
	newObj.Data = wrapper.Encode(mv.StructTag)
	ts.MutateChildObject(old, newObj)
	return nil
}
