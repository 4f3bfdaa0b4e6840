// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package effects defines the two records a temporary store
// decomposes into once a transaction's execution is finalized: an
// InnerTemporaryStore (the consensus-bound snapshot of everything the
// transaction touched) and a TransactionEffects (the compact,
// protocol-level summary of what changed).
package effects

import (
	"github.com/move-exec/txstore/execution"
	"github.com/move-exec/txstore/object"
)

// InnerTemporaryStore is the immutable, committable snapshot a
// finalized temporary store decomposes into.
type InnerTemporaryStore struct {
	InputObjects                map[object.ObjectID]object.Object      `json:"inputObjects"`
	MutableInputs               map[object.ObjectID]object.VersionDigest `json:"mutableInputs"`
	Written                     map[object.ObjectID]object.Object      `json:"written"`
	Events                      []execution.Event                      `json:"events,omitempty"`
	MaxBinaryFormatVersion      uint32                                  `json:"maxBinaryFormatVersion"`
	NoExtraneousModuleBytes     bool                                    `json:"noExtraneousModuleBytes"`
	LoadedChildObjects          map[object.ObjectID]object.Version     `json:"loadedChildObjects,omitempty"`
	RuntimePackagesLoadedFromDB map[object.ObjectID]object.Object      `json:"runtimePackagesLoadedFromDB,omitempty"`
}

// ExecutionStatus is the coarse success/failure outcome the caller
// passes into finalization. Status is opaque to the store beyond this
// shape; a non-empty Error means the transaction aborted and its
// writes did not commit.
type ExecutionStatus struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// GasObjectInfo is the gas coin's post-image reference and owner, or
// a zero-valued sentinel for gas-less system transactions.
type GasObjectInfo struct {
	Ref   object.ObjectRef `json:"ref"`
	Owner object.Owner     `json:"owner"`
}

// TransactionEffects is the protocol-level summary of a finalized
// transaction.
type TransactionEffects struct {
	ProtocolVersion         uint64                  `json:"protocolVersion"`
	Status                  ExecutionStatus         `json:"status"`
	Epoch                   uint64                  `json:"epoch"`
	GasSummary              GasCostSummary          `json:"gasSummary"`
	SharedObjectRefs        []object.ObjectRef      `json:"sharedObjectRefs,omitempty"`
	TransactionDigest       object.Digest           `json:"transactionDigest"`
	LamportVersion          object.Version          `json:"lamportVersion"`
	ObjectChanges           []execution.ObjectChange `json:"objectChanges,omitempty"`
	GasObject               GasObjectInfo           `json:"gasObject"`
	EventsDigest            *object.Digest          `json:"eventsDigest,omitempty"`
	TransactionDependencies []object.Digest         `json:"transactionDependencies,omitempty"`
}

// GasCostSummary mirrors storage.GasCostSummary without importing the
// storage package, which would create an import cycle (storage
// constructs TransactionEffects from its own gas summary type).
type GasCostSummary struct {
	ComputationCost         uint64 `json:"computationCost"`
	StorageCost             uint64 `json:"storageCost"`
	StorageRebate           uint64 `json:"storageRebate"`
	NonRefundableStorageFee uint64 `json:"nonRefundableStorageFee"`
}
