// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import "github.com/move-exec/txstore/object"

// GasCharger is the collaborator the storage-gas and rebate engine
// drives. Implementations own the transaction's gas coins and the
// running totals of storage cost/rebate; the temporary store never
// charges anything itself, it only reports size deltas and records
// the rebate the charger computes back onto the written object.
type GasCharger interface {
	// GasCoin returns the id of the coin merged rebates land on, or
	// false for gas-less system transactions.
	GasCoin() (object.ObjectID, bool)

	// GasCoins returns every coin reference this transaction may
	// spend from, used to exempt them from ownership authentication.
	GasCoins() []object.ObjectRef

	// TrackStorageMutation records that an object changed from
	// oldRebate at its old size to newSize, and returns the new
	// storage_rebate to stamp onto the object. Called with newSize 0
	// for deleted or wrapped objects, which credits back the full
	// rebate.
	TrackStorageMutation(newSize int, oldRebate uint64) uint64
}
