// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import "github.com/move-exec/txstore/object"

// DebugAssertions gates the store's debug-only invariant checks
// (post-write consistency, colliding loaded-child equality, and
// similar internal sanity checks). It is a runtime switch, false by
// default, in which case the checks are skipped; the replay CLI's
// --debug-assertions flag flips it on for testing.
var DebugAssertions = false

// SystemStateObjectID is the well-known id of the system-state
// wrapper object every chain reserves at address 0x5. It is
// hard-coded rather than threaded through configuration, matching a
// known limitation of the source this store was modeled on: a future
// system transaction type that needs a different settlement object
// will require revisiting conserve_unmetered_storage_rebate and
// AdvanceEpochSafeMode.
var SystemStateObjectID = object.ObjectID{31: 0x05}

// ProtocolConfig carries the small set of protocol-level knobs the
// store consults. It is immutable for the lifetime of a
// TemporaryStore.
type ProtocolConfig struct {
	// Version is the protocol version in effect, reflected into
	// produced effects.
	Version uint64

	// MoveBinaryFormatVersion is reflected into InnerTemporaryStore
	// unchanged; the store never interprets it.
	MoveBinaryFormatVersion uint32

	// NoExtraneousModuleBytes is reflected into InnerTemporaryStore
	// unchanged.
	NoExtraneousModuleBytes bool

	// SimpleConservationChecks gates whether CheckSuiConserved runs.
	SimpleConservationChecks bool

	// SystemPackages is the allow-list of package ids that may be
	// mutated (upgraded) during an epoch-change transaction despite
	// being immutable.
	SystemPackages map[object.ObjectID]struct{}
}

// IsSystemPackage reports whether id is on the protocol's
// system-package allow-list.
func (c ProtocolConfig) IsSystemPackage(id object.ObjectID) bool {
	_, ok := c.SystemPackages[id]
	return ok
}
