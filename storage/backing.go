// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/move-exec/txstore/object"
)

// BackingStore is the read-only, thread-safe persistent object store the
// temporary store falls through to whenever it has no in-flight
// answer of its own. Implementations must tolerate concurrent reads;
// the core never writes through this interface.
//
// A lookup miss is reported by returning (zero-value, false, nil), not
// an error: resolvers treat absence as a normal, non-fatal outcome.
// An error return indicates the backing store itself failed (e.g. an
// I/O error). Most core lookups surface it up unchanged; the
// pre-image lookups in storage-rebate accounting and in the ownership
// check's classification phase raise an invariant-violation panic
// instead.
type BackingStore interface {
	// GetObject returns the latest known version of id.
	GetObject(id object.ObjectID) (object.Object, bool, error)

	// GetObjectByKey returns the exact version of id requested.
	GetObjectByKey(id object.ObjectID, version object.Version) (object.Object, bool, error)

	// GetPackageObject returns id's object, asserting it is a
	// published package. Implementations need not validate the
	// contents; callers check Data's concrete type.
	GetPackageObject(id object.ObjectID) (object.Object, bool, error)

	// ReadChildObject returns the most recent version of child no
	// greater than upperBound, owned (directly or dynamically) by
	// parent.
	ReadChildObject(parent, child object.ObjectID, upperBound object.Version) (object.Object, bool, error)
}
