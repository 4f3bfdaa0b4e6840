// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/move-exec/txstore/metrics"
	"github.com/move-exec/txstore/object"
)

// locatePackage finds packageID's object, preferring the written
// post-image, then the input pre-image, then the backing store. A
// backing-store hit is additionally cached into
// runtimePackagesLoadedFromDB so later resolver calls see it without
// another round trip.
func (ts *TemporaryStore) locatePackage(packageID object.ObjectID) (object.Object, bool, error) {
	if obj, ok := ts.results.WrittenObjects[packageID]; ok {
		return obj, true, nil
	}
	if obj, ok := ts.inputObjects[packageID]; ok {
		return obj, true, nil
	}
	ts.packagesMu.RLock()
	if obj, ok := ts.runtimePackagesLoadedFromDB[packageID]; ok {
		ts.packagesMu.RUnlock()
		return obj, true, nil
	}
	ts.packagesMu.RUnlock()

	obj, ok, err := ts.store.GetPackageObject(packageID)
	if err != nil || !ok {
		return object.Object{}, false, err
	}
	ts.recordPackageLoadedFromDB(obj)
	return obj, true, nil
}

// ResolveModule returns moduleName's bytes from the package at
// packageID. A missing package reports (nil, false, nil); a package
// id whose object is not actually a package is a caller error.
func (ts *TemporaryStore) ResolveModule(packageID object.ObjectID, moduleName string) ([]byte, bool, error) {
	pkg, ok, err := ts.locatePackage(packageID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	data, ok := pkg.Data.(object.MovePackage)
	if !ok {
		return nil, false, &Error{Code: BadObjectTypeErr, Message: "module resolver: object is not a package"}
	}
	bs, ok := data.Modules[moduleName]
	if !ok {
		return nil, false, nil
	}
	return bs, true, nil
}

// ResolveResource returns the serialized contents of the Move value
// at id whose struct tag matches tag. mutableCandidateOnly, when true,
// signals the caller only expected to ever see an immutable value at
// this path (e.g. resolving a published, frozen config object); a
// mutable hit in that case is an invariant violation rather than a
// silent miss.
func (ts *TemporaryStore) ResolveResource(id object.ObjectID, tag object.StructTag, mutableCandidateOnly bool) ([]byte, bool, error) {
	obj, ok := ts.ReadObject(id)
	if !ok {
		var err error
		obj, ok, err = ts.store.GetObject(id)
		if err != nil {
			return nil, false, err
		}
	}
	if !ok {
		return nil, false, nil
	}
	mv, ok := obj.Data.(object.MoveValue)
	if !ok {
		return nil, false, &Error{Code: BadObjectTypeErr, Message: "resource resolver: object is not a Move value"}
	}
	if !mv.StructTag.Equal(tag) {
		return nil, false, nil
	}
	if mutableCandidateOnly && !obj.IsImmutable() {
		invariantPanic("resource resolver: object %s expected immutable, found mutable", id)
	}
	return mv.Contents, true, nil
}

// ResolveChildObject serves a dynamic-field read: the written
// post-image if the child has been mutated this transaction,
// otherwise the backing store's most recent version no greater than
// upperBound. This makes dynamic-field reads observe in-flight
// writes.
func (ts *TemporaryStore) ResolveChildObject(parent, child object.ObjectID, upperBound object.Version) (object.Object, bool, error) {
	if obj, ok := ts.results.WrittenObjects[child]; ok {
		metrics.IncChildObjectResolution("write-set")
		return obj, true, nil
	}
	obj, ok, err := ts.store.ReadChildObject(parent, child, upperBound)
	if err == nil && ok {
		metrics.IncChildObjectResolution("backing-store")
	}
	return obj, ok, err
}

// ResolvePackageObject is the package-object resolver used by the VM
// to load dependency packages: write-path first, falling through to
// the backing store and caching the result for later lookups.
func (ts *TemporaryStore) ResolvePackageObject(id object.ObjectID) (object.Object, bool, error) {
	return ts.locatePackage(id)
}
