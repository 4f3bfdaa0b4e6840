// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import "github.com/move-exec/txstore/object"

// fakeBackingStore is a minimal, fully in-memory BackingStore used
// only by this package's tests.
type fakeBackingStore struct {
	byLatest map[object.ObjectID]object.Object
	byKey    map[object.ObjectID]map[object.Version]object.Object
	children map[object.ObjectID]map[object.ObjectID]map[object.Version]object.Object
}

func newFakeBackingStore() *fakeBackingStore {
	return &fakeBackingStore{
		byLatest: map[object.ObjectID]object.Object{},
		byKey:    map[object.ObjectID]map[object.Version]object.Object{},
		children: map[object.ObjectID]map[object.ObjectID]map[object.Version]object.Object{},
	}
}

func (f *fakeBackingStore) put(obj object.Object) {
	f.byLatest[obj.ID] = obj
	if f.byKey[obj.ID] == nil {
		f.byKey[obj.ID] = map[object.Version]object.Object{}
	}
	f.byKey[obj.ID][obj.VersionField] = obj
}

func (f *fakeBackingStore) putChild(parent object.ObjectID, obj object.Object) {
	f.put(obj)
	if f.children[parent] == nil {
		f.children[parent] = map[object.ObjectID]map[object.Version]object.Object{}
	}
	if f.children[parent][obj.ID] == nil {
		f.children[parent][obj.ID] = map[object.Version]object.Object{}
	}
	f.children[parent][obj.ID][obj.VersionField] = obj
}

func (f *fakeBackingStore) GetObject(id object.ObjectID) (object.Object, bool, error) {
	obj, ok := f.byLatest[id]
	return obj, ok, nil
}

func (f *fakeBackingStore) GetObjectByKey(id object.ObjectID, version object.Version) (object.Object, bool, error) {
	versions, ok := f.byKey[id]
	if !ok {
		return object.Object{}, false, nil
	}
	obj, ok := versions[version]
	return obj, ok, nil
}

func (f *fakeBackingStore) GetPackageObject(id object.ObjectID) (object.Object, bool, error) {
	return f.GetObject(id)
}

func (f *fakeBackingStore) ReadChildObject(parent, child object.ObjectID, upperBound object.Version) (object.Object, bool, error) {
	versions, ok := f.children[parent][child]
	if !ok {
		return object.Object{}, false, nil
	}
	var best object.Object
	var found bool
	for v, obj := range versions {
		if v <= upperBound && (!found || v > best.VersionField) {
			best, found = obj, true
		}
	}
	return best, found, nil
}

var _ BackingStore = (*fakeBackingStore)(nil)

// fakeGasCharger is a minimal GasCharger used only by this package's
// tests: it tracks a single coin and computes rebate as
// storage-price-per-byte times size, handed in at construction.
type fakeGasCharger struct {
	coin         object.ObjectID
	hasCoin      bool
	pricePerByte uint64
	totalStorage uint64
	totalRebate  uint64
}

func (g *fakeGasCharger) GasCoin() (object.ObjectID, bool) { return g.coin, g.hasCoin }

func (g *fakeGasCharger) GasCoins() []object.ObjectRef {
	if !g.hasCoin {
		return nil
	}
	return []object.ObjectRef{{ID: g.coin}}
}

func (g *fakeGasCharger) TrackStorageMutation(newSize int, oldRebate uint64) uint64 {
	g.totalRebate += oldRebate
	newRebate := uint64(newSize) * g.pricePerByte
	g.totalStorage += newRebate
	return newRebate
}

var _ GasCharger = (*fakeGasCharger)(nil)
