// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package inmem provides a process-local, map-backed implementation
// of storage.BackingStore, suitable for tests, the replay CLI, and
// local development. It keeps every version of every object it has
// ever seen. Package lookups read that same version history; child
// lookups also consult a parent-to-child index filled by PutChild.
package inmem

import (
	"sync"

	"github.com/move-exec/txstore/object"
	"github.com/move-exec/txstore/storage"
)

// Store is a thread-safe, in-memory BackingStore.
type Store struct {
	mu sync.RWMutex

	// versions holds every version of every object ever written,
	// keyed by id then version.
	versions map[object.ObjectID]map[object.Version]object.Object

	// latest tracks the highest version written for each id, so
	// GetObject need not scan.
	latest map[object.ObjectID]object.Version

	// children indexes objects by declared parent, for
	// ReadChildObject. An object becomes a "child" of parent the first
	// time it is written via PutChild.
	children map[object.ObjectID]map[object.ObjectID]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		versions: map[object.ObjectID]map[object.Version]object.Object{},
		latest:   map[object.ObjectID]object.Version{},
		children: map[object.ObjectID]map[object.ObjectID]struct{}{},
	}
}

// Put inserts or overwrites one version of an object.
func (s *Store) Put(obj object.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(obj)
}

func (s *Store) putLocked(obj object.Object) {
	if s.versions[obj.ID] == nil {
		s.versions[obj.ID] = map[object.Version]object.Object{}
	}
	s.versions[obj.ID][obj.VersionField] = obj
	if cur, ok := s.latest[obj.ID]; !ok || obj.VersionField >= cur {
		s.latest[obj.ID] = obj.VersionField
	}
}

// PutChild inserts obj and records it as a child of parent, so
// ReadChildObject can find it.
func (s *Store) PutChild(parent object.ObjectID, obj object.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(obj)
	if s.children[parent] == nil {
		s.children[parent] = map[object.ObjectID]struct{}{}
	}
	s.children[parent][obj.ID] = struct{}{}
}

// GetObject implements storage.BackingStore.
func (s *Store) GetObject(id object.ObjectID) (object.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.latest[id]
	if !ok {
		return object.Object{}, false, nil
	}
	return s.versions[id][v], true, nil
}

// GetObjectByKey implements storage.BackingStore.
func (s *Store) GetObjectByKey(id object.ObjectID, version object.Version) (object.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions, ok := s.versions[id]
	if !ok {
		return object.Object{}, false, nil
	}
	obj, ok := versions[version]
	return obj, ok, nil
}

// GetPackageObject implements storage.BackingStore.
func (s *Store) GetPackageObject(id object.ObjectID) (object.Object, bool, error) {
	return s.GetObject(id)
}

// ReadChildObject implements storage.BackingStore: the most recent
// version of child, owned by parent, no greater than upperBound.
func (s *Store) ReadChildObject(parent, child object.ObjectID, upperBound object.Version) (object.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.children[parent][child]; !ok {
		return object.Object{}, false, nil
	}
	versions, ok := s.versions[child]
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

var _ storage.BackingStore = (*Store)(nil)
