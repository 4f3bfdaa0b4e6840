// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package execution

import (
	"testing"

	"github.com/move-exec/txstore/object"
)

func TestMergeUnionAndFirstWinsModifiedAt(t *testing.T) {
	a := New()
	idA := object.ObjectID{1}
	a.WrittenObjects[idA] = object.Object{ID: idA}
	a.ObjectsModifiedAt[idA] = object.VersionDigest{Version: 1}
	a.UserEvents = append(a.UserEvents, Event{BCS: []byte("first")})

	b := New()
	b.WrittenObjects[idA] = object.Object{ID: idA, StorageRebate: 99} // should overwrite
	b.ObjectsModifiedAt[idA] = object.VersionDigest{Version: 42}      // should NOT overwrite
	idB := object.ObjectID{2}
	b.CreatedObjectIDs[idB] = struct{}{}
	b.UserEvents = append(b.UserEvents, Event{BCS: []byte("second")})

	a.Merge(b)

	if a.WrittenObjects[idA].StorageRebate != 99 {
		t.Fatalf("expected later write to overwrite, got %+v", a.WrittenObjects[idA])
	}
	if a.ObjectsModifiedAt[idA].Version != 1 {
		t.Fatalf("expected first-wins modified_at, got version %d", a.ObjectsModifiedAt[idA].Version)
	}
	if _, ok := a.CreatedObjectIDs[idB]; !ok {
		t.Fatalf("expected created set to union in idB")
	}
	if len(a.UserEvents) != 2 || string(a.UserEvents[0].BCS) != "first" || string(a.UserEvents[1].BCS) != "second" {
		t.Fatalf("expected events to append in emission order, got %+v", a.UserEvents)
	}
}

func TestDropWrites(t *testing.T) {
	r := New()
	id := object.ObjectID{1}
	r.WrittenObjects[id] = object.Object{ID: id}
	r.CreatedObjectIDs[id] = struct{}{}
	r.DeletedObjectIDs[id] = struct{}{}
	r.ObjectsModifiedAt[id] = object.VersionDigest{}
	r.UserEvents = append(r.UserEvents, Event{})

	r.DropWrites()

	if len(r.WrittenObjects) != 0 || len(r.CreatedObjectIDs) != 0 || len(r.DeletedObjectIDs) != 0 ||
		len(r.ObjectsModifiedAt) != 0 || len(r.UserEvents) != 0 {
		t.Fatalf("expected all fields cleared after DropWrites, got %+v", r)
	}
}

func TestGetObjectChangesClassification(t *testing.T) {
	r := New()

	created := object.ObjectID{1}
	mutated := object.ObjectID{2}
	deleted := object.ObjectID{3}
	wrapped := object.ObjectID{4}

	r.WrittenObjects[created] = object.Object{ID: created}
	r.CreatedObjectIDs[created] = struct{}{}
	r.ObjectsModifiedAt[created] = object.VersionDigest{}

	r.WrittenObjects[mutated] = object.Object{ID: mutated}
	r.ObjectsModifiedAt[mutated] = object.VersionDigest{}

	r.DeletedObjectIDs[deleted] = struct{}{}
	r.ObjectsModifiedAt[deleted] = object.VersionDigest{}

	r.ObjectsModifiedAt[wrapped] = object.VersionDigest{}

	changes := r.GetObjectChanges()
	byID := map[object.ObjectID]ObjectChangeKind{}
	for _, c := range changes {
		byID[c.ID] = c.Kind
	}

	want := map[object.ObjectID]ObjectChangeKind{
		created: ObjectChangeCreated,
		mutated: ObjectChangeMutated,
		deleted: ObjectChangeDeleted,
		wrapped: ObjectChangeWrapped,
	}
	for id, kind := range want {
		if byID[id] != kind {
			t.Errorf("id %v: expected kind %v, got %v", id, kind, byID[id])
		}
	}

	wrappedIDs := r.WrappedIDs()
	if len(wrappedIDs) != 1 || wrappedIDs[0] != wrapped {
		t.Fatalf("expected WrappedIDs to report only %v, got %v", wrapped, wrappedIDs)
	}
}

func TestUpdateVersionAndPreviousTx(t *testing.T) {
	r := New()
	id := object.ObjectID{1}
	r.WrittenObjects[id] = object.Object{ID: id, VersionField: 0}

	digest := object.Digest{9}
	r.UpdateVersionAndPreviousTx(5, digest)

	got := r.WrittenObjects[id]
	if got.VersionField != 5 || got.PreviousTransaction != digest {
		t.Fatalf("expected stamped version/digest, got %+v", got)
	}
}
