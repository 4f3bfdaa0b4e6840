// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package inmem

import (
	"testing"

	"github.com/move-exec/txstore/object"
)

func TestGetObjectReturnsLatestVersion(t *testing.T) {
	s := New()
	id := object.ObjectID{1}
	s.Put(object.Object{ID: id, VersionField: 1})
	s.Put(object.Object{ID: id, VersionField: 5})
	s.Put(object.Object{ID: id, VersionField: 3})

	obj, ok, err := s.GetObject(id)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if obj.VersionField != 5 {
		t.Fatalf("expected latest version 5, got %d", obj.VersionField)
	}
}

func TestGetObjectByKeyExactVersion(t *testing.T) {
	s := New()
	id := object.ObjectID{1}
	s.Put(object.Object{ID: id, VersionField: 1, StorageRebate: 10})
	s.Put(object.Object{ID: id, VersionField: 2, StorageRebate: 20})

	obj, ok, err := s.GetObjectByKey(id, 1)
	if err != nil || !ok || obj.StorageRebate != 10 {
		t.Fatalf("expected version 1 with rebate 10, got %+v ok=%v err=%v", obj, ok, err)
	}

	_, ok, err = s.GetObjectByKey(id, 99)
	if err != nil || ok {
		t.Fatalf("expected miss for absent version, got ok=%v err=%v", ok, err)
	}
}

func TestReadChildObjectRespectsUpperBound(t *testing.T) {
	s := New()
	parent := object.ObjectID{1}
	child := object.ObjectID{2}
	s.PutChild(parent, object.Object{ID: child, VersionField: 1})
	s.PutChild(parent, object.Object{ID: child, VersionField: 5})

	obj, ok, err := s.ReadChildObject(parent, child, 3)
	if err != nil || !ok {
		t.Fatalf("expected a hit bounded below version 5, got ok=%v err=%v", ok, err)
	}
	if obj.VersionField != 1 {
		t.Fatalf("expected version 1 to be the best match under upper bound 3, got %d", obj.VersionField)
	}

	_, ok, err = s.ReadChildObject(parent, child, 0)
	if err != nil || ok {
		t.Fatalf("expected no version at or below 0, got ok=%v err=%v", ok, err)
	}
}

func TestReadChildObjectWrongParent(t *testing.T) {
	s := New()
	parent := object.ObjectID{1}
	other := object.ObjectID{9}
	child := object.ObjectID{2}
	s.PutChild(parent, object.Object{ID: child, VersionField: 1})

	_, ok, err := s.ReadChildObject(other, child, object.MaxVersion)
	if err != nil || ok {
		t.Fatalf("expected miss for wrong parent, got ok=%v err=%v", ok, err)
	}
}
