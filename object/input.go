// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package object

// InputObject is one object supplied to a transaction, together with
// whether the transaction declared it mutable.
type InputObject struct {
	Object    Object `json:"object"`
	IsMutable bool   `json:"isMutable"`
}

// InputObjects is the ordered collection of objects a transaction was
// given to execute against.
type InputObjects struct {
	objects []InputObject
}

// NewInputObjects constructs an InputObjects from the given slice,
// preserving order.
func NewInputObjects(objects []InputObject) InputObjects {
	cp := make([]InputObject, len(objects))
	copy(cp, objects)
	return InputObjects{objects: cp}
}

// MutableInputs returns the (id -> pre-image version/digest) map for
// every object the transaction declared mutable.
func (in InputObjects) MutableInputs() map[ObjectID]VersionDigest {
	out := make(map[ObjectID]VersionDigest)
	for _, o := range in.objects {
		if o.IsMutable {
			out[o.Object.ID] = VersionDigest{Version: o.Object.VersionField, Digest: o.Object.DigestField}
		}
	}
	return out
}

// LamportTimestamp computes 1 + max(versions of all inputs), the
// version every object this transaction writes will be stamped with.
func (in InputObjects) LamportTimestamp() Version {
	var maxV Version
	for _, o := range in.objects {
		if o.Object.VersionField > maxV {
			maxV = o.Object.VersionField
		}
	}
	return maxV + 1
}

// IntoObjectMap returns the id -> Object map of every input, in the
// Rust source's terms "into_object_map".
func (in InputObjects) IntoObjectMap() map[ObjectID]Object {
	out := make(map[ObjectID]Object, len(in.objects))
	for _, o := range in.objects {
		out[o.Object.ID] = o.Object
	}
	return out
}

// Len reports the number of input objects.
func (in InputObjects) Len() int { return len(in.objects) }
