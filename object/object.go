// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package object

import (
	"encoding/json"
	"fmt"

	"github.com/move-exec/txstore/layout"
)

// Object is a single versioned, owned piece of state: either a Move
// value or a published package.
type Object struct {
	ID                  ObjectID `json:"id"`
	VersionField        Version  `json:"version"`
	DigestField         Digest   `json:"digest"`
	PreviousTransaction Digest   `json:"previousTransaction"`
	StorageRebate       uint64   `json:"storageRebate"`
	Owner               Owner    `json:"owner"`
	Data                Data     `json:"data"`
}

// wireObject mirrors Object for JSON encoding, replacing the sealed
// Data interface with an explicit discriminator so the concrete
// MoveValue/MovePackage variant survives a round trip.
type wireObject struct {
	ID                  ObjectID        `json:"id"`
	VersionField        Version         `json:"version"`
	DigestField         Digest          `json:"digest"`
	PreviousTransaction Digest          `json:"previousTransaction"`
	StorageRebate       uint64          `json:"storageRebate"`
	Owner               Owner           `json:"owner"`
	DataType            string          `json:"dataType,omitempty"`
	Data                json.RawMessage `json:"data,omitempty"`
}

const (
	dataTypeMoveValue   = "moveValue"
	dataTypeMovePackage = "movePackage"
)

// MarshalJSON renders the object with its Data variant tagged by kind.
func (o Object) MarshalJSON() ([]byte, error) {
	w := wireObject{
		ID:                  o.ID,
		VersionField:        o.VersionField,
		DigestField:         o.DigestField,
		PreviousTransaction: o.PreviousTransaction,
		StorageRebate:       o.StorageRebate,
		Owner:               o.Owner,
	}
	switch d := o.Data.(type) {
	case MoveValue:
		w.DataType = dataTypeMoveValue
		bs, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		w.Data = bs
	case MovePackage:
		w.DataType = dataTypeMovePackage
		bs, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		w.Data = bs
	case nil:
	default:
		return nil, fmt.Errorf("object: unknown Data variant %T", d)
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses an object, reconstructing the concrete Data
// variant its dataType discriminator names.
func (o *Object) UnmarshalJSON(data []byte) error {
	var w wireObject
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	o.ID = w.ID
	o.VersionField = w.VersionField
	o.DigestField = w.DigestField
	o.PreviousTransaction = w.PreviousTransaction
	o.StorageRebate = w.StorageRebate
	o.Owner = w.Owner

	switch w.DataType {
	case dataTypeMoveValue:
		var mv MoveValue
		if err := json.Unmarshal(w.Data, &mv); err != nil {
			return fmt.Errorf("object: decoding moveValue: %w", err)
		}
		o.Data = mv
	case dataTypeMovePackage:
		var mp MovePackage
		if err := json.Unmarshal(w.Data, &mp); err != nil {
			return fmt.Errorf("object: decoding movePackage: %w", err)
		}
		o.Data = mp
	case "":
		o.Data = nil
	default:
		return fmt.Errorf("object: unknown dataType %q", w.DataType)
	}
	return nil
}

// Version returns the object's current version.
func (o *Object) Version() Version { return o.VersionField }

// Digest returns the object's current content digest.
func (o *Object) Digest() Digest { return o.DigestField }

// IsImmutable reports whether the object's owner forbids any future
// mutation.
func (o *Object) IsImmutable() bool {
	return o.Owner.Kind == ImmutableOwnerKind
}

// IsPackage reports whether the object holds a published Move package
// rather than a Move value.
func (o *Object) IsPackage() bool {
	_, ok := o.Data.(MovePackage)
	return ok
}

// ComputeObjectReference returns the fully qualified (id, version,
// digest) reference for the object's current state.
func (o *Object) ComputeObjectReference() ObjectRef {
	return ObjectRef{ID: o.ID, Version: o.VersionField, Digest: o.DigestField}
}

// ObjectSizeForGasMetering approximates the on-disk size of the
// object for storage-gas purposes. Packages are sized by the sum of
// their module bytes; Move values by their serialized contents, plus
// a fixed per-object overhead shared by both shapes.
func (o *Object) ObjectSizeForGasMetering() int {
	const perObjectOverhead = 96 // id + version + digest + owner + rebate, approximated
	switch d := o.Data.(type) {
	case MovePackage:
		size := perObjectOverhead
		for name, bs := range d.Modules {
			size += len(name) + len(bs)
		}
		return size
	case MoveValue:
		return perObjectOverhead + len(d.Contents)
	default:
		return perObjectOverhead
	}
}

// TotalBalance walks the object's Move value contents with resolver
// and returns the sum of every embedded token balance it finds.
// Packages and non-coin-bearing values report zero.
func (o *Object) TotalBalance(resolver layout.Resolver) (uint64, error) {
	mv, ok := o.Data.(MoveValue)
	if !ok {
		return 0, nil
	}
	l, err := resolver.Resolve(mv.StructTag)
	if err != nil {
		return 0, fmt.Errorf("object: resolving layout for %s: %w", mv.StructTag, err)
	}
	return layout.SumBalances(mv.Contents, l)
}
