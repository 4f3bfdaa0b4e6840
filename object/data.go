// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package object

// Data is the sealed variant over an object's payload: either a Move
// value or a published Move package. Implementations live in this
// package only.
type Data interface {
	isObjectData()
}

// MoveValue is a Move struct instance: its type and its serialized
// contents.
type MoveValue struct {
	StructTag StructTag `json:"type"`
	Contents  []byte    `json:"contents"`
}

func (MoveValue) isObjectData() {}

// MovePackage is a published Move package: its compiled modules,
// keyed by module name.
type MovePackage struct {
	Modules map[string][]byte `json:"modules"`
}

func (MovePackage) isObjectData() {}
