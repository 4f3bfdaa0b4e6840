// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package object

import "fmt"

// StructTag names a Move struct type: the package it was published
// from, the module that declares it, the struct's own name, and any
// generic type parameters (themselves StructTags, recursively, for
// the simple case of struct type parameters used by this module).
type StructTag struct {
	Address    ObjectID    `json:"address"`
	Module     string      `json:"module"`
	Name       string      `json:"name"`
	TypeParams []StructTag `json:"typeParams,omitempty"`
}

func (t StructTag) String() string {
	s := fmt.Sprintf("%s::%s::%s", t.Address, t.Module, t.Name)
	if len(t.TypeParams) == 0 {
		return s
	}
	s += "<"
	for i, p := range t.TypeParams {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ">"
}

// Equal reports whether t and other name the same struct type,
// including type parameters.
func (t StructTag) Equal(other StructTag) bool {
	if t.Address != other.Address || t.Module != other.Module || t.Name != other.Name {
		return false
	}
	if len(t.TypeParams) != len(other.TypeParams) {
		return false
	}
	for i := range t.TypeParams {
		if !t.TypeParams[i].Equal(other.TypeParams[i]) {
			return false
		}
	}
	return true
}
