// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package layout defines the resolver contract the expensive
// conservation check uses to walk a Move value's embedded token
// balances, plus a minimal layout representation and decoder
// sufficient to do that walk without depending on an actual Move VM
// (which is explicitly out of this module's scope).
package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/move-exec/txstore/object"
)

// Kind enumerates the shapes a Layout node can take.
type Kind int

const (
	// KindU64 is a plain 8-byte little-endian integer field.
	KindU64 Kind = iota
	// KindBool is a single byte field.
	KindBool
	// KindAddress is a 32-byte field.
	KindAddress
	// KindVector is a length-prefixed (uvarint) homogeneous sequence.
	KindVector
	// KindStruct is an ordered sequence of named fields.
	KindStruct
	// KindBalance marks a u64 field that denotes a token balance;
	// every KindBalance leaf reachable from an object's layout
	// contributes to its total embedded balance.
	KindBalance
)

// Layout describes the on-the-wire shape of a Move value well enough
// to walk it and sum any embedded token balances.
type Layout struct {
	Kind   Kind
	Fields []Field // populated when Kind == KindStruct
	Elem   *Layout // populated when Kind == KindVector
}

// Field is one named member of a KindStruct layout.
type Field struct {
	Name   string
	Layout Layout
}

// Resolver resolves the on-chain layout for a struct tag. The store
// never interprets Move bytecode itself; it only asks the resolver for
// the shape of a given type and then performs a generic structural
// walk.
type Resolver interface {
	Resolve(tag object.StructTag) (Layout, error)
}

// SumBalances walks data according to layout and returns the sum of
// every KindBalance leaf it contains, the generic traversal needed to
// compute an object's total embedded token balance.
func SumBalances(data []byte, l Layout) (uint64, error) {
	sum, _, err := sumBalances(data, l)
	return sum, err
}

func sumBalances(data []byte, l Layout) (sum uint64, rest []byte, err error) {
	switch l.Kind {
	case KindBool:
		if len(data) < 1 {
			return 0, nil, fmt.Errorf("layout: short buffer for bool")
		}
		return 0, data[1:], nil
	case KindAddress:
		if len(data) < 32 {
			return 0, nil, fmt.Errorf("layout: short buffer for address")
		}
		return 0, data[32:], nil
	case KindU64:
		if len(data) < 8 {
			return 0, nil, fmt.Errorf("layout: short buffer for u64")
		}
		return 0, data[8:], nil
	case KindBalance:
		if len(data) < 8 {
			return 0, nil, fmt.Errorf("layout: short buffer for balance")
		}
		return binary.LittleEndian.Uint64(data[:8]), data[8:], nil
	case KindVector:
		if l.Elem == nil {
			return 0, nil, fmt.Errorf("layout: vector layout missing element type")
		}
		n, consumed, err := readUvarint(data)
		if err != nil {
			return 0, nil, err
		}
		rest = data[consumed:]
		var total uint64
		for i := uint64(0); i < n; i++ {
			var elemSum uint64
			elemSum, rest, err = sumBalances(rest, *l.Elem)
			if err != nil {
				return 0, nil, err
			}
			total += elemSum
		}
		return total, rest, nil
	case KindStruct:
		rest = data
		var total uint64
		for _, f := range l.Fields {
			var fieldSum uint64
			fieldSum, rest, err = sumBalances(rest, f.Layout)
			if err != nil {
				return 0, nil, fmt.Errorf("layout: field %q: %w", f.Name, err)
			}
			total += fieldSum
		}
		return total, rest, nil
	default:
		return 0, nil, fmt.Errorf("layout: unknown kind %d", l.Kind)
	}
}

func readUvarint(data []byte) (value uint64, consumed int, err error) {
	var shift uint
	for i, b := range data {
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, fmt.Errorf("layout: uvarint overflow")
		}
	}
	return 0, 0, fmt.Errorf("layout: truncated uvarint")
}
