// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package object

import (
	"encoding/json"
	"fmt"
)

// Address identifies a transaction sender or sponsor.
type Address [idLen]byte

func (a Address) String() string { return "0x" + hexString(a[:]) }

// MarshalJSON renders the address as a 0x-prefixed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses a 0x-prefixed hex string into the address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := decodeHexPrefixed(s, idLen)
	if err != nil {
		return fmt.Errorf("object: %w", err)
	}
	copy(a[:], b)
	return nil
}

// AddressFromHex parses a 0x-prefixed (or bare) hex string into an
// Address, for use outside JSON contexts such as CLI flags.
func AddressFromHex(s string) (Address, error) {
	var a Address
	b, err := decodeHexPrefixed(s, idLen)
	if err != nil {
		return a, fmt.Errorf("object: %w", err)
	}
	copy(a[:], b)
	return a, nil
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}

// OwnerKind enumerates the four, and only four, legal shapes of
// ownership an object may carry.
type OwnerKind int

const (
	// AddressOwnerKind: the object is owned by a single account
	// address.
	AddressOwnerKind OwnerKind = iota
	// ObjectOwnerKind: the object is owned by another object (a
	// "child" reachable only through its parent). Never legal as an
	// input object's owner.
	ObjectOwnerKind
	// SharedOwnerKind: the object is shared, reachable by any
	// transaction subject to consensus ordering.
	SharedOwnerKind
	// ImmutableOwnerKind: the object can never be mutated by ordinary
	// transactions (system package upgrades at epoch boundaries are
	// the sole exception).
	ImmutableOwnerKind
)

func (k OwnerKind) String() string {
	switch k {
	case AddressOwnerKind:
		return "AddressOwner"
	case ObjectOwnerKind:
		return "ObjectOwner"
	case SharedOwnerKind:
		return "Shared"
	case ImmutableOwnerKind:
		return "Immutable"
	default:
		return fmt.Sprintf("OwnerKind(%d)", int(k))
	}
}

// Owner is a closed, tagged variant over the four ownership shapes an
// object can have. Exactly one of the payload fields is meaningful,
// selected by Kind.
type Owner struct {
	Kind                 OwnerKind `json:"kind"`
	Address              Address   `json:"address,omitempty"`
	Parent               ObjectID  `json:"parent,omitempty"`
	InitialSharedVersion Version   `json:"initialSharedVersion,omitempty"`
}

// AddressOwner constructs an Owner belonging to a single account.
func AddressOwner(a Address) Owner {
	return Owner{Kind: AddressOwnerKind, Address: a}
}

// ObjectOwner constructs an Owner indicating the object is a child of
// parent.
func ObjectOwner(parent ObjectID) Owner {
	return Owner{Kind: ObjectOwnerKind, Parent: parent}
}

// SharedOwner constructs a shared Owner rooted at initialSharedVersion.
func SharedOwner(initialSharedVersion Version) Owner {
	return Owner{Kind: SharedOwnerKind, InitialSharedVersion: initialSharedVersion}
}

// ImmutableOwner constructs the Immutable owner.
func ImmutableOwner() Owner {
	return Owner{Kind: ImmutableOwnerKind}
}

func (o Owner) String() string {
	switch o.Kind {
	case AddressOwnerKind:
		return fmt.Sprintf("AddressOwner(%s)", o.Address)
	case ObjectOwnerKind:
		return fmt.Sprintf("ObjectOwner(%s)", o.Parent)
	case SharedOwnerKind:
		return fmt.Sprintf("Shared{initial_shared_version: %d}", o.InitialSharedVersion)
	case ImmutableOwnerKind:
		return "Immutable"
	default:
		return "Owner(invalid)"
	}
}

// MarshalJSON renders the owner in the tagged-enum shape the rest of
// the ecosystem expects: {"AddressOwner": "0x.."}, {"ObjectOwner":
// "0x.."}, {"Shared": {"initial_shared_version": N}}, or "Immutable".
func (o Owner) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case AddressOwnerKind:
		return json.Marshal(struct {
			AddressOwner Address `json:"AddressOwner"`
		}{o.Address})
	case ObjectOwnerKind:
		return json.Marshal(struct {
			ObjectOwner ObjectID `json:"ObjectOwner"`
		}{o.Parent})
	case SharedOwnerKind:
		return json.Marshal(struct {
			Shared struct {
				InitialSharedVersion Version `json:"initial_shared_version"`
			} `json:"Shared"`
		}{struct {
			InitialSharedVersion Version `json:"initial_shared_version"`
		}{o.InitialSharedVersion}})
	case ImmutableOwnerKind:
		return json.Marshal("Immutable")
	default:
		return nil, fmt.Errorf("object: invalid owner kind %d", o.Kind)
	}
}

// UnmarshalJSON parses the tagged-enum shape MarshalJSON produces:
// {"AddressOwner": "0x.."}, {"ObjectOwner": "0x.."}, {"Shared":
// {"initial_shared_version": N}}, or "Immutable".
func (o *Owner) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		if bare != "Immutable" {
			return fmt.Errorf("object: invalid owner %q", bare)
		}
		*o = ImmutableOwner()
		return nil
	}

	var tagged struct {
		AddressOwner *Address `json:"AddressOwner"`
		ObjectOwner  *ObjectID `json:"ObjectOwner"`
		Shared       *struct {
			InitialSharedVersion Version `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("object: decoding owner: %w", err)
	}
	switch {
	case tagged.AddressOwner != nil:
		*o = AddressOwner(*tagged.AddressOwner)
	case tagged.ObjectOwner != nil:
		*o = ObjectOwner(*tagged.ObjectOwner)
	case tagged.Shared != nil:
		*o = SharedOwner(tagged.Shared.InitialSharedVersion)
	default:
		return fmt.Errorf("object: owner has no recognized tag")
	}
	return nil
}
