// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package object defines the versioned, owned objects that flow through
// the transactional staging store: identifiers, owners, and the object
// envelope itself.
package object

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// idLen is the width of an ObjectID and a Digest, in bytes.
const idLen = 32

// ObjectID uniquely identifies an object across all of its versions.
type ObjectID [idLen]byte

// ZeroObjectID is the distinguished all-zero identifier used as a
// placeholder reference for system or gas-less transactions.
var ZeroObjectID = ObjectID{}

// ObjectIDFromBytes copies b into a new ObjectID. b must be exactly 32
// bytes long.
func ObjectIDFromBytes(b []byte) (ObjectID, error) {
	var id ObjectID
	if len(b) != idLen {
		return id, fmt.Errorf("object: invalid id length %d, want %d", len(b), idLen)
	}
	copy(id[:], b)
	return id, nil
}

// Bytes returns a copy of the identifier's raw bytes.
func (id ObjectID) Bytes() []byte {
	out := make([]byte, idLen)
	copy(out, id[:])
	return out
}

func (id ObjectID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// MarshalJSON renders the id as a 0x-prefixed hex string.
func (id ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON parses a 0x-prefixed hex string into the id.
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := decodeHexPrefixed(s, idLen)
	if err != nil {
		return fmt.Errorf("object: %w", err)
	}
	copy(id[:], b)
	return nil
}

// ObjectIDFromHex parses a 0x-prefixed (or bare) hex string into an
// ObjectID, for use outside JSON contexts such as config files and CLI
// flags.
func ObjectIDFromHex(s string) (ObjectID, error) {
	var id ObjectID
	b, err := decodeHexPrefixed(s, idLen)
	if err != nil {
		return id, fmt.Errorf("object: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// Digest is a content hash: a transaction digest, an object digest, or
// an events digest, depending on context.
type Digest [idLen]byte

// MinDigest is the distinguished zero digest used for gas-less system
// transactions that have no real gas coin to reference.
var MinDigest = Digest{}

func (d Digest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

// Bytes returns a copy of the digest's raw bytes.
func (d Digest) Bytes() []byte {
	out := make([]byte, idLen)
	copy(out, d[:])
	return out
}

// MarshalJSON renders the digest as a 0x-prefixed hex string.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses a 0x-prefixed hex string into the digest.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := decodeHexPrefixed(s, idLen)
	if err != nil {
		return fmt.Errorf("object: %w", err)
	}
	copy(d[:], b)
	return nil
}

func decodeHexPrefixed(s string, want int) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != want {
		return nil, fmt.Errorf("invalid length %d, want %d", len(b), want)
	}
	return b, nil
}

// Version is a monotonically increasing per-object sequence number,
// referred to in the source material as a Lamport timestamp once it is
// assigned by a transaction.
type Version uint64

const (
	// MinVersion is the version assigned to newly created mutable
	// objects before they are stamped with a transaction's Lamport
	// timestamp.
	MinVersion Version = 0
	// MaxVersion is a sentinel used by mock/dry-run transactions that
	// must be able to read dynamic fields at any version.
	MaxVersion Version = ^Version(0)
)

// VersionDigest pairs a version with the digest of the object at that
// version — the pre-image reference recorded for every object a
// transaction touches destructively.
type VersionDigest struct {
	Version Version `json:"version"`
	Digest  Digest  `json:"digest"`
}

// ObjectRef is the fully qualified reference to one version of one
// object.
type ObjectRef struct {
	ID      ObjectID `json:"objectId"`
	Version Version  `json:"version"`
	Digest  Digest   `json:"digest"`
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("(%s, %d, %s)", r.ID, r.Version, r.Digest)
}
