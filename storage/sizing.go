// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

// estimateEffectsSizeUpperBound bounds the serialized size of a
// transaction's effects record from simple counts, without building
// it: one slot per write, one per mutated input's before/after pair,
// one per delete or wrap, and in the worst case one dependency per
// input object.
func estimateEffectsSizeUpperBound(numWrites, numMutableInputs, numDeletes, numInputs int) int {
	const perWrite = 80
	const perMutableInput = 48
	const perDelete = 40
	const perDependency = 32
	return numWrites*perWrite + numMutableInputs*perMutableInput + numDeletes*perDelete + numInputs*perDependency
}
