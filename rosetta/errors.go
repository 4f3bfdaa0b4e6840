// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package rosetta

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/move-exec/txstore/server/writer"
	"github.com/move-exec/txstore/storage"
)

// Error codes returned by the account API.
const (
	CodeInternal        = "internal_error"
	CodeInvalidRequest  = "invalid_request"
	CodeAccountNotFound = "account_not_found"
)

// Messages included in error responses.
const (
	MsgInvariantViolation = "the staging store reported an invariant violation while serving this request"
	MsgExecutionError     = "the backing execution layer reported an error"
	MsgDecodeRequest      = "failed to decode request body"
)

// ErrorV1 models an error response sent to the client.
type ErrorV1 struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Errors  []error `json:"errors,omitempty"`
}

// NewErrorV1 returns a new ErrorV1 object.
func NewErrorV1(code, f string, a ...interface{}) *ErrorV1 {
	return &ErrorV1{
		Code:    code,
		Message: fmt.Sprintf(f, a...),
	}
}

// WithError updates e to include a detailed error.
func (e *ErrorV1) WithError(err error) *ErrorV1 {
	e.Errors = append(e.Errors, err)
	return e
}

// Bytes marshals e with indentation for readability.
func (e *ErrorV1) Bytes() []byte {
	if bs, err := json.MarshalIndent(e, "", "  "); err == nil {
		return bs
	}
	return nil
}

// WriteErrorAuto writes a response with status and code set
// automatically based on the kind of storage.Error wrapped in err,
// unwinding cause chains the way the rest of this codebase does with
// github.com/pkg/errors.
func WriteErrorAuto(w http.ResponseWriter, err error) {
	var prev error
	for curr := err; curr != prev; {
		if storage.IsNotFound(curr) {
			writeError(w, http.StatusNotFound, NewErrorV1(CodeAccountNotFound, curr.Error()))
			return
		}
		if storage.IsInvariantViolation(curr) {
			writeError(w, http.StatusInternalServerError, NewErrorV1(CodeInternal, MsgInvariantViolation).WithError(curr))
			return
		}
		if storage.IsExecutionError(curr) {
			writeError(w, http.StatusBadRequest, NewErrorV1(CodeInvalidRequest, MsgExecutionError).WithError(curr))
			return
		}
		prev = curr
		curr = errors.Cause(prev)
	}
	writeError(w, http.StatusInternalServerError, NewErrorV1(CodeInternal, err.Error()))
}

func writeError(w http.ResponseWriter, status int, e *ErrorV1) {
	writer.Bytes(w, status, e.Bytes())
}
