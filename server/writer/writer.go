// Copyright 2017 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package writer contains generic utilities for writing JSON HTTP
// responses. It knows nothing about any particular error vocabulary;
// callers that need to map a domain error to a status code and body
// build that mapping themselves and pass the resulting bytes here.
package writer

import (
	"encoding/json"
	"net/http"
)

// JSON writes a response with the specified status code and object. The
// object will be JSON serialized.
func JSON(w http.ResponseWriter, code int, v interface{}, pretty bool) {
	var bs []byte
	var err error

	if pretty {
		bs, err = json.MarshalIndent(v, "", "  ")
	} else {
		bs, err = json.Marshal(v)
	}

	if err != nil {
		Bytes(w, http.StatusInternalServerError, []byte(`{"code":"internal_error","message":"failed to encode response"}`))
		return
	}
	headers := w.Header()
	headers.Add("Content-Type", "application/json")
	Bytes(w, code, bs)
}

// Bytes writes a response with the specified status code and bytes.
func Bytes(w http.ResponseWriter, code int, bs []byte) {
	headers := w.Header()
	headers.Add("Content-Type", "application/json")
	w.WriteHeader(code)
	if code == 204 {
		return
	}
	w.Write(bs)
}
