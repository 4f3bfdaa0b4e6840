// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/move-exec/txstore/object"
)

func TestParseConfigAppliesDefaults(t *testing.T) {
	c, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ProtocolVersion != 1 {
		t.Fatalf("expected default protocol version 1, got %d", c.ProtocolVersion)
	}
	if c.LogFormat != "text" {
		t.Fatalf("expected default log format text, got %q", c.LogFormat)
	}
	if len(c.SystemPackages) != 1 {
		t.Fatalf("expected one default system package, got %v", c.SystemPackages)
	}
}

func TestParseConfigOverridesFromJSON(t *testing.T) {
	raw := []byte(`{"protocol_version": 42, "simple_conservation_checks": true, "log_format": "json"}`)
	c, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ProtocolVersion != 42 {
		t.Fatalf("expected overridden protocol version 42, got %d", c.ProtocolVersion)
	}
	if !c.SimpleConservationChecks {
		t.Fatalf("expected simple_conservation_checks true")
	}
	if c.LogFormat != "json" {
		t.Fatalf("expected log format json, got %q", c.LogFormat)
	}
}

func TestParseConfigOverridesFromYAML(t *testing.T) {
	raw := []byte("protocol_version: 7\nlog_format: json\nsimple_conservation_checks: true\n")
	c, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ProtocolVersion != 7 {
		t.Fatalf("expected overridden protocol version 7, got %d", c.ProtocolVersion)
	}
	if c.LogFormat != "json" {
		t.Fatalf("expected log format json, got %q", c.LogFormat)
	}
	if !c.SimpleConservationChecks {
		t.Fatalf("expected simple_conservation_checks true")
	}
}

func TestParseConfigRejectsBadLogFormat(t *testing.T) {
	_, err := ParseConfig([]byte(`{"log_format": "xml"}`))
	if err == nil {
		t.Fatalf("expected an error for an unsupported log_format")
	}
}

func TestParseConfigRejectsBadSystemPackage(t *testing.T) {
	_, err := ParseConfig([]byte(`{"system_packages": ["not-hex"]}`))
	if err == nil {
		t.Fatalf("expected an error for a malformed system package id")
	}
}

func TestToProtocolConfigParsesSystemPackages(t *testing.T) {
	c := Default()
	pc, err := c.ToProtocolConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := object.ObjectIDFromHex(c.SystemPackages[0])
	if !pc.IsSystemPackage(want) {
		t.Fatalf("expected %s to be a system package", want)
	}
}
