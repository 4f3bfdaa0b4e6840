// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config parses the protocol configuration a staging store is
// started with: the Move binary format version, the conservation-check
// mode, the system package allow-list, and the handful of server knobs
// the replay CLI and the account API bind to.
package config

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/move-exec/txstore/object"
	"github.com/move-exec/txstore/storage"
)

// envPrefix is the prefix environment variables are read under, e.g.
// TXSTORE_PROTOCOL_VERSION overrides protocol_version.
const envPrefix = "txstore"

// Config is the on-disk/ environment-sourced configuration for a running
// store. Its zero value is not valid; use ParseConfig or Default.
type Config struct {
	ProtocolVersion          uint64   `mapstructure:"protocol_version"`
	MoveBinaryFormatVersion  uint32   `mapstructure:"move_binary_format_version"`
	NoExtraneousModuleBytes  bool     `mapstructure:"no_extraneous_module_bytes"`
	SimpleConservationChecks bool     `mapstructure:"simple_conservation_checks"`
	SystemPackages           []string `mapstructure:"system_packages"`

	DebugAssertions bool   `mapstructure:"debug_assertions"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	ListenAddr      string `mapstructure:"listen_addr"`
}

// Default returns the configuration a fresh store starts with absent any
// file or environment overrides.
func Default() Config {
	return Config{
		ProtocolVersion:          1,
		MoveBinaryFormatVersion:  6,
		NoExtraneousModuleBytes:  true,
		SimpleConservationChecks: false,
		SystemPackages:           []string{"0x0000000000000000000000000000000000000000000000000000000000000005"},
		LogLevel:                 "info",
		LogFormat:                "text",
		ListenAddr:               ":8080",
	}
}

// ParseConfig reads a JSON or YAML configuration document, layers environment
// variable overrides (prefixed TXSTORE_) on top, and returns the result
// merged over Default.
func ParseConfig(raw []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	d := Default()
	v.SetDefault("protocol_version", d.ProtocolVersion)
	v.SetDefault("move_binary_format_version", d.MoveBinaryFormatVersion)
	v.SetDefault("no_extraneous_module_bytes", d.NoExtraneousModuleBytes)
	v.SetDefault("simple_conservation_checks", d.SimpleConservationChecks)
	v.SetDefault("system_packages", d.SystemPackages)
	v.SetDefault("debug_assertions", d.DebugAssertions)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("listen_addr", d.ListenAddr)

	if len(raw) > 0 {
		if looksLikeJSON(raw) {
			if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
		} else {
			var doc map[string]interface{}
			if err := yaml.Unmarshal(raw, &doc); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
			if err := v.MergeConfigMap(doc); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var result Config
	if err := v.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &result, result.validate()
}

// looksLikeJSON reports whether raw's first non-whitespace byte opens a
// JSON object, the cheapest reliable way to tell a JSON document from a
// YAML one without a dedicated content-type.
func looksLikeJSON(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func (c Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log_format %q", c.LogFormat)
	}
	for _, s := range c.SystemPackages {
		if _, err := object.ObjectIDFromHex(s); err != nil {
			return fmt.Errorf("config: invalid system_packages entry %q: %w", s, err)
		}
	}
	return nil
}

// ToProtocolConfig builds the storage.ProtocolConfig this configuration
// describes.
func (c Config) ToProtocolConfig() (storage.ProtocolConfig, error) {
	pkgs := make(map[object.ObjectID]struct{}, len(c.SystemPackages))
	for _, s := range c.SystemPackages {
		id, err := object.ObjectIDFromHex(s)
		if err != nil {
			return storage.ProtocolConfig{}, fmt.Errorf("config: invalid system_packages entry %q: %w", s, err)
		}
		pkgs[id] = struct{}{}
	}
	return storage.ProtocolConfig{
		Version:                  c.ProtocolVersion,
		MoveBinaryFormatVersion:  c.MoveBinaryFormatVersion,
		NoExtraneousModuleBytes:  c.NoExtraneousModuleBytes,
		SimpleConservationChecks: c.SimpleConservationChecks,
		SystemPackages:           pkgs,
	}, nil
}
