// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cmd implements the replay command line harness: it drives a
// TemporaryStore through a recorded transaction the way an execution
// engine would, then prints the resulting effects.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/move-exec/txstore/cmd/internal/env"
)

// RootCommand is the entry point every subcommand attaches to.
var RootCommand = &cobra.Command{
	Use:   "txstore",
	Short: "Drive a transactional staging store from recorded input",
	Long: `txstore is a harness around the transactional staging store.

It does not implement a Move VM, consensus, or persistence; it replays a
recorded set of input objects and a write-set against storage.TemporaryStore
exactly as an execution engine would, then prints the resulting
transaction effects as JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return env.CmdFlags.CheckEnvironmentVariables(cmd)
	},
}
