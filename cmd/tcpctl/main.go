// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command tcpctl is the operator CLI for a TCP validator deployment:
// status reporting, offline audit-chain verification, staged key
// rotation, and a single-process serve mode, mirroring the teacher's
// cmd/consensus root+subcommand cobra layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitOK             = 0
	exitIntegrityError = 1
	exitConfigError    = 2
	exitRuntimeError   = 3
)

var rootCmd = &cobra.Command{
	Use:   "tcpctl",
	Short: "Operator CLI for a Tool Capability Protocol validator deployment",
	Long: `tcpctl reports validator status, recomputes and verifies the
append-only audit chain, stages post-quantum key rotations, and can run
a single-process validator cluster for a TCP node or cluster.`,
}

func main() {
	rootCmd.AddCommand(
		statusCmd(),
		verifyLogCmd(),
		rotateKeysCmd(),
		serveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tcpctl: %v\n", err)
		os.Exit(exitRuntimeError)
	}
}
