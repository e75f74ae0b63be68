// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/tcpcore/config"
	"github.com/luxfi/tcpcore/integrity"
)

func rotateKeysCmd() *cobra.Command {
	var force bool
	var dryRun bool
	var preset string

	cmd := &cobra.Command{
		Use:   "rotate-keys",
		Short: "Stage new classical and post-quantum keys for the next epoch",
		Long: `rotate-keys rotates signing keys once MaxEpochDuration has
elapsed since the current epoch began, generating a fresh BLS keypair
and a fresh post-quantum keypair for the new epoch. The retiring epoch
is kept in history so signatures issued just before the rotation still
verify during the overlap window. Use --force to rotate once the
minimum duration has passed, without waiting for MaxEpochDuration, or
--dry-run to preview whether a rotation would happen without
generating any key material. The command works on a fresh in-process
EpochManager built from the preset, starting at epoch 0, and persists
no keys when it exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.GetParametersByName(preset)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitConfigError)
			}
			if err := config.NewValidator().Validate(params); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitConfigError)
			}

			em, err := integrity.NewEpochManager(params.MinEpochDuration, params.MaxEpochDuration, params.EpochHistoryLimit)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRuntimeError)
			}

			if dryRun {
				stats := em.StatsSnapshot()
				if em.Eligible(force) {
					fmt.Printf("dry-run: epoch %d would rotate to %d\n", stats.CurrentEpoch, stats.CurrentEpoch+1)
				} else {
					fmt.Printf("dry-run: epoch %d is not yet eligible (rotation not yet due)\n", stats.CurrentEpoch)
				}
				return nil
			}

			rotated, err := em.RotateIfDue(force)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRuntimeError)
			}

			stats := em.StatsSnapshot()
			if !rotated {
				fmt.Printf("no rotation: epoch %d is not yet eligible (rotation not yet due)\n", stats.CurrentEpoch)
				return nil
			}
			fmt.Printf("rotated to epoch %d (%d prior epochs retained)\n", stats.CurrentEpoch, stats.HistorySize)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "rotate immediately once the minimum epoch duration has elapsed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report whether a rotation would occur without generating new keys")
	cmd.Flags().StringVar(&preset, "preset", "local", "cluster preset: mainnet, testnet, or local")
	return cmd
}
