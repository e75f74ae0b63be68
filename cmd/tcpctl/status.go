// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/tcpcore/config"
	"github.com/luxfi/tcpcore/integrity"
	"github.com/luxfi/tcpcore/migration"
	"github.com/luxfi/tcpcore/telemetry"
	tcpversion "github.com/luxfi/tcpcore/version"
)

// statusReport is the --json rendering of status's output; field names
// are stable since operator tooling may parse them.
type statusReport struct {
	Version        string            `json:"version"`
	Preset         string            `json:"preset"`
	Epoch          uint64            `json:"epoch"`
	EpochHistory   int               `json:"epochHistory"`
	NextRotationIn string            `json:"nextRotationIn"`
	QuorumSize     int               `json:"quorumSize"`
	ValidatorCount int               `json:"validatorCount"`
	QuorumFraction float64           `json:"quorumFraction"`
	VoteDeadline   string            `json:"voteDeadline"`
	Variants       map[string]string `json:"variants"`
	TimingOK       bool              `json:"timingOk"`
}

func statusCmd() *cobra.Command {
	var preset string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print epoch, supported variants, and timing_ok",
		Long: `status reports the validator build's current epoch, the
descriptor variants it accepts, and the aggregate timing_ok invariant
the Timing Guard tracks across the codec, integrity, policy, and
quorum stages.`,
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
			stats := em.StatsSnapshot()

			guard, err := telemetry.NewGuard(nil, params.TimingCVThreshold)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRuntimeError)
			}

			table := migration.Default()
			variants := []migration.Variant{migration.Classical, migration.PostQuantum}
			variantStatus := make(map[string]string, len(variants))
			for _, v := range variants {
				dispatched, ok := table.Dispatch(v.Magic[:])
				status := "unknown"
				if ok {
					status = fmt.Sprintf("release %s", dispatched.Release)
				}
				variantStatus[fmt.Sprintf("%s-v%d", string(v.Magic[:3]), v.Version)] = status
			}

			if asJSON {
				report := statusReport{
					Version:        tcpversion.Current().String(),
					Preset:         preset,
					Epoch:          stats.CurrentEpoch,
					EpochHistory:   stats.HistorySize,
					NextRotationIn: stats.NextRotationHint.Round(time.Second).String(),
					QuorumSize:     params.QuorumSize(),
					ValidatorCount: params.ValidatorCount,
					QuorumFraction: params.QuorumFraction,
					VoteDeadline:   params.VoteDeadline.String(),
					Variants:       variantStatus,
					TimingOK:       guard.Healthy(),
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Printf("tcpctl %s\n", tcpversion.Current())
			fmt.Printf("preset:          %s\n", preset)
			fmt.Printf("epoch:           %d\n", stats.CurrentEpoch)
			fmt.Printf("epoch history:   %d retained\n", stats.HistorySize)
			fmt.Printf("next rotation:   %s\n", stats.NextRotationHint.Round(time.Second))
			fmt.Printf("quorum size:     %d of %d (%.0f%%)\n", params.QuorumSize(), params.ValidatorCount, params.QuorumFraction*100)
			fmt.Printf("vote deadline:   %s\n", params.VoteDeadline)
			fmt.Println("supported variants:")
			for name, status := range variantStatus {
				fmt.Printf("  %s: %s\n", name, status)
			}
			fmt.Printf("timing_ok:       %t\n", guard.Healthy())
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "local", "cluster preset: mainnet, testnet, or local")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	return cmd
}
