// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/luxfi/database/memdb"

	"github.com/luxfi/tcpcore/api"
	"github.com/luxfi/tcpcore/audit"
	"github.com/luxfi/tcpcore/config"
	"github.com/luxfi/tcpcore/coordinator"
	"github.com/luxfi/tcpcore/integrity"
	"github.com/luxfi/tcpcore/keystore"
	"github.com/luxfi/tcpcore/migration"
	"github.com/luxfi/tcpcore/node"
	"github.com/luxfi/tcpcore/policy"
	"github.com/luxfi/tcpcore/telemetry"
	"github.com/luxfi/tcpcore/validators"
)

func serveCmd() *cobra.Command {
	var preset string
	var addr string
	var auditDir string
	var queueDepth int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a single-process validator cluster behind the descriptor-source HTTP interface",
		Long: `serve stands up an in-process cluster of ValidatorCount nodes
(each with its own epoch-keyed signing material) behind the
submit/health/metrics HTTP surface, for local development and single-box
deployments. Production deployments that need the nodes split across
processes should compose api.Submitter, coordinator.Coordinator, and a
network Transport directly rather than using this command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.GetParametersByName(preset)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitConfigError)
			}
			validator := config.NewValidator()
			validateErr := validator.Validate(params)
			if preset == "mainnet" {
				validateErr = validator.ValidateForProduction(params)
			}
			if validateErr != nil {
				fmt.Fprintln(os.Stderr, validateErr)
				os.Exit(exitConfigError)
			}

			manager := validators.NewManager()
			nodes := make(map[validators.ID]*node.Node, params.ValidatorCount)
			store := keystore.NewStore()

			for i := 0; i < params.ValidatorCount; i++ {
				id := validators.ID(i + 1)

				em, err := integrity.NewEpochManager(params.MinEpochDuration, params.MaxEpochDuration, params.EpochHistoryLimit)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(exitRuntimeError)
				}

				pub := em.Current().BLSPublicKey
				if err := manager.AddValidator(0, validators.Info{ValidatorID: id, PublicKey: pub, Weight: 1}); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(exitRuntimeError)
				}

				nodes[id] = &node.Node{ID: id, Epoch: em, Policy: policy.Default(), Keystore: store}
			}

			set, err := manager.GetValidators(0)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRuntimeError)
			}

			reg := prometheus.NewRegistry()
			guard, err := telemetry.NewGuard(reg, params.TimingCVThreshold)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRuntimeError)
			}

			var log *audit.Log
			var closeDB func()
			if auditDir != "" {
				l, db, err := audit.OpenFile(auditDir)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(exitConfigError)
				}
				log, closeDB = l, func() { _ = db.Close() }
			} else {
				log, closeDB = audit.New(memdb.New()), func() {}
			}
			defer closeDB()

			writer := audit.NewAsyncWriter(log, queueDepth, nil)
			defer writer.Close()

			submitter := &api.Submitter{
				Coordinator: &coordinator.Coordinator{
					Transport:  coordinator.InProcess{Nodes: nodes},
					Validators: set,
					Params:     params,
					Epoch:      0,
				},
				Migration: migration.Default(),
				Guard:     guard,
				Writer:    writer,
			}

			mux, err := api.NewMux(submitter, guard, reg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRuntimeError)
			}

			server := &http.Server{Addr: addr, Handler: mux}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			fmt.Printf("tcpctl serve: %d validators, preset %s, listening on %s\n", params.ValidatorCount, preset, addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRuntimeError)
			}
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "local", "cluster preset: mainnet, testnet, or local")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&auditDir, "audit-dir", "", "directory for a durable pebble-backed audit log (defaults to in-memory)")
	cmd.Flags().IntVar(&queueDepth, "queue-depth", 256, "depth of the async audit writer's bounded queue")
	return cmd
}
