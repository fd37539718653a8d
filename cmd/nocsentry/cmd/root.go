/*
 *     Copyright 2024 The Nocsentry Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nocsentry/nocsentry/cmd/dependency"
	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/trainer"
	"github.com/nocsentry/nocsentry/trainer/config"
	"github.com/nocsentry/nocsentry/trainer/pipeline"
	"github.com/nocsentry/nocsentry/version"
)

var (
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nocsentry",
	Short: "the congestion and attack detector of network-on-chip routers",
	Long: `Nocsentry drives a network-on-chip simulator over attack scenarios of every benchmark,
extracts per port features of the routers on each attack path, merges them per router and trains
one linear classifier per router direction or port detecting saturated buffers.`,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prepare(); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svr, err := trainer.New(cfg)
		if err != nil {
			return err
		}
		dependency.SetupQuitSignalHandler(func() {
			cancel()
			svr.Stop()
		})
		defer svr.Stop()

		summary, err := svr.Serve(ctx)
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	// Initialize default config.
	cfg = config.New()

	// Initialize command and config.
	dependency.InitCommandAndConfig(rootCmd, true, cfg)
	rootCmd.AddCommand(newEvaluateCommand())
}

// prepare converts and validates the config and initializes the loggers.
func prepare() error {
	// Convert config.
	if err := cfg.Convert(); err != nil {
		return err
	}

	// Validate config.
	if err := cfg.Validate(); err != nil {
		return err
	}

	rotateConfig := logger.LogRotateConfig{
		MaxSize:    cfg.Server.LogMaxSize,
		MaxAge:     cfg.Server.LogMaxAge,
		MaxBackups: cfg.Server.LogMaxBackups,
	}

	// Initialize logger.
	if err := logger.InitPipeline(cfg.Verbose, cfg.Console, cfg.Server.LogDir, rotateConfig); err != nil {
		return errors.Wrap(err, "init pipeline logger")
	}

	logger.Infof("version: %s", version.Info())
	return nil
}

// printSummary prints the rollups of a run and its failed jobs.
func printSummary(w io.Writer, summary *pipeline.Summary) {
	for _, stage := range summary.Stages {
		if stage.Failed > 0 {
			fmt.Fprintf(w, "%s:\t%d of %d jobs failed\n", stage.Stage, stage.Failed, stage.Jobs)
		}
	}

	for _, rollup := range summary.Rollups {
		fmt.Fprintf(w, "%s\tNet:\t%s\n", rollup.Job, rollup.Values())
	}
}
