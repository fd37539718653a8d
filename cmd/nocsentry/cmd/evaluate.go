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

	"github.com/spf13/cobra"

	"github.com/nocsentry/nocsentry/cmd/dependency"
	"github.com/nocsentry/nocsentry/trainer"
)

type evaluateOptions struct {
	weightsFile string
	reportDir   string
	benchmarks  []string
}

func newEvaluateCommand() *cobra.Command {
	o := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "evaluate stored models against benchmark features",
		Long: `Evaluate tests every model of a weights file against the feature files of benchmarks
in the work directory and writes one report per benchmark ending with the averaged accuracy.`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.weightsFile != "" {
				cfg.Evaluate.WeightsFile = o.weightsFile
			}

			if o.reportDir != "" {
				cfg.Evaluate.ReportDir = o.reportDir
			}

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

			summary, err := svr.Evaluate(ctx, o.benchmarks)
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.weightsFile, "weights", "", "the weights file of the models, default is weights in the work directory")
	flags.StringVar(&o.reportDir, "report-dir", "", "the directory of reports, default is feature_tester in the work directory")
	flags.StringSliceVar(&o.benchmarks, "benchmark", nil, "the benchmarks to evaluate, default is every benchmark in the work directory")

	return cmd
}
