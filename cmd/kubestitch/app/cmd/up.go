/*
Copyright 2025 The Kubestitch Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/constants"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/engine"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/exec"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/report"
)

// NewCmdUp describes the CLI command to converge a cluster.
func NewCmdUp(out io.Writer) *cobra.Command {
	return NewCmd(out, "up").
		WithDescription("Converge every host of the topology").
		WithExample("converge the cluster described in topology.yaml", "up").
		WithExample("only run steps tagged network, four hosts at a time", "up -t network -c 4").
		WithCommonFlags().
		NoArgs(runUp)
}

func runUp(out io.Writer) error {
	cfg, inv, roles, err := loadTopology()
	if err != nil {
		return err
	}

	graph, err := plan.Build(inv, roles, tagFilter())
	if err != nil {
		return err
	}

	defaults := map[string]string{}
	if opts.EnvFile != "" {
		if defaults, err = godotenv.Read(opts.EnvFile); err != nil {
			return errors.Wrap(err, "reading env file")
		}
	}

	var executor exec.Executor
	if opts.DryRun {
		executor = exec.NewDryRunExecutor(out, defaults)
	} else {
		if executor, err = exec.NewSSHExecutor(opts.SSHUser, opts.SSHFlags, defaults); err != nil {
			return err
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Defaults.Concurrency
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := engine.Converge(ctx, graph, executor, engine.Options{
		Concurrency: concurrency,
		RunID:       opts.RunID,
	})
	rep.WriteSummary(out)

	if err != nil {
		return statusError{status: rep.Status(), err: err}
	}
	return nil
}

// statusError maps a finished run's status onto the CLI exit code.
type statusError struct {
	status report.Status
	err    error
}

func (e statusError) Error() string {
	return e.err.Error()
}

func (e statusError) Unwrap() error {
	return e.err
}

func (e statusError) ExitCode() int {
	if e.status == report.StatusFailed {
		return constants.ExitAborted
	}
	return constants.ExitPartial
}
