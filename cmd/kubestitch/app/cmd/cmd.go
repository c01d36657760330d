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

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/config"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/constants"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/output/log"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/schema"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/schema/latest"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/util"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/version"
)

var (
	opts = config.KubestitchOptions{}
	v    string
)

var rootCmd = &cobra.Command{
	Use:   "kubestitch",
	Short: "A tool that converges a fleet of machines into a Kubernetes cluster from a declarative topology.",
}

func NewKubestitchCommand(out, stderr io.Writer) *cobra.Command {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := SetUpLogs(stderr, v); err != nil {
			return err
		}
		log.Entry(context.TODO()).Infof("Kubestitch %+v", version.Get())
		return nil
	}
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(NewCmdUp(out))
	rootCmd.AddCommand(NewCmdPlan(out))
	rootCmd.AddCommand(NewCmdVersion(out))
	rootCmd.AddCommand(NewCmdCompletion(out))

	rootCmd.PersistentFlags().StringVarP(&v, "verbosity", "v", constants.DefaultLogLevel.String(), "Log level (debug, info, warn, error, fatal, panic)")
	return rootCmd
}

func SetUpLogs(stdErr io.Writer, level string) error {
	logrus.SetOutput(stdErr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	logrus.SetLevel(lvl)
	return nil
}

// loadTopology reads, parses and validates the topology document addressed
// by the common flags, returning the inventory and the declared roles.
func loadTopology() (*latest.Topology, *inventory.Inventory, []plan.Role, error) {
	buf, err := util.ReadTopology(opts.TopologyFile)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "reading topology")
	}

	cfg, err := schema.ParseTopology(buf)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "parsing topology")
	}

	inv, err := inventory.Load(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	roles, err := plan.RolesFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, inv, roles, nil
}

func tagFilter() plan.TagFilter {
	return plan.TagFilter{
		Include: opts.Tags,
		Exclude: opts.SkipTags,
	}
}
