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
	flag "github.com/spf13/pflag"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/constants"
)

// AllFlagSets groups the flags by the commands they apply to. Flags carry a
// "cmds" annotation so AddFlags can attach each one to the right commands.
var AllFlagSets = []*flag.FlagSet{
	topologyFlagSet("topology"),
	convergeFlagSet("converge"),
}

func topologyFlagSet(name string) *flag.FlagSet {
	topologyFlags := flag.NewFlagSet(name, flag.ContinueOnError)
	topologyFlags.StringVarP(&opts.TopologyFile, "filename", "f", constants.DefaultTopologyFile, "Path or URL to the topology file, or - for stdin")
	topologyFlags.StringSliceVarP(&opts.Tags, "tags", "t", nil, "Only run steps carrying one of these tags")
	topologyFlags.StringSliceVar(&opts.SkipTags, "skip-tags", nil, "Skip steps carrying any of these tags, even when also included")
	topologyFlags.StringVar(&opts.EnvFile, "env-file", "", "Dotenv file providing default step parameters")
	topologyFlags.VisitAll(func(f *flag.Flag) {
		topologyFlags.SetAnnotation(f.Name, "cmds", []string{"up", "plan"})
	})
	return topologyFlags
}

func convergeFlagSet(name string) *flag.FlagSet {
	convergeFlags := flag.NewFlagSet(name, flag.ContinueOnError)
	convergeFlags.IntVarP(&opts.Concurrency, "concurrency", "c", 0, "Max steps in flight across all hosts (0 uses the topology's default)")
	convergeFlags.BoolVar(&opts.DryRun, "dry-run", false, "Print every step instead of executing it")
	convergeFlags.StringVar(&opts.SSHUser, "ssh-user", "", "Remote user to run steps as")
	convergeFlags.StringVar(&opts.SSHFlags, "ssh-flags", "", "Extra flags passed to every ssh invocation")
	convergeFlags.StringVar(&opts.RunID, "run-id", "", "Label for the run report (generated when empty)")
	convergeFlags.VisitAll(func(f *flag.Flag) {
		convergeFlags.SetAnnotation(f.Name, "cmds", []string{"up"})
	})
	return convergeFlags
}

// AddFlags attaches to the given flag set the flags annotated for cmdName.
func AddFlags(flags *flag.FlagSet, cmdName string) {
	for _, flagSet := range AllFlagSets {
		flagSet.VisitAll(func(f *flag.Flag) {
			if hasCmdAnnotation(cmdName, f.Annotations["cmds"]) {
				flags.AddFlag(f)
			}
		})
	}
}

func hasCmdAnnotation(cmdName string, annotations []string) bool {
	for _, a := range annotations {
		if cmdName == a || a == "all" {
			return true
		}
	}
	return false
}
