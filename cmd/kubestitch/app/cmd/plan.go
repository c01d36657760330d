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
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/output"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
)

// NewCmdPlan describes the CLI command to print the task graph of a run
// without touching any host.
func NewCmdPlan(out io.Writer) *cobra.Command {
	return NewCmd(out, "plan").
		WithDescription("Print the steps a run would execute, per host and in order").
		WithExample("show what `up` would do, skipping steps tagged addons", "plan --skip-tags addons").
		WithCommonFlags().
		NoArgs(runPlan)
}

func runPlan(out io.Writer) error {
	_, inv, roles, err := loadTopology()
	if err != nil {
		return err
	}

	graph, err := plan.Build(inv, roles, tagFilter())
	if err != nil {
		return err
	}

	for _, host := range inv.Hosts() {
		nodes := graph.HostNodes(host.Name)
		if len(nodes) == 0 {
			continue
		}
		output.Default.Fprintf(out, "%s (%s):\n", host.Name, host.Address)
		for _, n := range nodes {
			output.Green.Fprintf(out, "  %s/%s", n.Role, n.Step.Name)
			if deps := crossHostDeps(graph, n); len(deps) > 0 {
				output.LightBlue.Fprintf(out, "  (after %s)", strings.Join(deps, ", "))
			}
			output.Default.Fprintln(out)
		}
	}
	return nil
}

// crossHostDeps lists the node's dependencies living on other hosts. Same
// host dependencies are implied by the printed order.
func crossHostDeps(graph *plan.TaskGraph, n *plan.Node) []string {
	var deps []string
	for _, depID := range graph.Dependencies(n) {
		if dep := graph.Node(depID); dep.Host.Name != n.Host.Name {
			deps = append(deps, depID)
		}
	}
	return deps
}
