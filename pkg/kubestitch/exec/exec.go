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

// Package exec runs individual steps against individual hosts. The engine
// treats a step's action as opaque data; everything that interprets it
// lives here, behind the Executor interface.
package exec

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
)

// Result is the outcome of one successful step execution.
type Result struct {
	// Changed reports whether the step changed anything on the host, as
	// opposed to finding the desired state already in place.
	Changed bool

	// Output is what the action printed.
	Output string
}

// Executor runs one step against one host. Implementations must honor the
// context deadline; the engine uses it to enforce the per-step timeout.
type Executor interface {
	Execute(ctx context.Context, host *inventory.Host, step plan.Step) (Result, error)
}

// ExpandParams substitutes ${NAME} references in the step's action with the
// merged parameters: run-level defaults, then host vars, then step params,
// later ones winning. A reference with no value in any layer is an error,
// never an empty substitution.
func ExpandParams(host *inventory.Host, step plan.Step, defaults map[string]string) (string, error) {
	merged := map[string]string{}
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range host.Vars {
		merged[k] = v
	}
	for k, v := range step.Params {
		merged[k] = v
	}

	missing := map[string]bool{}
	expanded := os.Expand(step.Run, func(name string) string {
		v, ok := merged[name]
		if !ok {
			missing[name] = true
		}
		return v
	})

	if len(missing) > 0 {
		var names []string
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", errors.Errorf("step %q on host %q references undefined parameters: %s", step.Name, host.Name, strings.Join(names, ", "))
	}
	return expanded, nil
}
