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

package exec

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
)

// DryRunExecutor prints what each step would run without touching any host.
// Every step reports ok-unchanged.
type DryRunExecutor struct {
	mu       sync.Mutex
	out      io.Writer
	Defaults map[string]string
}

func NewDryRunExecutor(out io.Writer, defaults map[string]string) *DryRunExecutor {
	return &DryRunExecutor{out: out, Defaults: defaults}
}

func (d *DryRunExecutor) Execute(_ context.Context, host *inventory.Host, step plan.Step) (Result, error) {
	command, err := ExpandParams(host, step, d.Defaults)
	if err != nil {
		return Result{}, err
	}

	d.mu.Lock()
	fmt.Fprintf(d.out, "%s: would run %q\n", host.Name, command)
	d.mu.Unlock()

	return Result{Changed: false}, nil
}
