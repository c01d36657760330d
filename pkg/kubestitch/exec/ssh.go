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
	"net"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/output/log"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/util"
)

// UnchangedMarker is the convention idempotent actions use to report that
// the desired state was already in place: a step that prints this marker is
// recorded as ok-unchanged instead of ok-changed.
const UnchangedMarker = "KUBESTITCH_UNCHANGED"

// SSHExecutor runs steps over ssh. It spawns one `ssh` process per attempt
// through the Command abstraction, so tests can stub the processes.
type SSHExecutor struct {
	// User is the remote login name; empty keeps ssh's own default.
	User string

	// extraFlags are passed to every ssh invocation.
	extraFlags []string

	// Defaults are run-level parameters merged under host vars and step params.
	Defaults map[string]string
}

// NewSSHExecutor builds an SSHExecutor. flags is a single shell-quoted string
// of extra ssh flags, e.g. `-i ~/.ssh/cluster -o StrictHostKeyChecking=no`.
func NewSSHExecutor(user, flags string, defaults map[string]string) (*SSHExecutor, error) {
	split, err := shellquote.Split(flags)
	if err != nil {
		return nil, errors.Wrap(err, "parsing ssh flags")
	}
	return &SSHExecutor{
		User:       user,
		extraFlags: split,
		Defaults:   defaults,
	}, nil
}

// Execute runs the step's action on the host and classifies the outcome.
func (s *SSHExecutor) Execute(ctx context.Context, host *inventory.Host, step plan.Step) (Result, error) {
	command, err := ExpandParams(host, step, s.Defaults)
	if err != nil {
		return Result{}, err
	}

	addr, port, err := net.SplitHostPort(host.Address)
	if err != nil {
		return Result{}, errors.Wrapf(err, "splitting address %q", host.Address)
	}
	if s.User != "" {
		addr = s.User + "@" + addr
	}

	args := []string{"-o", "BatchMode=yes", "-p", port}
	args = append(args, s.extraFlags...)
	args = append(args, addr, command)

	log.Entry(ctx).Debugf("running %q on %s", command, host.Name)

	out, err := util.RunCmdOut(exec.CommandContext(ctx, "ssh", args...))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{Output: string(out)}, ctx.Err()
		}
		return Result{Output: string(out)}, errors.Wrapf(err, "running step %q on host %q", step.Name, host.Name)
	}

	return Result{
		Changed: !strings.Contains(string(out), UnchangedMarker),
		Output:  string(out),
	}, nil
}
