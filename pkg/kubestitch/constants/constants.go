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

package constants

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogLevel is the default global verbosity
	DefaultLogLevel = logrus.WarnLevel

	// DefaultTopologyFile is where `kubestitch up` looks for the topology
	// document when -f is not given.
	DefaultTopologyFile = "topology.yaml"

	// DefaultConcurrency is the worker pool size used when the topology and
	// the command line are both silent. One in-flight step per host is always
	// enforced on top of this limit.
	DefaultConcurrency = 4

	// DefaultStepTimeout bounds a single step attempt against a single host.
	DefaultStepTimeout = 10 * time.Minute

	// DefaultRetryDelay is the initial delay between step attempts.
	DefaultRetryDelay = 5 * time.Second
)

type Phase string

// Phases of one convergence run, used to tag log entries.
const (
	Inventory Phase = "Inventory"
	Plan      Phase = "Plan"
	Converge  Phase = "Converge"
	Report    Phase = "Report"

	SubtaskIDNone = "-1"
)

// Exit codes returned by the CLI. Partial failures and aborted runs are
// distinguished so wrapping scripts can tell "some hosts converged" from
// "the run was halted".
const (
	ExitSuccess = 0
	ExitPartial = 1
	ExitAborted = 2
	ExitUsage   = 3
)
