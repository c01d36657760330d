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

package latest

// Version is the current apiVersion of the topology document.
const Version string = "kubestitch/v1"

// NewTopology creates an empty versioned Topology.
func NewTopology() *Topology {
	return new(Topology)
}

// Topology is the top level topology document. It declares the hosts of the
// cluster, the roles they carry and the ordered provisioning steps each role
// runs. It is the input of one convergence run.
type Topology struct {
	// APIVersion is the version of the topology document. The current
	// version is `kubestitch/v1`.
	APIVersion string `yaml:"apiVersion"`

	// Kind is always `Topology`.
	Kind string `yaml:"kind"`

	// Hosts lists the machines the run converges.
	Hosts []*HostConfig `yaml:"hosts,omitempty"`

	// Roles lists the roles in the order they apply to each host.
	Roles []*RoleConfig `yaml:"roles,omitempty"`

	// Defaults holds run-wide settings that individual steps can override.
	Defaults Defaults `yaml:"defaults,omitempty"`
}

func (t *Topology) GetVersion() string {
	return t.APIVersion
}

// HostConfig declares one target machine.
type HostConfig struct {
	// Name uniquely identifies the host within the topology.
	Name string `yaml:"name"`

	// Address is the connection address, `host:port`.
	// A bare hostname or IP defaults to port 22.
	Address string `yaml:"address"`

	// Roles tags the host with the roles that apply to it, for example
	// `master` or `worker`. A host must carry at least one role.
	Roles []string `yaml:"roles,omitempty"`

	// Vars are host-scoped parameters merged into every step's params.
	Vars map[string]string `yaml:"vars,omitempty"`
}

// RoleConfig declares a named ordered sequence of steps and which host role
// tags it applies to.
type RoleConfig struct {
	// Name uniquely identifies the role.
	Name string `yaml:"name"`

	// AppliesTo selects hosts by role tag. A role with no selector applies
	// to no host.
	AppliesTo []string `yaml:"appliesTo,omitempty"`

	// DependsOn names roles that must complete cluster-wide before any step
	// of this role starts on any host.
	DependsOn []string `yaml:"dependsOn,omitempty"`

	// Steps is the ordered list of steps this role runs on each matching host.
	Steps []*StepConfig `yaml:"steps,omitempty"`
}

// StepConfig declares one idempotent unit of work. The action itself is
// opaque to the engine and handed to the executor as-is.
type StepConfig struct {
	// Name identifies the step within its role.
	Name string `yaml:"name"`

	// Run is the command the executor runs on the target host. The engine
	// never interprets its contents.
	Run string `yaml:"run"`

	// Params are free-form parameters passed to the executor alongside the
	// command. Host vars and --env-file values are merged in, with step
	// params taking precedence.
	Params map[string]string `yaml:"params,omitempty"`

	// Tags label the step for `--tags` / `--skip-tags` selection.
	Tags []string `yaml:"tags,omitempty"`

	// ClusterFatal aborts the entire run when this step permanently fails,
	// instead of only skipping the host's remaining steps.
	ClusterFatal bool `yaml:"clusterFatal,omitempty"`

	// ContinueOnError records a failure of this step without skipping its
	// dependents.
	ContinueOnError bool `yaml:"continueOnError,omitempty"`

	// Retries is the number of additional attempts after a failed one.
	Retries int `yaml:"retries,omitempty"`

	// Backoff picks the delay strategy between attempts, `fixed` (default)
	// or `exponential`.
	Backoff string `yaml:"backoff,omitempty"`

	// RetryDelay is the initial delay between attempts, as a Go duration.
	RetryDelay string `yaml:"retryDelay,omitempty"`

	// Timeout bounds one attempt of this step, as a Go duration.
	Timeout string `yaml:"timeout,omitempty"`
}

// Defaults holds run-wide settings.
type Defaults struct {
	// Concurrency is the maximum number of hosts worked on in parallel.
	Concurrency int `yaml:"concurrency,omitempty"`

	// StepTimeout bounds one step attempt unless the step overrides it.
	StepTimeout string `yaml:"stepTimeout,omitempty"`
}
