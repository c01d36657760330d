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

package config

// KubestitchOptions are the configuration flags shared by the commands that
// load a topology.
type KubestitchOptions struct {
	// TopologyFile is the path or URL of the topology document. "-" reads
	// from stdin.
	TopologyFile string

	// Tags restricts the run to steps carrying at least one of these tags.
	// Empty means all steps.
	Tags []string

	// SkipTags removes steps carrying any of these tags. Skip wins over a
	// matching include.
	SkipTags []string

	// EnvFile optionally points at a dotenv file whose values become
	// run-wide default step parameters.
	EnvFile string

	// Concurrency overrides the topology's worker pool size when positive.
	Concurrency int

	// DryRun prints what every step would run instead of connecting to the
	// hosts.
	DryRun bool

	// SSHUser is the remote user steps run as. Empty uses the local user.
	SSHUser string

	// SSHFlags are extra flags passed verbatim to every ssh invocation.
	SSHFlags string

	// RunID labels the run report. Generated when empty.
	RunID string
}
