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

// Package plan turns a topology's roles into an executable task graph, one
// node per (host, step), with edges encoding everything that must complete
// first.
package plan

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/constants"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/schema/latest"
)

// BackoffStrategy picks how the delay between step attempts grows.
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy bounds how often a failing step is re-attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, at least 1.
	MaxAttempts int

	// Delay is the initial delay between attempts.
	Delay time.Duration

	// Strategy is fixed or exponential.
	Strategy BackoffStrategy
}

// Step is one idempotent unit of work against one host. The engine guarantees
// each (host, step) pair executes at most once per run; being safe to
// re-invoke across runs is the action's own contract.
type Step struct {
	Name            string
	Run             string
	Params          map[string]string
	Tags            []string
	ClusterFatal    bool
	ContinueOnError bool
	Retry           RetryPolicy
	Timeout         time.Duration
}

// HasTag reports whether the step carries the given tag.
func (s Step) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Role is a named ordered sequence of steps, applied to every host carrying
// one of its role tags.
type Role struct {
	Name      string
	AppliesTo []string
	DependsOn []string
	Steps     []Step
}

// RolesFromConfig converts the declared roles, parsing durations and applying
// run-wide defaults.
func RolesFromConfig(cfg *latest.Topology) ([]Role, error) {
	defaultTimeout := constants.DefaultStepTimeout
	if cfg.Defaults.StepTimeout != "" {
		parsed, err := time.ParseDuration(cfg.Defaults.StepTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "parsing default step timeout")
		}
		defaultTimeout = parsed
	}

	seen := map[string]bool{}
	var roles []Role
	for _, rc := range cfg.Roles {
		if rc.Name == "" {
			return nil, errors.New("role with no name")
		}
		if seen[rc.Name] {
			return nil, errors.Errorf("duplicate role %q", rc.Name)
		}
		seen[rc.Name] = true

		role := Role{
			Name:      rc.Name,
			AppliesTo: rc.AppliesTo,
			DependsOn: rc.DependsOn,
		}

		stepNames := map[string]bool{}
		for _, sc := range rc.Steps {
			step, err := stepFromConfig(sc, defaultTimeout)
			if err != nil {
				return nil, errors.Wrapf(err, "role %q", rc.Name)
			}
			if stepNames[step.Name] {
				return nil, errors.Errorf("role %q: duplicate step %q", rc.Name, step.Name)
			}
			stepNames[step.Name] = true
			role.Steps = append(role.Steps, step)
		}

		roles = append(roles, role)
	}
	return roles, nil
}

func stepFromConfig(sc *latest.StepConfig, defaultTimeout time.Duration) (Step, error) {
	if sc.Name == "" {
		return Step{}, errors.New("step with no name")
	}
	if sc.Run == "" {
		return Step{}, errors.Errorf("step %q has no action", sc.Name)
	}
	if sc.Retries < 0 {
		return Step{}, errors.Errorf("step %q: negative retries", sc.Name)
	}

	strategy := BackoffFixed
	switch sc.Backoff {
	case "", string(BackoffFixed):
	case string(BackoffExponential):
		strategy = BackoffExponential
	default:
		return Step{}, errors.Errorf("step %q: unknown backoff strategy %q", sc.Name, sc.Backoff)
	}

	delay := constants.DefaultRetryDelay
	if sc.RetryDelay != "" {
		parsed, err := time.ParseDuration(sc.RetryDelay)
		if err != nil {
			return Step{}, errors.Wrapf(err, "step %q: parsing retry delay", sc.Name)
		}
		delay = parsed
	}

	timeout := defaultTimeout
	if sc.Timeout != "" {
		parsed, err := time.ParseDuration(sc.Timeout)
		if err != nil {
			return Step{}, errors.Wrapf(err, "step %q: parsing timeout", sc.Name)
		}
		timeout = parsed
	}

	return Step{
		Name:            sc.Name,
		Run:             sc.Run,
		Params:          sc.Params,
		Tags:            sc.Tags,
		ClusterFatal:    sc.ClusterFatal,
		ContinueOnError: sc.ContinueOnError,
		Retry: RetryPolicy{
			MaxAttempts: sc.Retries + 1,
			Delay:       delay,
			Strategy:    strategy,
		},
		Timeout: timeout,
	}, nil
}
