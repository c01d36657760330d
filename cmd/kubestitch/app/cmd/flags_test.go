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
	"testing"

	flag "github.com/spf13/pflag"
)

func TestAddFlags(t *testing.T) {
	tests := []struct {
		description string
		command     string
		expected    []string
		absent      []string
	}{
		{
			description: "up gets topology and converge flags",
			command:     "up",
			expected:    []string{"filename", "tags", "skip-tags", "env-file", "concurrency", "dry-run", "ssh-user", "ssh-flags", "run-id"},
		},
		{
			description: "plan gets topology flags only",
			command:     "plan",
			expected:    []string{"filename", "tags", "skip-tags", "env-file"},
			absent:      []string{"concurrency", "dry-run", "ssh-user", "run-id"},
		},
		{
			description: "version gets nothing",
			command:     "version",
			absent:      []string{"filename", "concurrency"},
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			flags := flag.NewFlagSet(test.command, flag.ContinueOnError)
			AddFlags(flags, test.command)

			for _, name := range test.expected {
				if flags.Lookup(name) == nil {
					t.Errorf("expected flag %q on %q", name, test.command)
				}
			}
			for _, name := range test.absent {
				if flags.Lookup(name) != nil {
					t.Errorf("flag %q must not be on %q", name, test.command)
				}
			}
		})
	}
}
