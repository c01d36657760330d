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

package app

import (
	"io"

	"github.com/pkg/errors"

	"github.com/kubestitch/kubestitch/cmd/kubestitch/app/cmd"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/constants"
)

// Run executes the CLI and returns the error the chosen command ended with.
func Run(out, stderr io.Writer) error {
	c := cmd.NewKubestitchCommand(out, stderr)
	return c.Execute()
}

type exitCoder interface {
	ExitCode() int
}

// ExitCode maps an error returned by Run onto the process exit code.
// Errors that don't carry a code are treated as usage errors.
func ExitCode(err error) int {
	if err == nil {
		return constants.ExitSuccess
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return constants.ExitUsage
}
