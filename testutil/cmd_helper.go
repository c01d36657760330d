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

package testutil

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

type run struct {
	command string
	output  []byte
	err     error
}

// FakeCmd stubs the Command interface with an ordered list of expected
// command lines. It is safe for concurrent use so engine tests can run
// steps against several fake hosts in parallel.
type FakeCmd struct {
	mu   sync.Mutex
	runs []run
}

func NewFakeCmd() *FakeCmd {
	return &FakeCmd{}
}

// CmdRun expects the given command to be run, succeeding with no output.
func CmdRun(command string) *FakeCmd {
	return NewFakeCmd().AndRun(command)
}

// CmdRunOut expects the given command to be run, succeeding with the given output.
func CmdRunOut(command string, output string) *FakeCmd {
	return NewFakeCmd().AndRunOut(command, output)
}

// CmdRunErr expects the given command to be run, failing with the given error.
func CmdRunErr(command string, err error) *FakeCmd {
	return NewFakeCmd().AndRunErr(command, err)
}

func (c *FakeCmd) AndRun(command string) *FakeCmd {
	c.runs = append(c.runs, run{command: command})
	return c
}

func (c *FakeCmd) AndRunOut(command string, output string) *FakeCmd {
	c.runs = append(c.runs, run{command: command, output: []byte(output)})
	return c
}

func (c *FakeCmd) AndRunErr(command string, err error) *FakeCmd {
	c.runs = append(c.runs, run{command: command, err: err})
	return c
}

func (c *FakeCmd) popRun(actual string) (*run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.runs) == 0 {
		return nil, fmt.Errorf("unexpected command: %s", actual)
	}

	// Commands may be issued out of order by parallel workers, so match any
	// pending expectation instead of strictly the head of the list.
	for i, r := range c.runs {
		if r.command == actual {
			c.runs = append(c.runs[:i], c.runs[i+1:]...)
			return &r, nil
		}
	}
	return nil, fmt.Errorf("unexpected command: %s, expecting one of: %v", actual, c.pending())
}

func (c *FakeCmd) pending() []string {
	var commands []string
	for _, r := range c.runs {
		commands = append(commands, r.command)
	}
	return commands
}

func (c *FakeCmd) RunCmdOut(cmd *exec.Cmd) ([]byte, error) {
	r, err := c.popRun(strings.Join(cmd.Args, " "))
	if err != nil {
		return nil, err
	}
	return r.output, r.err
}

func (c *FakeCmd) RunCmd(cmd *exec.Cmd) error {
	r, err := c.popRun(strings.Join(cmd.Args, " "))
	if err != nil {
		return err
	}
	return r.err
}

// ExpectationsMet errors if any expected command was never run.
func (c *FakeCmd) ExpectationsMet() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.runs) > 0 {
		return fmt.Errorf("expected commands were never run: %v", c.pending())
	}
	return nil
}
