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

package output

import (
	"bytes"
	"io"
	"testing"

	"github.com/kubestitch/kubestitch/testutil"
)

func compareText(t *testing.T, expected, actual string) {
	t.Helper()
	testutil.CheckDeepEqual(t, expected, actual)
}

func TestFprintlnOnTerminal(t *testing.T) {
	defer func(f func(io.Writer) bool) { IsTerminal = f }(IsTerminal)
	IsTerminal = func(io.Writer) bool { return true }

	var b bytes.Buffer
	Green.Fprintln(&b, "It's", "green")

	compareText(t, "\033[32mIt's green\033[0m\n", b.String())
}

func TestFprintlnNonTerminal(t *testing.T) {
	var b bytes.Buffer
	Green.Fprintln(&b, "It's", "green")

	compareText(t, "It's green\n", b.String())
}

func TestFprintfOnTerminal(t *testing.T) {
	defer func(f func(io.Writer) bool) { IsTerminal = f }(IsTerminal)
	IsTerminal = func(io.Writer) bool { return true }

	var b bytes.Buffer
	Red.Fprintf(&b, "It's %s", "red")

	compareText(t, "\033[31mIt's red\033[0m", b.String())
}

func TestFprintlnNoColor(t *testing.T) {
	defer func(f func(io.Writer) bool) { IsTerminal = f }(IsTerminal)
	IsTerminal = func(io.Writer) bool { return true }

	var b bytes.Buffer
	None.Fprintln(&b, "It's", "plain")

	compareText(t, "It's plain\n", b.String())
}
