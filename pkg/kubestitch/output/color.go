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
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Color can be used to format text so it can be printed to the terminal in color.
type Color int

var (
	// LightRed can format text to be displayed to the terminal in light red.
	LightRed = Color(91)
	// LightGreen can format text to be displayed to the terminal in light green.
	LightGreen = Color(92)
	// LightYellow can format text to be displayed to the terminal in light yellow.
	LightYellow = Color(93)
	// LightBlue can format text to be displayed to the terminal in light blue.
	LightBlue = Color(94)
	// LightPurple can format text to be displayed to the terminal in light purple.
	LightPurple = Color(95)
	// Red can format text to be displayed to the terminal in red.
	Red = Color(31)
	// Green can format text to be displayed to the terminal in green.
	Green = Color(32)
	// Yellow can format text to be displayed to the terminal in yellow.
	Yellow = Color(33)
	// Blue can format text to be displayed to the terminal in blue.
	Blue = Color(34)
	// Purple can format text to be displayed to the terminal in purple.
	Purple = Color(35)
	// Cyan can format text to be displayed to the terminal in cyan.
	Cyan = Color(36)
	// None uses no color formatting.
	None = Color(0)

	// Default is the color used when the lines aren't tagged with any particular color.
	Default = None
)

// IsTerminal will check if the specified output stream is a terminal. This can be changed
// for testing to an arbitrary method.
var IsTerminal = isTerminal

// Fprintln outputs the operands to out, followed by a newline. If out is a
// terminal, the operands are wrapped in the color's ANSI escape codes first.
func (c Color) Fprintln(out io.Writer, a ...interface{}) {
	if c == None || !IsTerminal(out) {
		fmt.Fprintln(out, a...)
		return
	}
	fmt.Fprintf(out, "\033[%dm%s\033[0m\n", c, fmt.Sprint(a...))
}

// Fprintf applies formats according to the format specifier and outputs the
// result to out. If out is a terminal, the result is wrapped in the color's
// ANSI escape codes first.
func (c Color) Fprintf(out io.Writer, format string, a ...interface{}) {
	if c == None || !IsTerminal(out) {
		fmt.Fprintf(out, format, a...)
		return
	}
	fmt.Fprintf(out, "\033[%dm%s\033[0m", c, fmt.Sprintf(format, a...))
}

// This implementation comes from logrus (https://github.com/sirupsen/logrus/blob/master/terminal_check_notappengine.go),
// unfortunately logrus doesn't expose a public interface we can use to call it.
func isTerminal(w io.Writer) bool {
	switch v := w.(type) {
	case *os.File:
		return term.IsTerminal(int(v.Fd()))
	default:
		return false
	}
}
