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
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const longDescription = `Outputs shell completion for the given shell (bash or zsh)

	This depends on the bash-completion binary.  Example installation instructions:
	OS X:
		$ brew install bash-completion
		$ source $(brew --prefix)/etc/bash_completion
		$ kubestitch completion bash > ~/.kubestitch-completion  # for bash users
		$ kubestitch completion zsh > ~/.kubestitch-completion   # for zsh users
		$ source ~/.kubestitch-completion
	Ubuntu:
		$ apt-get install bash-completion
		$ source /etc/bash-completion
		$ source <(kubestitch completion bash)  # for bash users
		$ source <(kubestitch completion zsh)   # for zsh users

	Additionally, you may want to add this to your .bashrc/.zshrc`

func completion(cmd *cobra.Command, args []string) {
	switch args[0] {
	case "bash":
		rootCmd.GenBashCompletion(cmd.OutOrStdout())
	case "zsh":
		rootCmd.GenZshCompletion(cmd.OutOrStdout())
	}
}

// NewCmdCompletion describes the CLI command to output shell completion.
func NewCmdCompletion(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use: "completion SHELL",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("requires 1 arg, found %d", len(args))
			}
			return cobra.OnlyValidArgs(cmd, args)
		},
		ValidArgs: []string{"bash", "zsh"},
		Short:     "Output shell completion for the given shell (bash or zsh)",
		Long:      longDescription,
		Run:       completion,
	}
}
