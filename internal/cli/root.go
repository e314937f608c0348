// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are the overrides shared by every command.
type globalFlags struct {
	configPath   string
	conversation string
	model        string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "rigchat",
		Short: "Terminal chat client for OpenAI-compatible APIs",
		Long: `rigchat streams chat completions into a full-screen terminal interface.

The conversation is saved after every reply and restored on the next start.
Without a terminal on stdin and stdout, rigchat falls back to line mode.`,
		Version:       Version + " (" + GitCommit + ", " + BuildDate + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.rigchat/config.toml)")
	pf.StringVar(&flags.conversation, "conversation", "", "conversation file (.json, or .db for sqlite)")
	pf.StringVar(&flags.model, "model", "", "model to request")

	root.AddCommand(
		newChatCmd(flags),
		newHistoryCmd(flags),
		newConfigCmd(flags),
		newExportCmd(flags),
	)
	return root
}

// Execute runs the command line and returns the first error.
func Execute() error {
	return NewRootCmd().Execute()
}
