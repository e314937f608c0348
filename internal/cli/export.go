// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/storage"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		format   string
		output   string
		system   bool
		title    string
		noHeader bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved conversation to a markdown, html or json file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.OutputDir = output
			opts.IncludeSystem = system
			opts.IncludeMetadata = !noHeader
			if cfg.UI.Theme == "light" {
				opts.Theme = "light"
			}

			exporter, err := export.New(format, opts)
			if err != nil {
				return err
			}

			store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Load()
			if err != nil {
				return err
			}

			doc := export.Document{
				Title:   title,
				Model:   cfg.API.Model,
				Created: modTime(cfg.Storage.Path),
				Entries: entries,
			}
			path, err := export.ExportToFile(doc, exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "markdown", "output format: markdown, html or json")
	f.StringVarP(&output, "output", "o", ".", "directory to write into")
	f.BoolVar(&system, "system", false, "include system notices")
	f.StringVar(&title, "title", "", "document title (default: first message)")
	f.BoolVar(&noHeader, "no-header", false, "leave out the metadata header")
	return cmd
}

// modTime is when the conversation was last saved, or zero.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
