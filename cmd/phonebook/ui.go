package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/brianhealey/phonebook/internal/phonebook"
	"github.com/brianhealey/phonebook/internal/ui"
)

func newUICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Browse and edit the phonebook in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, opts)
		},
	}
}

func runUI(cmd *cobra.Command, opts *rootOptions) error {
	s, err := opts.clientSettings(cmd)
	if err != nil {
		return err
	}
	// Log lines would tear the full-screen view.
	if s.Log.File == "" || s.Log.File == "-" {
		s.Log.File = os.DevNull
	}
	log := newLogger(s.Log)

	ctx := cmd.Context()
	client, err := newClient(ctx, s, log)
	if err != nil {
		return err
	}
	log.Info("phonebook: starting ui", "server", client.BaseURL())

	ctrlOpts := []phonebook.Option{
		phonebook.WithBannerDelay(s.BannerDelay),
		phonebook.WithLogger(log),
	}
	return ui.Run(ctx, client, ctrlOpts, tea.WithAltScreen())
}
