package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one contact by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.clientSettings(cmd)
			if err != nil {
				return err
			}
			client, err := newClient(cmd.Context(), s, newLogger(s.Log))
			if err != nil {
				return err
			}
			c, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get contact: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id:     %s\nname:   %s\nnumber: %s\n", c.ID, c.Name, c.Number)
			return nil
		},
	}
}

func newInfoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the server summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.clientSettings(cmd)
			if err != nil {
				return err
			}
			client, err := newClient(cmd.Context(), s, newLogger(s.Log))
			if err != nil {
				return err
			}
			info, err := client.Info(cmd.Context())
			if err != nil {
				return fmt.Errorf("server info: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Phonebook has info for %d people\n", info.Count)
			fmt.Fprintf(out, "server: %s (%s) %s\n", info.Hostname, info.Version, info.Time.Format(time.RFC1123))
			return nil
		},
	}
}
