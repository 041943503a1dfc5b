package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brianhealey/phonebook/internal/models"
	"github.com/brianhealey/phonebook/internal/phonebook"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.clientSettings(cmd)
			if err != nil {
				return err
			}
			log := newLogger(s.Log)
			client, err := newClient(cmd.Context(), s, log)
			if err != nil {
				return err
			}
			contacts, err := client.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list contacts: %w", err)
			}
			return printContacts(cmd.OutOrStdout(), phonebook.Visible(contacts, filter, false))
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show names containing this text")
	return cmd
}

func printContacts(w io.Writer, contacts []models.Contact) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Number)
	}
	return tw.Flush()
}
