package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianhealey/phonebook/internal/config"
	"github.com/brianhealey/phonebook/internal/maintenance"
)

func newBackupCommand() *cobra.Command {
	var (
		list    bool
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the server's contacts now, or list existing backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadServerSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				s.DataDir = dataDir
			}
			if list {
				files, err := maintenance.ListBackups(s.BackupPath())
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			}
			store := config.NewJSONStore(s.DataDir)
			path, err := maintenance.New(store.Path(), s.BackupPath(), s.BackupKeep).RunBackupNow()
			if err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list backups instead of creating one")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory of the server (default: ~/.config/phonebook)")
	return cmd
}
