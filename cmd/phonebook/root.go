package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/brianhealey/phonebook/internal/config"
	"github.com/brianhealey/phonebook/internal/logger"
	"github.com/brianhealey/phonebook/internal/recordstore"
	"github.com/brianhealey/phonebook/internal/zeroconf"
)

// fallbackServer is used when no server is configured and none is found on the LAN.
const fallbackServer = "http://localhost:3001"

const discoverTimeout = 2 * time.Second

// rootOptions holds flags shared by every command. Unset flags leave the
// environment value in place.
type rootOptions struct {
	logLevel  string
	logFile   string
	logFormat string

	server  string
	apiKey  string
	timeout time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "phonebook",
		Short:         "A shared phonebook",
		Long:          "Serve a phonebook over HTTP, or browse and edit one from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.StringVar(&opts.logFile, "log-file", "", "log file, - for stderr")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format (text|json)")
	pf.StringVar(&opts.server, "server", "", "record store URL (default: discover, then "+fallbackServer+")")
	pf.StringVar(&opts.apiKey, "api-key", "", "record store access key")
	pf.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newUICommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newInfoCommand(opts))
	cmd.AddCommand(newBackupCommand())

	return cmd
}

// applyLog overrides env log settings with any flags given on cmd.
func (o *rootOptions) applyLog(cmd *cobra.Command, s *config.LogSettings) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		s.Level = o.logLevel
	}
	if flags.Changed("log-file") {
		s.File = o.logFile
	}
	if flags.Changed("log-format") {
		s.Format = o.logFormat
	}
}

func newLogger(s config.LogSettings) *slog.Logger {
	return logger.New(logger.Options{Level: s.Level, File: s.File, Format: s.Format})
}

// clientSettings loads client settings from the environment and applies flags.
func (o *rootOptions) clientSettings(cmd *cobra.Command) (config.ClientSettings, error) {
	s, err := config.LoadClientSettings()
	if err != nil {
		return s, err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		s.Server = o.server
	}
	if flags.Changed("api-key") {
		s.APIKey = o.apiKey
	}
	if flags.Changed("timeout") {
		s.Timeout = o.timeout
	}
	o.applyLog(cmd, &s.Log)
	return s, nil
}

// newClient builds a record store client, discovering the server on the LAN
// when none is configured.
func newClient(ctx context.Context, s config.ClientSettings, log *slog.Logger) (*recordstore.Client, error) {
	server := s.Server
	if server == "" {
		server = discoverServer(ctx, log)
	}
	var opts []recordstore.Option
	if s.Timeout > 0 {
		opts = append(opts, recordstore.WithTimeout(s.Timeout))
	}
	if s.APIKey != "" {
		opts = append(opts, recordstore.WithAPIKey(s.APIKey))
	}
	return recordstore.New(server, opts...)
}

func discoverServer(ctx context.Context, log *slog.Logger) string {
	ctx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	url, err := zeroconf.Discover(ctx)
	if err != nil {
		if !errors.Is(err, zeroconf.ErrNotFound) {
			log.Warn("phonebook: server discovery failed", "err", err)
		}
		log.Info("phonebook: using default server", "url", fallbackServer)
		return fallbackServer
	}
	log.Info("phonebook: discovered server", "url", url)
	return url
}
