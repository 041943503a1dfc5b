package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brianhealey/phonebook/internal/api"
	"github.com/brianhealey/phonebook/internal/auth"
	"github.com/brianhealey/phonebook/internal/config"
	"github.com/brianhealey/phonebook/internal/events"
	"github.com/brianhealey/phonebook/internal/identity"
	"github.com/brianhealey/phonebook/internal/maintenance"
	"github.com/brianhealey/phonebook/internal/registry"
	"github.com/brianhealey/phonebook/internal/zeroconf"
)

type serveOptions struct {
	addr      string
	dataDir   string
	noAdvert  bool
	rateLimit float64
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the record store server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			root.applyLog(cmd, &s.Log)
			return runServe(cmd.Context(), s)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func (opts *serveOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.addr, "addr", ":3001", "HTTP listen address")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default: ~/.config/phonebook)")
	cmd.Flags().BoolVar(&opts.noAdvert, "no-advertise", false, "do not advertise the server over mDNS")
	cmd.Flags().Float64Var(&opts.rateLimit, "rate-limit", 20, "requests per second per client, 0 disables")
}

// settings loads the environment and lays the changed flags over it.
func (opts *serveOptions) settings(cmd *cobra.Command) (config.ServerSettings, error) {
	s, err := config.LoadServerSettings()
	if err != nil {
		return s, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		s.Addr = opts.addr
	}
	if flags.Changed("data-dir") {
		s.DataDir = opts.dataDir
	}
	if flags.Changed("no-advertise") {
		s.Advertise = !opts.noAdvert
	}
	if flags.Changed("rate-limit") {
		s.RateLimit = opts.rateLimit
	}
	return s, nil
}

func runServe(parent context.Context, s config.ServerSettings) error {
	slog.SetDefault(newLogger(s.Log))

	if err := os.MkdirAll(s.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := config.NewJSONStore(s.DataDir)
	bus := events.NewBus()
	reg, err := registry.New(store, bus)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}

	authSvc, err := auth.NewService(s.DataDir)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	defer authSvc.Close()
	if authSvc.IsOpenMode() {
		slog.Info("auth: no access keys configured, API is open", "file", auth.KeysFileName)
	}

	ident := identity.Load(s.DataDir)

	maint := maintenance.New(store.Path(), s.BackupPath(), s.BackupKeep)
	go maint.Start(ctx)

	if s.Advertise {
		zc := zeroconf.New(ident.Hostname, listenPort(s.Addr), ident.TXT())
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	router := api.NewRouter(reg, authSvc, bus, api.Options{
		Identity:  ident,
		RateLimit: s.RateLimit,
		RateBurst: s.RateBurst,
	})
	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("phonebook listening", "addr", s.Addr, "data", store.Path(), "version", ident.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush contacts", "err", err)
	}
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// listenPort extracts the port from a listen address, defaulting to 80.
func listenPort(addr string) int {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	p, err := strconv.Atoi(port)
	if err != nil || p == 0 {
		return 80
	}
	return p
}
