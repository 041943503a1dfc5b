// Package zeroconf advertises the phonebook server as an mDNS/DNS-SD service
// and lets clients find it on the LAN.
package zeroconf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the DNS-SD service type of the phonebook API.
	ServiceType = "_phonebook._tcp"
	domain      = "local."
)

// ErrNotFound is returned by Discover when no server answered in time.
var ErrNotFound = errors.New("zeroconf: no phonebook server found")

// Service manages mDNS service registration.
type Service struct {
	name   string // instance name, usually the hostname
	port   int
	txt    []string
	server *zeroconf.Server
}

// New creates a new zeroconf Service that will advertise on the given port.
func New(name string, port int, txt []string) *Service {
	return &Service{
		name: name,
		port: port,
		txt:  txt,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(
		s.name,      // instance name
		ServiceType, // service type
		domain,      // domain
		s.port,      // port
		s.txt,       // TXT records
		nil,         // ifaces, nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service", "name", s.name, "port", s.port, "txt", s.txt)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}

// Discover browses for a phonebook server until ctx expires and returns the
// base URL of the first one that answers.
func Discover(ctx context.Context) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("zeroconf resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceType, domain, entries); err != nil {
		return "", fmt.Errorf("zeroconf browse: %w", err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNotFound
			}
			if u := entryURL(entry); u != "" {
				slog.Debug("zeroconf: discovered server", "instance", entry.Instance, "url", u)
				return u, nil
			}
		case <-ctx.Done():
			return "", ErrNotFound
		}
	}
}

// entryURL builds an http base URL from a service entry, preferring IPv4.
func entryURL(e *zeroconf.ServiceEntry) string {
	if e == nil || e.Port == 0 {
		return ""
	}
	var ip net.IP
	switch {
	case len(e.AddrIPv4) > 0:
		ip = e.AddrIPv4[0]
	case len(e.AddrIPv6) > 0:
		ip = e.AddrIPv6[0]
	default:
		return ""
	}
	return "http://" + net.JoinHostPort(ip.String(), strconv.Itoa(e.Port))
}
