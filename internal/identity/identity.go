// Package identity provides the hostname and version reported by the
// phonebook server in /info and in its mDNS TXT records.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime/debug"
)

// DefaultVersion is the fallback version string when nothing better is known.
const DefaultVersion = "dev"

// Info holds the server identity.
type Info struct {
	Hostname string
	Version  string
}

// Load returns the identity for a server whose data lives in dataDir.
func Load(dataDir string) Info {
	return Info{Hostname: GetHostname(), Version: GetVersionFromDir(dataDir)}
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "phonebook"
	}
	return h
}

// GetVersionFromDir reads the version from metadata.json in dir, then falls
// back to the module version embedded in the binary, then DefaultVersion.
func GetVersionFromDir(dir string) string {
	if v := versionFromMetadata(dir); v != "" {
		return v
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return DefaultVersion
}

func versionFromMetadata(dir string) string {
	if dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return ""
	}
	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return ""
	}
	return meta.Version
}

// TXT returns the mDNS TXT records describing this server.
func (i Info) TXT() []string {
	return []string{"version=" + i.Version, "path=/api/persons"}
}
