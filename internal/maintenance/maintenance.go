// Package maintenance runs background upkeep for the phonebook server:
// a daily compressed backup of the directory file with rotation.
package maintenance

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	backupPrefix = "persons-"
	backupSuffix = ".json.gz"
	backupHour   = 2
)

// Service manages background maintenance goroutines.
type Service struct {
	dataFile  string
	backupDir string
	keep      int
	now       func() time.Time
}

// New creates a new maintenance Service backing up dataFile into backupDir
// and keeping the newest keep backups. keep < 1 keeps everything.
func New(dataFile, backupDir string, keep int) *Service {
	return &Service{
		dataFile:  dataFile,
		backupDir: backupDir,
		keep:      keep,
		now:       time.Now,
	}
}

// Start runs the daily backup loop. Blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	for {
		delay := untilNext(s.now(), backupHour)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
			path, err := s.RunBackupNow()
			switch {
			case errors.Is(err, os.ErrNotExist):
				slog.Info("maintenance: nothing to back up yet", "file", s.dataFile)
			case err != nil:
				slog.Error("maintenance: backup failed", "err", err)
			default:
				slog.Info("maintenance: backup created", "file", path)
			}
		}
	}
}

// RunBackupNow performs a backup immediately and returns the backup file path.
func (s *Service) RunBackupNow() (string, error) {
	src, err := os.Open(s.dataFile)
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + s.now().Format("20060102-150405") + backupSuffix
	dest := filepath.Join(s.backupDir, name)
	if err := writeGzip(dest, src); err != nil {
		return "", err
	}

	s.prune()
	return dest, nil
}

// ListBackups returns backup files in backupDir sorted oldest first.
func ListBackups(backupDir string) ([]string, error) {
	entries, err := os.ReadDir(backupDir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), backupSuffix) {
			files = append(files, filepath.Join(backupDir, e.Name()))
		}
	}
	// Timestamped names sort chronologically.
	sort.Strings(files)
	return files, nil
}

func writeGzip(dest string, src io.Reader) error {
	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)
	if _, err := io.Copy(zw, src); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// prune deletes the oldest backups beyond s.keep.
func (s *Service) prune() {
	if s.keep < 1 {
		return
	}
	files, err := ListBackups(s.backupDir)
	if err != nil || len(files) <= s.keep {
		return
	}
	for _, path := range files[:len(files)-s.keep] {
		if err := os.Remove(path); err != nil {
			slog.Warn("maintenance: failed to prune old backup", "file", path, "err", err)
		} else {
			slog.Info("maintenance: pruned old backup", "file", path)
		}
	}
}

// untilNext returns the delay from now until the next occurrence of hour:00.
func untilNext(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
