package maintenance

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeDataFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "persons.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunBackupNow_WritesGzipCopy(t *testing.T) {
	dir := t.TempDir()
	data := writeDataFile(t, dir, `{"persons":[]}`)
	svc := New(data, filepath.Join(dir, "backups"), 3)

	path, err := svc.RunBackupNow()
	if err != nil {
		t.Fatalf("RunBackupNow: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open backup: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != `{"persons":[]}` {
		t.Errorf("backup content = %q", got)
	}
}

func TestRunBackupNow_MissingDataFile(t *testing.T) {
	dir := t.TempDir()
	svc := New(filepath.Join(dir, "persons.json"), filepath.Join(dir, "backups"), 3)

	if _, err := svc.RunBackupNow(); !os.IsNotExist(err) {
		t.Errorf("RunBackupNow without data file: err = %v, want not-exist", err)
	}
}

func TestRunBackupNow_PrunesOldest(t *testing.T) {
	dir := t.TempDir()
	data := writeDataFile(t, dir, `{}`)
	backups := filepath.Join(dir, "backups")
	svc := New(data, backups, 2)

	base := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	var made []string
	for i := 0; i < 4; i++ {
		ts := base.Add(time.Duration(i) * 24 * time.Hour)
		svc.now = func() time.Time { return ts }
		p, err := svc.RunBackupNow()
		if err != nil {
			t.Fatalf("RunBackupNow #%d: %v", i, err)
		}
		made = append(made, p)
	}

	files, err := ListBackups(backups)
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("backups = %v, want 2 newest", files)
	}
	if files[0] != made[2] || files[1] != made[3] {
		t.Errorf("kept %v, want %v", files, made[2:])
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	files, err := ListBackups(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestUntilNext(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		now  time.Time
		want time.Duration
	}{
		{time.Date(2026, 3, 1, 1, 0, 0, 0, loc), time.Hour},
		{time.Date(2026, 3, 1, 2, 0, 0, 0, loc), 24 * time.Hour},
		{time.Date(2026, 3, 1, 23, 30, 0, 0, loc), 2*time.Hour + 30*time.Minute},
	}
	for _, tt := range tests {
		if got := untilNext(tt.now, 2); got != tt.want {
			t.Errorf("untilNext(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestStart_ReturnsOnCancel(t *testing.T) {
	svc := New(filepath.Join(t.TempDir(), "persons.json"), t.TempDir(), 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
