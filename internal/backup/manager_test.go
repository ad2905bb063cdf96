package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeSnapshotter struct {
	dbPath string
	data   []byte
}

func (f *fakeSnapshotter) DBPath() string { return f.dbPath }

func (f *fakeSnapshotter) SnapshotTo(dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(dstPath, f.data, 0o600)
}

type recordingUploader struct {
	uploaded []string
	err      error
}

func (u *recordingUploader) UploadFile(_ context.Context, localPath string) error {
	if u.err != nil {
		return u.err
	}
	u.uploaded = append(u.uploaded, localPath)
	return nil
}

func TestNewManager_Disabled(t *testing.T) {
	t.Parallel()

	m, err := NewManager(&fakeSnapshotter{dbPath: "/tmp/vault.duckdb", data: []byte("x")}, Config{})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil manager when disabled")
	}
}

func TestNewManager_EnabledRequiresDBPath(t *testing.T) {
	t.Parallel()

	_, err := NewManager(&fakeSnapshotter{dbPath: "", data: []byte("x")}, Config{
		Enabled:  true,
		LocalDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for empty db path")
	}
}

func TestRunOnce_CreatesSnapshotAndUploads(t *testing.T) {
	t.Parallel()

	localDir := t.TempDir()
	uploader := &recordingUploader{}
	m := &Manager{
		vault:    &fakeSnapshotter{dbPath: "/tmp/vault.duckdb", data: []byte("snapshot")},
		cfg:      Config{Enabled: true, LocalDir: localDir, KeepLast: 2},
		uploader: uploader,
	}

	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(localDir, snapshotPrefix+"*"+snapshotSuffix))
	if err != nil {
		t.Fatalf("glob backups: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("backup files = %d, want 1", len(files))
	}
	if len(uploader.uploaded) != 1 || uploader.uploaded[0] != files[0] {
		t.Fatalf("uploaded = %v, want %v", uploader.uploaded, files)
	}
}

func TestRunOnce_UploadFailureSurfaces(t *testing.T) {
	t.Parallel()

	m := &Manager{
		vault:    &fakeSnapshotter{dbPath: "/tmp/vault.duckdb", data: []byte("snapshot")},
		cfg:      Config{Enabled: true, LocalDir: t.TempDir(), KeepLast: 2},
		uploader: &recordingUploader{err: errors.New("bucket gone")},
	}

	if err := m.RunOnce(context.Background()); err == nil {
		t.Fatal("expected upload failure to surface")
	}
}

func TestPruneLocalBackups(t *testing.T) {
	t.Parallel()

	localDir := t.TempDir()
	names := []string{
		snapshotPrefix + "20250101-000000" + snapshotSuffix,
		snapshotPrefix + "20250102-000000" + snapshotSuffix,
		snapshotPrefix + "20250103-000000" + snapshotSuffix,
		snapshotPrefix + "20250104-000000" + snapshotSuffix,
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(localDir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("seed backup: %v", err)
		}
	}

	if err := pruneLocalBackups(localDir, 2); err != nil {
		t.Fatalf("pruneLocalBackups: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(localDir, snapshotPrefix+"*"+snapshotSuffix))
	if err != nil {
		t.Fatalf("glob backups: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("remaining backups = %d, want 2", len(files))
	}
	for _, f := range files {
		base := filepath.Base(f)
		if base != names[2] && base != names[3] {
			t.Fatalf("pruned the wrong file, kept %s", base)
		}
	}
}
