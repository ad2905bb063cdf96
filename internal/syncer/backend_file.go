package syncer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbloom/vaultbloom/internal/model"
	"gopkg.in/yaml.v3"
)

// FileBackend is the reference backend: it reads a YAML login export from
// disk. It stands in for the real sync engine in development and tests.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend reading logins from the given YAML file.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("filebackend: path is empty")
	}
	return &FileBackend{path: path}, nil
}

type exportFile struct {
	Logins []exportLogin `yaml:"logins"`
}

type exportLogin struct {
	ID         string     `yaml:"id"`
	Hostname   string     `yaml:"hostname"`
	Username   string     `yaml:"username"`
	LastUsedAt *time.Time `yaml:"last_used_at"`
}

// FetchLogins parses the export file. Entries without an id get a
// deterministic UUID derived from hostname and username, so repeated
// fetches of an unchanged file yield identical ids.
func (b *FileBackend) FetchLogins(ctx context.Context) ([]model.LoginRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("filebackend: read export: %w", err)
	}

	var export exportFile
	if err := yaml.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("filebackend: parse export: %w", err)
	}

	logins := make([]model.LoginRecord, 0, len(export.Logins))
	for _, e := range export.Logins {
		id := e.ID
		if id == "" {
			id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.Hostname+"\n"+e.Username)).String()
		}
		r := model.LoginRecord{
			ID:       id,
			Hostname: e.Hostname,
			Username: e.Username,
		}
		if e.LastUsedAt != nil {
			r.LastUsedAt = e.LastUsedAt.UTC()
		}
		logins = append(logins, r)
	}
	return logins, nil
}

// Disconnect is trivial for a file export; it only honors cancellation.
func (b *FileBackend) Disconnect(ctx context.Context) error {
	return ctx.Err()
}
