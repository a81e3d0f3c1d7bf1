package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Snapshots writes point-in-time JSON copies of records that are about to be
// overwritten, for example the old entry of a replacing migration.
type Snapshots struct {
	Dir string
}

func NewSnapshots(dir string) *Snapshots {
	return &Snapshots{Dir: dir}
}

// SaveJSON writes data to <kind>-<uuid>.json and returns the file name.
func (s *Snapshots) SaveJSON(kind string, data any) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.json", kind, uuid.New().String())

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.Dir, filename), jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return filename, nil
}
