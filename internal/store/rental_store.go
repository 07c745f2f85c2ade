package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/funhour/posd/internal/domain"
)

// FileRentalStore keeps the active-rental list in a single JSON file on the
// terminal's disk. It is the only durable local state the service owns; the
// backend never sees it. One process per state file is assumed: a second
// writer races last-write-wins, same as the original single-terminal model.
type FileRentalStore struct {
	path string
}

func NewFileRentalStore(path string) (*FileRentalStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return &FileRentalStore{path: path}, nil
}

// Load reads the slot. A missing file, non-JSON bytes, or JSON that is not an
// array all yield an empty list and no error: garbage in the slot must never
// take the terminal down. Only real I/O failures are returned.
func (s *FileRentalStore) Load() ([]domain.Rental, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var rentals []domain.Rental
	if err := json.Unmarshal(data, &rentals); err != nil {
		return nil, nil
	}
	return rentals, nil
}

// Save replaces the slot with the given list. A nil list is written as [].
func (s *FileRentalStore) Save(rentals []domain.Rental) error {
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	data, err := json.Marshal(rentals)
	if err != nil {
		return fmt.Errorf("failed to encode rentals: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
