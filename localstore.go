package tuition

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// currentFile is the versioned file name of the local account book.
const currentFile = "tuition_accounts_v2.json"

// legacyFiles are prior schema versions, probed newest-to-oldest when the
// current file does not exist yet. The first one holding any record is
// adopted; legacy files are never modified or deleted.
var legacyFiles = []string{
	"tuition_accounts_v1.json",
	"tuition_accounts.json",
}

// LocalStore is the durable on-device copy of the account book: a single
// JSON file under a data directory. The device keeps working from this
// copy when no network is available.
type LocalStore struct {
	dir string
}

// NewLocalStore returns a store rooted at dir. The directory is created
// on the first save.
func NewLocalStore(dir string) *LocalStore { return &LocalStore{dir: dir} }

// Path returns the location of the current account book file.
func (s *LocalStore) Path() string { return filepath.Join(s.dir, currentFile) }

// Load reads the local account book.
//
// When the current file is absent it scans the legacy files in order and
// adopts the first payload that contains at least one record, normalizes
// it, stamps its clock if it never had one, and persists it under the
// current name (a one-time migration). With no data anywhere it returns
// an empty book whose clock is at the epoch, so any real remote replica
// wins a comparison against it.
func (s *LocalStore) Load() (*Accounts, error) {
	a, err := s.read(currentFile)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	for _, name := range legacyFiles {
		legacy, err := s.read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !legacy.HasData() {
			continue
		}
		if legacy.Meta.UpdatedAt == 0 {
			legacy.Touch(time.Now())
		}
		if err := s.Save(legacy); err != nil {
			return nil, fmt.Errorf("cannot migrate %s: %w", name, err)
		}
		return legacy, nil
	}

	return NewAccounts(), nil
}

// Save writes the account book under the current file name.
func (s *LocalStore) Save(a *Accounts) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("cannot create data directory %q: %w", s.dir, err)
	}
	f, err := os.Create(s.Path())
	if err != nil {
		return fmt.Errorf("cannot open account book %q for writing: %w", s.Path(), err)
	}
	defer f.Close()
	return EncodeAccounts(f, a)
}

// read opens and decodes one account book file. The error wraps
// fs.ErrNotExist when the file does not exist.
func (s *LocalStore) read(name string) (*Accounts, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open account book %q: %w", path, err)
	}
	defer f.Close()

	a, err := DecodeAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode account book %q: %w", path, err)
	}
	return a, nil
}
