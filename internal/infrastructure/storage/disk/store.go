// Package disk persists curated datasets, mapping lists and blueprint
// libraries as JSON files under a single data directory.
package disk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Store reads and writes files inside one data directory. File names are
// plain base names; path traversal outside the directory is rejected.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore creates the data directory if needed and returns a store over it.
func NewStore(dir string, logger logging.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "data directory must not be empty")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDiskError, "cannot create data directory").WithDetail(dir)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves a file name inside the data directory.
func (s *Store) Path(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New(errors.ErrCodeInvalidParam, "file name must not be empty")
	}
	if name != filepath.Base(name) {
		return "", errors.New(errors.ErrCodeInvalidParam, "file name must not contain path separators").WithDetail(name)
	}
	return filepath.Join(s.dir, name), nil
}

// SaveJSON marshals v with indentation and writes it to name, replacing any
// existing file.
func (s *Store) SaveJSON(name string, v interface{}) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot serialize data").WithDetail(name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeDiskError, "cannot write file").WithDetail(path)
	}
	s.logger.Debug("file written",
		logging.String("path", path),
		logging.Int("bytes", len(data)))
	return nil
}

// LoadJSON reads name and unmarshals its contents into v. A missing file
// reports CodeNotFound so callers can distinguish it from corruption.
func (s *Store) LoadJSON(name string, v interface{}) error {
	data, err := s.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "file does not contain valid JSON").WithDetail(name)
	}
	return nil
}

// ReadFile returns the raw contents of name.
func (s *Store) ReadFile(name string) ([]byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDiskError, "cannot read file").WithDetail(path)
	}
	return data, nil
}

// Exists reports whether name is present in the data directory.
func (s *Store) Exists(name string) (bool, error) {
	path, err := s.Path(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeDiskError, "cannot stat file").WithDetail(path)
	}
	return true, nil
}
