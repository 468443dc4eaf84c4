// Package source resolves user-supplied paths and feeds file contents to the
// activity parser and registry loader, naming the file in every failure.
package source

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goodtune/svcint/internal/activity"
	"github.com/goodtune/svcint/internal/faults"
	"github.com/goodtune/svcint/internal/registry"
	"github.com/mitchellh/go-homedir"
)

// Resolve expands a leading ~ and makes path absolute.
func Resolve(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", faults.IO(path, fmt.Errorf("expand path: %w", err))
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", faults.IO(path, fmt.Errorf("resolve path: %w", err))
	}
	return abs, nil
}

// ReadFile resolves and reads path, returning the resolved path with the data.
func ReadFile(path string) ([]byte, string, error) {
	resolved, err := Resolve(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, resolved, faults.IO(resolved, err)
	}
	return data, resolved, nil
}

// Activities is a parsed activity export and the rows that were skipped.
type Activities struct {
	Path    string
	Log     *activity.Log
	Skipped []*faults.Error
}

// ParseActivities decodes export data read from path.
func ParseActivities(path string, data []byte, policy activity.Policy) (*Activities, error) {
	log, rowErrs, err := activity.Parse(bytes.NewReader(data), policy)
	if err != nil {
		return nil, faults.WithResource(err, path)
	}
	for i, rowErr := range rowErrs {
		rowErrs[i] = faults.WithResource(rowErr, path).(*faults.Error)
	}
	return &Activities{Path: path, Log: log, Skipped: rowErrs}, nil
}

// LoadActivities reads and parses the activity export at path.
func LoadActivities(path string, policy activity.Policy) (*Activities, error) {
	data, resolved, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseActivities(resolved, data, policy)
}

// ParseRegistry decodes registry data read from path.
func ParseRegistry(path string, data []byte) (*registry.Registry, error) {
	reg, err := registry.Load(bytes.NewReader(data))
	if err != nil {
		return nil, faults.WithResource(err, path)
	}
	return reg, nil
}

// LoadRegistry reads and decodes the registry at path.
func LoadRegistry(path string) (*registry.Registry, error) {
	data, resolved, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(resolved, data)
}

// WriteRegistry replaces the registry at path. The document is written to a
// temporary file in the same directory and renamed over the original, keeping
// the original's permissions.
func WriteRegistry(path string, reg registry.Reader) error {
	resolved, err := Resolve(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := registry.Encode(&buf, reg); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(resolved), ".registry-*.json")
	if err != nil {
		return faults.IO(resolved, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(resolved); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return faults.IO(tmp.Name(), err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return faults.IO(tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return faults.IO(tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return faults.IO(resolved, err)
	}
	return nil
}
