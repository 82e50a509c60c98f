// Package dotdir manages the .companion/ and ~/.companion directories.
//
// The directory holds config.toml, the chat client's session state and, when
// logging.file is relative, the serve log.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const dirName = ".companion"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the companion directory, creating it
// when missing. Precedence: overrideDir, then ./.companion, then
// ~/.companion.
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.locate(overrideDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating companion directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// Path resolves name inside the companion directory. Absolute names are
// returned as is.
func (m *Manager) Path(overrideDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (m *Manager) locate(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	local := filepath.Join(cwd, dirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
