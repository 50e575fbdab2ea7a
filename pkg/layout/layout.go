// Package layout describes where ethup keeps binaries, chain data, secrets and logs.
//
// A Layout is resolved once at the CLI edge and passed explicitly to everything
// that needs a path, so nothing below cmd/ reads the environment on its own.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the directory created under the user's home.
const DirName = ".ethup"

// Layout is the set of directories ethup manages under a single root.
type Layout struct {
	Root string
}

// New returns a layout rooted at root. Tests pass t.TempDir().
func New(root string) Layout {
	return Layout{Root: root}
}

// Default returns the layout rooted at ~/.ethup.
func Default() (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return New(filepath.Join(home, DirName)), nil
}

// BinDir holds installed node binaries.
func (l Layout) BinDir() string { return filepath.Join(l.Root, "bin") }

// DataDir holds one subdirectory per node and chain.
func (l Layout) DataDir() string { return filepath.Join(l.Root, "data") }

// SecretDir holds the shared JWT secret.
func (l Layout) SecretDir() string { return filepath.Join(l.Root, "secrets") }

// LogDir holds ethup's own files (run journal).
func (l Layout) LogDir() string { return filepath.Join(l.Root, "logs") }

// TmpDir holds partial downloads.
func (l Layout) TmpDir() string { return filepath.Join(l.Root, "tmp") }

// JournalFile is the bbolt run history.
func (l Layout) JournalFile() string { return filepath.Join(l.LogDir(), "journal.db") }

// ConfigFile is the optional viper config file.
func (l Layout) ConfigFile() string { return filepath.Join(l.Root, "config.yaml") }

// Ensure creates every managed directory.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.BinDir(), l.DataDir(), l.SecretDir(), l.LogDir(), l.TmpDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
