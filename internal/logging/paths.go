package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.docdex/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docdex", "logs")
	}
	return filepath.Join(home, ".docdex", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// EnsureLogDir creates the log directory if it does not exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
