package support

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic copies data into a temp file next to destPath and renames
// it into place, so readers see either the old or the new file.
func WriteFileAtomic(destPath string, data io.Reader, perm os.FileMode) (int64, error) {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(destPath)+"-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmpFile.Name())
	}()

	written, err := io.Copy(tmpFile, data)
	if err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("copy data: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Chmod(perm); err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), destPath); err != nil {
		return 0, fmt.Errorf("replace file: %w", err)
	}

	return written, nil
}
