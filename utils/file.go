package utils

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// RemoveFileNoError will remove the file at the given path if it exists. Any
// errors will be suppressed.
func RemoveFileNoError(path string) {
	utils.UncheckedErrorFunc(func() error {
		if _, err := os.Stat(path); err == nil {
			return os.Remove(path)
		}
		return nil
	})
}

// AtomicWriteFile writes data next to path and renames it into place, so readers see either the
// old contents or the new ones.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temporary file")
	}
	defer RemoveFileNoError(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		utils.UncheckedError(tmp.Close())
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Chmod(perm); err != nil {
		utils.UncheckedError(tmp.Close())
		return errors.Wrapf(err, "setting permissions on %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "replacing %s", path)
}
