package config

import (
	"io/fs"
	"os"
	"time"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"github.com/vrpose/vrpose/logging"
)

// corruptedTimeFormat stamps the name a corrupted settings file is moved to.
const corruptedTimeFormat = "20060102-150405"

// Read reads the settings from the given file, expanding environment variables. A missing file
// is created with the defaults. A file that cannot be decoded is moved aside to
// <path>.corrupted.<timestamp>.txt and replaced with the defaults.
func Read(filePath string, logger logging.Logger) (*Settings, error) {
	s := NewSettings(filePath, logger)

	buf, err := envsubst.ReadFile(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Infow("no settings file, writing defaults", "path", filePath)
		if err := s.Save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, errors.Wrapf(err, "failed to read settings from %s", filePath)
	default:
		if err := s.load(buf); err != nil {
			if err := quarantine(filePath, time.Now(), err, logger); err != nil {
				return nil, err
			}
			s.Reset()
			if err := s.Save(); err != nil {
				return nil, err
			}
		}
	}

	if err := s.applyLogging(); err != nil {
		logger.Warnw("failed to apply logger patterns from settings", "error", err)
	}
	s.Debug.OnChanged(UpdateFileConfigDebug)
	return s, nil
}

// Reload reads the settings file again and applies the values through their setters, so
// observers see every change. It does not save. A file that cannot be decoded changes nothing.
func (s *Settings) Reload() error {
	buf, err := envsubst.ReadFile(s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to read settings from %s", s.path)
	}
	if err := s.load(buf); err != nil {
		return err
	}
	return logging.UpdateLoggerPatterns(s.LogPatterns(), s.logger)
}

func corruptedPath(filePath string, now time.Time) string {
	return filePath + ".corrupted." + now.Format(corruptedTimeFormat) + ".txt"
}

func quarantine(filePath string, now time.Time, cause error, logger logging.Logger) error {
	dest := corruptedPath(filePath, now)
	logger.Errorw("settings file is corrupted, restoring defaults",
		"path", filePath, "moved_to", dest, "error", cause)
	return errors.Wrapf(os.Rename(filePath, dest), "failed to move corrupted settings to %s", dest)
}
