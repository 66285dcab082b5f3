package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/vrpose/vrpose/logging"
)

// Watch reloads settings whenever their file is changed by someone else, until ctx is done. The
// directory is watched rather than the file because saves replace the file.
func Watch(ctx context.Context, settings *Settings, logger logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create settings watcher")
	}
	defer utils.UncheckedErrorFunc(watcher.Close)

	path := filepath.Clean(settings.Path())
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}
	logger.Debugw("watching settings file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := settings.Reload(); err != nil {
				logger.Warnw("failed to reload settings", "path", path, "error", err)
				continue
			}
			logger.Debugw("reloaded settings", "path", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorw("settings watcher error", "error", err)
		}
	}
}
