package catalog

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/strength/internal/apperr"
)

const debounce = 200 * time.Millisecond

func isInvalid(err error) bool {
	return errors.Is(err, apperr.ErrInvalid)
}

// Watch re-imports the catalog file whenever it changes on disk until ctx is
// cancelled. The parent directory is watched rather than the file itself so
// editors that save by rename keep being tracked. Bursts of events are
// debounced and content whose checksum matches the last import is skipped.
//
// lastSum is the checksum of the content already imported, if any.
func Watch(ctx context.Context, imp Importer, path, lastSum string, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("catalog watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-fire:
			sum, res, err := reload(ctx, imp, abs, lastSum, logger)
			if err != nil {
				logger.Warn("catalog watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if sum != lastSum {
				lastSum = sum
				logger.Debug("catalog watcher: reloaded",
					slog.Int("created", res.Created), slog.Int("existing", res.Existing))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reload imports the file only when its content differs from lastSum.
func reload(ctx context.Context, imp Importer, path, lastSum string, logger *slog.Logger) (string, Result, error) {
	data, err := readIfExists(path)
	if err != nil || data == nil {
		return lastSum, Result{}, err
	}
	sum := checksum(data)
	if sum == lastSum {
		return lastSum, Result{}, nil
	}
	cards, err := Parse(data)
	if err != nil {
		return lastSum, Result{}, err
	}
	res, err := Import(ctx, imp, cards, logger)
	if err != nil {
		return lastSum, res, err
	}
	return sum, res, nil
}
