package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/LegacyCodeHQ/workgraph/vcs/git"
	"github.com/LegacyCodeHQ/workgraph/workspace"
	"github.com/fsnotify/fsnotify"
)

const gitStatePollInterval = 500 * time.Millisecond

// watchWorkspace calls invalidate whenever a file under root changes or the
// git state (HEAD, index) moves. It returns when ctx is done.
func watchWorkspace(ctx context.Context, root string, invalidate func(), logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return fmt.Errorf("failed to watch directories: %w", err)
	}

	isRepo := git.IsWorkTree(ctx, root)
	var lastGitStateSig string
	if isRepo {
		lastGitStateSig, err = git.GetRepositoryStateSignature(ctx, root)
		if err != nil {
			logger.Warn("git state read failed", slog.Any("error", err))
		}
	}
	gitStateTicker := time.NewTicker(gitStatePollInterval)
	defer gitStateTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevantChange(event) {
				continue
			}
			invalidate()
			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", slog.Any("error", err))

		case <-gitStateTicker.C:
			if !isRepo {
				continue
			}
			stateSig, err := git.GetRepositoryStateSignature(ctx, root)
			if err != nil {
				logger.Warn("git state read failed", slog.Any("error", err))
				continue
			}
			if stateSig == lastGitStateSig {
				continue
			}
			lastGitStateSig = stateSig
			invalidate()
		}
	}
}

func isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	// Skipped directories are never watched, so only their creation shows up.
	return !workspace.SkippedDirs[filepath.Base(event.Name)]
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && workspace.SkippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() && !workspace.SkippedDirs[filepath.Base(path)] {
		_ = addWatchDirs(watcher, path)
	}
}
