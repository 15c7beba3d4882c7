package prefs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch emits the reloaded preferences every time prefs.json changes. The
// channel closes when ctx is done or the watcher fails. Unreadable versions
// of the file are skipped.
func (s *Store) Watch(ctx context.Context) (<-chan Prefs, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating prefs watcher: %w", err)
	}

	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching prefs dir: %w", err)
	}

	out := make(chan Prefs, 1)
	path := filepath.Clean(s.Path())

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				p, err := s.Load()
				if err != nil {
					continue
				}

				select {
				case out <- p:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}
