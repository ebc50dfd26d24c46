package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchLogPrefix = "bootstrap:watch"

const (
	reloadDebounce     = 250 * time.Millisecond
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// Watch re-reads path whenever it changes and calls onChange with each new
// config that parses. Writes are debounced and identical content is skipped.
// It blocks until ctx is done. A broken watcher is recreated with backoff.
func Watch(ctx context.Context, path string, onChange func(*ListenConfig)) error {
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	var (
		mu    sync.Mutex
		timer *time.Timer
		last  []byte
	)
	if data, err := os.ReadFile(path); err == nil {
		last = data
	}

	reload := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to read %s: %v", watchLogPrefix, path, err))
			return
		}
		mu.Lock()
		unchanged := bytes.Equal(data, last)
		if !unchanged {
			last = data
		}
		mu.Unlock()
		if unchanged {
			slog.Debug(fmt.Sprintf("%s - %s unchanged, skipping", watchLogPrefix, path))
			return
		}

		cfg, err := ParseListenConfig(path, data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Rejected %s: %v", watchLogPrefix, path, err))
			return
		}
		slog.Info(fmt.Sprintf("%s - Reloaded %d listen entries from %s", watchLogPrefix, len(cfg.Listen), path))
		onChange(cfg)
	}

	debounce := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, reload)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	backoff := restartBackoffBase
	for {
		if ctx.Err() != nil {
			return nil
		}

		w, err := fsnotify.NewWatcher()
		if err == nil {
			if err = w.Add(dir); err != nil {
				_ = w.Close()
			}
		}
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Watch init failed for %s: %v", watchLogPrefix, dir, err))
			if !sleepBackoff(ctx, &backoff) {
				return nil
			}
			continue
		}

		backoff = restartBackoffBase
		slog.Debug(fmt.Sprintf("%s - Watching %s", watchLogPrefix, path))

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if strings.EqualFold(filepath.Base(ev.Name), file) &&
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				slog.Warn(fmt.Sprintf("%s - Watch error: %v", watchLogPrefix, err))
				// Missed events: reload once and keep going.
				if strings.Contains(strings.ToLower(err.Error()), "overflow") {
					debounce()
				}
			}
		}

		_ = w.Close()
		slog.Warn(fmt.Sprintf("%s - Watcher for %s stopped, restarting", watchLogPrefix, path))
		if !sleepBackoff(ctx, &backoff) {
			return nil
		}
	}
}

// sleepBackoff waits for the current backoff and doubles it. It returns false
// if ctx ended first.
func sleepBackoff(ctx context.Context, backoff *time.Duration) bool {
	wait := *backoff
	*backoff *= 2
	if *backoff > restartBackoffMax {
		*backoff = restartBackoffMax
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(wait):
		return true
	}
}
