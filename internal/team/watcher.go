package team

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/codecrew-ai/codecrew/internal/event"
	"github.com/codecrew-ai/codecrew/internal/logging"
)

// watchDebounce folds the burst of fsnotify events one file save produces
// into a single team.updated publication.
const watchDebounce = 200 * time.Millisecond

// Watcher publishes team.updated / team.deleted events when team records
// change on disk, so externally edited files show up without a restart.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	log     zerolog.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher watches the given teams directory, which must exist.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		watcher: fw,
		dir:     dir,
		log:     logging.WithComponent("teamwatch"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins delivering events. It is a no-op when already started.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

// Stop ends delivery and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			safeName := strings.TrimSuffix(filepath.Base(ev.Name), ".json")

			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if t := timers[safeName]; t != nil {
					t.Stop()
					delete(timers, safeName)
				}
				w.log.Debug().Str("team", safeName).Msg("team record removed")
				event.PublishSync(event.Event{
					Type: event.TeamDeleted,
					Data: event.TeamDeletedData{Name: safeName},
				})
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if t := timers[safeName]; t != nil {
					t.Reset(watchDebounce)
					continue
				}
				path := ev.Name
				timers[safeName] = time.AfterFunc(watchDebounce, func() {
					w.publishUpdate(safeName, path)
				})
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("team watcher error")
		}
	}
}

// publishUpdate announces a changed record under its display name when the
// file parses, or the safe name when it does not.
func (w *Watcher) publishUpdate(safeName, path string) {
	name := safeName
	if data, err := os.ReadFile(path); err == nil {
		var rec record
		if json.Unmarshal(data, &rec) == nil && rec.Name != "" {
			name = rec.Name
		}
	}

	w.log.Debug().Str("team", name).Msg("team record changed")
	event.PublishSync(event.Event{
		Type: event.TeamUpdated,
		Data: event.TeamUpdatedData{Name: name},
	})
}
