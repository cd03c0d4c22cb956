package coral

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// GrammarWatcher watches grammar directories for the coral shared library
// being installed or replaced, so a host can invalidate its loader and pick
// up a rebuilt grammar without restarting.
type GrammarWatcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// WatchGrammars starts watching the given directories. onChange is called
// with the library path whenever the grammar shared library appears or is
// rewritten. Directories that don't exist yet are skipped; at least one
// must be watchable.
func WatchGrammars(paths []string, onChange func(libPath string)) (*GrammarWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	added := 0
	for _, dir := range paths {
		if err := fw.Add(dir); err == nil {
			added++
		}
	}
	if added == 0 {
		fw.Close()
		return nil, fmt.Errorf("coral grammar watch: no watchable directories in %v", paths)
	}

	w := &GrammarWatcher{
		fw:   fw,
		done: make(chan struct{}),
	}
	go w.run(onChange)
	return w, nil
}

func (w *GrammarWatcher) run(onChange func(string)) {
	// Debounce: grammar rebuilds often write the library in several bursts.
	var last time.Time
	const debounceInterval = 50 * time.Millisecond

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != LibName() {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			now := time.Now()
			if now.Sub(last) < debounceInterval {
				continue
			}
			last = now
			onChange(event.Name)

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Errors are swallowed — fsnotify recovers automatically

		case <-w.done:
			return
		}
	}
}

// Stop ends monitoring and releases all resources. Safe to call multiple times.
func (w *GrammarWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}
