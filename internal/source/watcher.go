package source

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cwarden/gridcal/internal/log"
)

const debounceDelay = 100 * time.Millisecond

// FileWatcher reports changes to individual files. It watches the parent
// directories so that files replaced by rename keep being tracked.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]int
	onChange func(string)
	mu       sync.Mutex
	timers   map[string]*time.Timer
	done     chan struct{}
	once     sync.Once
}

func NewFileWatcher(onChange func(string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		onChange: onChange,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}

	go fw.watch()
	return fw, nil
}

func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.files[absPath] {
		return nil
	}

	dir := filepath.Dir(absPath)
	if fw.dirs[dir] == 0 {
		if err := fw.watcher.Add(dir); err != nil {
			return err
		}
	}
	fw.dirs[dir]++
	fw.files[absPath] = true
	return nil
}

func (fw *FileWatcher) RemoveFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.files[absPath] {
		return nil
	}
	delete(fw.files, absPath)

	dir := filepath.Dir(absPath)
	fw.dirs[dir]--
	if fw.dirs[dir] <= 0 {
		delete(fw.dirs, dir)
		return fw.watcher.Remove(dir)
	}
	return nil
}

func (fw *FileWatcher) watch() {
	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.schedule(filepath.Clean(ev.Name))

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("file watcher error", err)

		case <-fw.done:
			return
		}
	}
}

// schedule debounces bursts of events on the same file.
func (fw *FileWatcher) schedule(name string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.files[name] {
		return
	}
	if timer, exists := fw.timers[name]; exists {
		timer.Stop()
	}
	fw.timers[name] = time.AfterFunc(debounceDelay, func() {
		fw.mu.Lock()
		delete(fw.timers, name)
		watching := fw.files[name]
		fw.mu.Unlock()

		select {
		case <-fw.done:
			return
		default:
		}
		if watching && fw.onChange != nil {
			fw.onChange(name)
		}
	})
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		fw.mu.Lock()
		for _, timer := range fw.timers {
			timer.Stop()
		}
		fw.mu.Unlock()
		err = fw.watcher.Close()
	})
	return err
}

// fileWatch turns FileWatcher callbacks into a FileChangeEvent channel for
// a Source.
type fileWatch struct {
	mu      sync.Mutex
	watcher *FileWatcher
	ch      chan FileChangeEvent
}

func (w *fileWatch) start(files []string) (<-chan FileChangeEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ch != nil {
		return w.ch, nil
	}

	ch := make(chan FileChangeEvent, 10)
	watcher, err := NewFileWatcher(func(path string) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.ch == nil {
			return
		}
		select {
		case w.ch <- FileChangeEvent{Path: path, Timestamp: time.Now()}:
		default:
			// Channel full, a reload is already pending
		}
	})
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if err := watcher.AddFile(file); err != nil {
			log.Error("cannot watch file", err, "path", file)
		}
	}

	w.watcher = watcher
	w.ch = ch
	return ch, nil
}

func (w *fileWatch) stop() error {
	w.mu.Lock()
	watcher := w.watcher
	if w.ch != nil {
		close(w.ch)
	}
	w.watcher = nil
	w.ch = nil
	w.mu.Unlock()

	if watcher != nil {
		return watcher.Close()
	}
	return nil
}
