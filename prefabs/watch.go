package prefabs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind says what has to be reloaded after a file changes.
type ChangeKind int

const (
	// ChangeSpec is a tuning, template or item file.
	ChangeSpec ChangeKind = iota
	// ChangeScript is a cutscene script.
	ChangeScript
	// ChangeMap is a level file.
	ChangeMap
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSpec:
		return "spec"
	case ChangeScript:
		return "script"
	case ChangeMap:
		return "map"
	}
	return "unknown"
}

// Change is one settled file edit.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher reports prefab, script and level edits. Bursts of events for the
// same file are folded into one Change once the file has been quiet for
// Settle.
type Watcher struct {
	Changes chan Change
	Errors  chan error
	Settle  time.Duration

	fs      *fsnotify.Watcher
	closeCh chan struct{}
	once    sync.Once
}

const defaultSettle = 100 * time.Millisecond

func NewWatcher(dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		Changes: make(chan Change, 16),
		Errors:  make(chan error, 1),
		Settle:  defaultSettle,
		fs:      fw,
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Changes)
	defer close(w.Errors)

	pending := make(map[string]time.Time)
	tick := time.NewTicker(w.Settle / 2)
	defer tick.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if _, ok := Classify(event.Name); ok {
				pending[event.Name] = time.Now()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case now := <-tick.C:
			for _, c := range settled(pending, now, w.Settle) {
				select {
				case w.Changes <- c:
				case <-w.closeCh:
					return
				}
			}
		case <-w.closeCh:
			return
		}
	}
}

// settled removes and returns the pending paths untouched for at least quiet.
func settled(pending map[string]time.Time, now time.Time, quiet time.Duration) []Change {
	var out []Change
	for path, at := range pending {
		if now.Sub(at) < quiet {
			continue
		}
		delete(pending, path)
		if kind, ok := Classify(path); ok {
			out = append(out, Change{Path: path, Kind: kind})
		}
	}
	return out
}

// Classify maps a changed path to the reload it needs.
func Classify(path string) (ChangeKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	dir := filepath.Base(filepath.Dir(path))
	switch {
	case ext == ".tengo":
		return ChangeScript, true
	case ext != ".yaml" && ext != ".yml":
		return 0, false
	case dir == "levels":
		return ChangeMap, true
	default:
		return ChangeSpec, true
	}
}
