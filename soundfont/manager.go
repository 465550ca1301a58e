// Package soundfont discovers .sf2 files on disk and merges them with the
// built-in virtual presets into one selectable instrument list.
package soundfont

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/janvanwassenhove/mITyGuitar/synth"
)

// ErrAlreadyWatching is returned by Watch when a watcher is active.
var ErrAlreadyWatching = errors.New("soundfont watcher already running")

// watchDebounce collapses bursts of file events into one re-scan.
const watchDebounce = 300 * time.Millisecond

// InstrumentType distinguishes disk soundfonts from built-in presets.
type InstrumentType string

const (
	TypeSoundFont InstrumentType = "soundfont"
	TypeVirtual   InstrumentType = "virtual"
)

// SoundFontInfo describes one .sf2 file found on disk.
type SoundFontInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}

// InstrumentInfo describes one selectable instrument: a .sf2 file on disk or
// a built-in virtual preset.
type InstrumentInfo struct {
	Name      string         `json:"name"`
	Path      string         `json:"path,omitempty"`      // empty for virtual presets
	SizeBytes int64          `json:"sizeBytes,omitempty"` // zero for virtual presets
	Type      InstrumentType `json:"type"`
}

// SynthInstrument resolves a virtual preset entry to its synth instrument.
func (i InstrumentInfo) SynthInstrument() (synth.Instrument, bool) {
	if i.Type != TypeVirtual {
		return 0, false
	}
	inst, err := synth.ParseInstrument(i.Name)
	if err != nil {
		return 0, false
	}
	return inst, true
}

// Manager scans directories for .sf2 files and keeps the merged instrument
// list current. The accessors are safe to call while a watcher re-scans in
// the background.
type Manager struct {
	dir            string
	additionalDirs []string

	mu          sync.Mutex
	soundfonts  []SoundFontInfo
	instruments []InstrumentInfo

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewManager scans the given directories once and returns the manager.
// Directories that do not exist are skipped, so a fresh install with no
// soundfont folder still gets the virtual presets.
func NewManager(dir string, additionalDirs ...string) (*Manager, error) {
	m := &Manager{dir: dir, additionalDirs: additionalDirs}
	if err := m.Scan(); err != nil {
		return nil, err
	}
	return m, nil
}

// Scan rebuilds the soundfont and instrument lists from disk. Missing
// directories are skipped with a warning; an unreadable one is an error.
func (m *Manager) Scan() error {
	var fonts []SoundFontInfo
	for _, dir := range m.dirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Warn("soundfont directory does not exist", "dir", dir)
				continue
			}
			return fmt.Errorf("read soundfont directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".sf2") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			fonts = append(fonts, SoundFontInfo{
				Name:      strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
				Path:      filepath.Join(dir, entry.Name()),
				SizeBytes: info.Size(),
			})
		}
	}

	// Soundfonts first, virtual presets after, so a guitar soundfont wins
	// the default-guitar pick over the built-in one.
	instruments := lo.Map(fonts, func(f SoundFontInfo, _ int) InstrumentInfo {
		return InstrumentInfo{Name: f.Name, Path: f.Path, SizeBytes: f.SizeBytes, Type: TypeSoundFont}
	})
	for _, inst := range synth.Instruments() {
		instruments = append(instruments, InstrumentInfo{Name: inst.String(), Type: TypeVirtual})
	}

	m.mu.Lock()
	m.soundfonts = fonts
	m.instruments = instruments
	m.mu.Unlock()

	slog.Debug("soundfont scan complete", "fonts", len(fonts), "instruments", len(instruments))
	return nil
}

func (m *Manager) dirs() []string {
	dirs := make([]string, 0, 1+len(m.additionalDirs))
	if m.dir != "" {
		dirs = append(dirs, m.dir)
	}
	return append(dirs, m.additionalDirs...)
}

// SoundFonts lists the .sf2 files found by the last scan.
func (m *Manager) SoundFonts() []SoundFontInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.soundfonts)
}

// Instruments lists every selectable instrument: scanned soundfonts followed
// by the built-in virtual presets.
func (m *Manager) Instruments() []InstrumentInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.instruments)
}

// GetByName finds a scanned soundfont by exact name.
func (m *Manager) GetByName(name string) (SoundFontInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Find(m.soundfonts, func(sf SoundFontInfo) bool { return sf.Name == name })
}

// GetInstrumentByName finds any instrument, soundfont or virtual, by exact
// name.
func (m *Manager) GetInstrumentByName(name string) (InstrumentInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Find(m.instruments, func(i InstrumentInfo) bool { return i.Name == name })
}

// DefaultGuitar picks the first soundfont whose name contains "guitar"
// (case-insensitive), else the first soundfont.
func (m *Manager) DefaultGuitar() (SoundFontInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sf, ok := lo.Find(m.soundfonts, func(sf SoundFontInfo) bool {
		return strings.Contains(strings.ToLower(sf.Name), "guitar")
	}); ok {
		return sf, true
	}
	if len(m.soundfonts) > 0 {
		return m.soundfonts[0], true
	}
	return SoundFontInfo{}, false
}

// DefaultGuitarInstrument applies the default-guitar policy to the merged
// list, so it always resolves: the virtual presets include a guitar.
func (m *Manager) DefaultGuitarInstrument() (InstrumentInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := lo.Find(m.instruments, func(i InstrumentInfo) bool {
		return strings.Contains(strings.ToLower(i.Name), "guitar")
	}); ok {
		return inst, true
	}
	if len(m.instruments) > 0 {
		return m.instruments[0], true
	}
	return InstrumentInfo{}, false
}

// Watch re-scans whenever a watched directory changes, debounced so a burst
// of file operations collapses into one scan. onScan, if non-nil, runs after
// each re-scan. Stop ends the watch.
func (m *Manager) Watch(onScan func()) error {
	if m.watcher != nil {
		return ErrAlreadyWatching
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create soundfont watcher: %w", err)
	}
	watched := 0
	for _, dir := range m.dirs() {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("cannot watch soundfont directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		return fmt.Errorf("no soundfont directory available to watch")
	}

	m.watcher = watcher
	m.done = make(chan struct{})
	rescan := debounce.New(watchDebounce)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".sf2") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				rescan(func() {
					if err := m.Scan(); err != nil {
						slog.Warn("soundfont re-scan failed", "error", err)
						return
					}
					if onScan != nil {
						onScan()
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("soundfont watcher error", "error", err)
			case <-m.done:
				return
			}
		}
	}()
	return nil
}

// Stop ends an active watch. Safe to call when no watch is running.
func (m *Manager) Stop() {
	if m.watcher == nil {
		return
	}
	close(m.done)
	m.watcher.Close()
	m.watcher = nil
}
