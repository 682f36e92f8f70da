package system

import (
	"fmt"
	"strings"

	"github.com/milk9111/overworld/ecs"
	"github.com/sirupsen/logrus"
)

const (
	defaultMusicVolume     = 1.0
	defaultMusicFadeFrames = 30
)

// Track is a loaded, rewindable piece of music.
type Track interface {
	Play()
	Pause()
	Rewind() error
	SetVolume(volume float64)
	IsPlaying() bool
}

// TrackLoader opens the track for a theme name.
type TrackLoader func(name string) (Track, error)

// ThemePlayer plays the area theme, fading the old one out over a number of
// frames before the new one starts.
type ThemePlayer struct {
	load TrackLoader
	log  logrus.FieldLogger

	tracks  map[string]Track
	current string
	volume  float64
	muted   bool

	pending    string
	hasPending bool
	fadeStep   float64
}

func NewThemePlayer(load TrackLoader, log logrus.FieldLogger) *ThemePlayer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ThemePlayer{load: load, log: log, tracks: make(map[string]Track)}
}

// ThemeName returns the theme playing or fading in.
func (m *ThemePlayer) ThemeName() string {
	if m.hasPending {
		return m.pending
	}
	return m.current
}

// PlayTheme switches to name. Asking for the theme already playing keeps it
// going. A theme without a track plays as silence.
func (m *ThemePlayer) PlayTheme(name string) error {
	name = strings.TrimSpace(name)
	if name == m.ThemeName() {
		return nil
	}
	if name != "" {
		if _, err := m.trackFor(name); err != nil {
			m.log.WithError(err).WithField("theme", name).Warn("theme has no track")
		}
	}

	m.pending = name
	m.hasPending = true
	if m.currentTrack() == nil {
		m.switchToPending()
		return nil
	}
	m.fadeStep = m.volume / defaultMusicFadeFrames
	if m.fadeStep <= 0 {
		m.fadeStep = 1
	}
	return nil
}

// ToggleMuted silences or restores the current theme.
func (m *ThemePlayer) ToggleMuted() {
	m.muted = !m.muted
	if t := m.currentTrack(); t != nil {
		t.SetVolume(m.effectiveVolume())
	}
	m.log.WithField("muted", m.muted).Debug("music muted toggled")
}

func (m *ThemePlayer) Muted() bool {
	return m.muted
}

func (m *ThemePlayer) effectiveVolume() float64 {
	if m.muted {
		return 0
	}
	return m.volume
}

// Update advances a pending fade and loops the current theme.
func (m *ThemePlayer) Update(_ *ecs.World) {
	if m.hasPending {
		m.updateTransition()
		return
	}

	if t := m.currentTrack(); t != nil && !t.IsPlaying() {
		if err := t.Rewind(); err != nil {
			m.log.WithError(err).WithField("theme", m.current).Warn("rewind theme")
			return
		}
		t.SetVolume(m.effectiveVolume())
		t.Play()
	}
}

func (m *ThemePlayer) updateTransition() {
	t := m.currentTrack()
	if t == nil {
		m.switchToPending()
		return
	}

	m.volume -= m.fadeStep
	if m.volume > 0 {
		t.SetVolume(m.effectiveVolume())
		return
	}

	m.volume = 0
	t.SetVolume(0)
	t.Pause()
	_ = t.Rewind()
	m.current = ""
	m.switchToPending()
}

func (m *ThemePlayer) switchToPending() {
	name := m.pending
	m.pending = ""
	m.hasPending = false
	m.fadeStep = 0

	if name == "" {
		m.current = ""
		m.volume = 0
		return
	}

	m.current = name
	t, ok := m.tracks[name]
	if !ok {
		return
	}

	m.volume = defaultMusicVolume
	_ = t.Rewind()
	t.SetVolume(m.effectiveVolume())
	t.Play()
}

func (m *ThemePlayer) currentTrack() Track {
	if t, ok := m.tracks[m.current]; ok {
		return t
	}
	return nil
}

func (m *ThemePlayer) trackFor(name string) (Track, error) {
	if t, ok := m.tracks[name]; ok {
		return t, nil
	}
	if m.load == nil {
		return nil, fmt.Errorf("no track loader")
	}
	t, err := m.load(name)
	if err != nil {
		return nil, err
	}
	if t != nil {
		m.tracks[name] = t
	}
	return t, nil
}
