package assets

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

const sampleRate = 44100

//go:embed *
var assetsFS embed.FS

var (
	audioOnce    sync.Once
	audioContext *audio.Context
)

// AudioContext returns the shared audio context, creating it on first use.
func AudioContext() *audio.Context {
	audioOnce.Do(func() {
		audioContext = audio.CurrentContext()
		if audioContext == nil {
			audioContext = audio.NewContext(sampleRate)
		}
	})
	return audioContext
}

// LoadFile loads an embedded asset by assets-relative path.
func LoadFile(path string) ([]byte, error) {
	return assetsFS.ReadFile(cleanAssetPath(path))
}

// LoadAudioPlayer decodes an embedded .wav or .ogg asset into a player.
func LoadAudioPlayer(path string) (*audio.Player, error) {
	b, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	ctx := AudioContext()
	var stream io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(ctx.SampleRate(), bytes.NewReader(b))
	case ".ogg":
		stream, err = vorbis.DecodeWithSampleRate(ctx.SampleRate(), bytes.NewReader(b))
	default:
		return ctx.NewPlayerFromBytes(b), nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return ctx.NewPlayer(stream)
}

// ThemePath finds the track file for a theme name, trying .ogg then .wav.
func ThemePath(name string) (string, error) {
	base := "themes/" + strings.ReplaceAll(strings.ToLower(name), " ", "_")
	for _, ext := range []string{".ogg", ".wav"} {
		if _, err := assetsFS.Open(base + ext); err == nil {
			return base + ext, nil
		}
	}
	return "", fmt.Errorf("no track for theme %q", name)
}

func cleanAssetPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if filepath.IsAbs(path) {
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(path)
	}
	return strings.TrimPrefix(s, "assets/")
}
