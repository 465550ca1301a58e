// Package config persists application settings as JSON in the user config
// directory. Missing files and missing fields fall back to defaults, so a
// fresh install needs no setup step.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/janvanwassenhove/mITyGuitar/controller"
	"github.com/janvanwassenhove/mITyGuitar/mapping"
)

const (
	configVersion = 1
	dirName       = "mityguitar"
	fileName      = "config.json"

	maxRecentSoundFonts = 10
)

// Config is the persisted application configuration.
type Config struct {
	Version    int              `json:"version"`
	Controller ControllerConfig `json:"controller"`
	Audio      AudioConfig      `json:"audio"`
	SoundFonts SoundFontConfig  `json:"soundfonts"`
	Mapping    MappingConfig    `json:"mapping"`
}

// ControllerConfig selects the input source and its button/axis layout.
type ControllerConfig struct {
	Simulator bool                `json:"simulator"`
	Bindings  controller.Bindings `json:"bindings"`
}

// AudioConfig holds the output format and the sustain/release knobs.
type AudioConfig struct {
	SampleRate            int     `json:"sampleRate"`
	BufferSize            int     `json:"bufferSize"`
	ReleaseTimeMultiplier float64 `json:"releaseTimeMultiplier"`
	SustainEnabled        bool    `json:"sustainEnabled"`
	SustainReleaseTimeMs  float64 `json:"sustainReleaseTimeMs"`
}

// SoundFontConfig points at the .sf2 directory and remembers recent picks.
type SoundFontConfig struct {
	Dir     string   `json:"dir,omitempty"`
	Current string   `json:"current,omitempty"`
	Recent  []string `json:"recent,omitempty"`
}

// MappingConfig selects the harmonic context for live play. Empty keyRoot or
// mode defer to the genre's defaults.
type MappingConfig struct {
	Genre        string `json:"genre"`
	KeyRoot      string `json:"keyRoot,omitempty"`
	Mode         string `json:"mode,omitempty"`
	PatternIndex int    `json:"patternIndex"`
}

// Default returns the configuration a fresh install runs with.
func Default() Config {
	return Config{
		Version: configVersion,
		Controller: ControllerConfig{
			Bindings: controller.DefaultBindings(),
		},
		Audio: AudioConfig{
			SampleRate:            48000,
			BufferSize:            256,
			ReleaseTimeMultiplier: 1.0,
			SustainEnabled:        false,
			SustainReleaseTimeMs:  500,
		},
		Mapping: MappingConfig{
			Genre: "rock",
		},
	}
}

// Path returns the config file location under the user config directory.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load reads the config file, or returns defaults when none exists yet.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file from an explicit path. Fields the file omits
// keep their defaults; older versions are migrated in place.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Version < configVersion {
		cfg.Version = configVersion
	}
	return cfg, nil
}

// Save writes the config to its default location.
func (c Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path via a temp file and rename, so a crash
// mid-write never leaves a truncated config behind.
func (c Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// AddRecentSoundFont moves path to the front of the recent list, dropping
// duplicates and anything beyond the newest ten.
func (c *Config) AddRecentSoundFont(path string) {
	recent := append([]string{path}, lo.Without(c.SoundFonts.Recent, path)...)
	if len(recent) > maxRecentSoundFonts {
		recent = recent[:maxRecentSoundFonts]
	}
	c.SoundFonts.Recent = recent
}

// SoundFontDir returns the configured soundfont directory, defaulting to
// "soundfonts" next to the config file.
func (c Config) SoundFontDir() (string, error) {
	if c.SoundFonts.Dir != "" {
		return c.SoundFonts.Dir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, dirName, "soundfonts"), nil
}

// Genre parses the configured genre name.
func (c Config) Genre() (mapping.Genre, error) {
	g, err := mapping.ParseGenre(c.Mapping.Genre)
	if err != nil {
		return 0, fmt.Errorf("config genre: %w", err)
	}
	return g, nil
}

// KeyRoot parses the configured key root. ok is false when the config
// defers to the genre default.
func (c Config) KeyRoot() (mapping.Note, bool, error) {
	if c.Mapping.KeyRoot == "" {
		return 0, false, nil
	}
	n, err := mapping.ParseNote(c.Mapping.KeyRoot)
	if err != nil {
		return 0, false, fmt.Errorf("config keyRoot: %w", err)
	}
	return n, true, nil
}

// Mode parses the configured mode. ok is false when the config defers to
// the genre default.
func (c Config) Mode() (mapping.Mode, bool, error) {
	if c.Mapping.Mode == "" {
		return 0, false, nil
	}
	m, err := mapping.ParseMode(c.Mapping.Mode)
	if err != nil {
		return 0, false, fmt.Errorf("config mode: %w", err)
	}
	return m, true, nil
}
