// Package config loads tapeprep settings from a YAML file and checks
// them for values that would make a session misleading.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reelworks/tapeprep/internal/counter"
	"github.com/reelworks/tapeprep/internal/deck"
	"github.com/reelworks/tapeprep/internal/normalize"
)

type Settings struct {
	Library LibraryConfig `yaml:"library"`
	Deck    DeckConfig    `yaml:"deck"`
	Tape    TapeConfig    `yaml:"tape"`
	Audio   AudioConfig   `yaml:"audio"`
	Session SessionConfig `yaml:"session"`
}

type LibraryConfig struct {
	SourceDir string `yaml:"source_dir"`
	CacheDir  string `yaml:"cache_dir"`
	ReportDir string `yaml:"report_dir"`
	HistoryDB string `yaml:"history_db"`
}

type DeckConfig struct {
	// Profile names a built-in deck; ProfileFile overrides it with a
	// custom JSON profile.
	Profile     string `yaml:"profile"`
	ProfileFile string `yaml:"profile_file"`

	CounterMode     string  `yaml:"counter_mode"`
	BaseRate        float64 `yaml:"base_rate"` // 0 inherits the profile's rate
	CalibrationFile string  `yaml:"calibration_file"`
	MainsHz         int     `yaml:"mains_hz"` // 0 autodetects from timezone
}

type TapeConfig struct {
	Type        string `yaml:"type"`
	SideMinutes int    `yaml:"side_minutes"`
}

type AudioConfig struct {
	Normalization string  `yaml:"normalization"`
	TargetLUFS    float64 `yaml:"target_lufs"`
}

type SessionConfig struct {
	LeaderSeconds  float64 `yaml:"leader_seconds"`
	GapSeconds     float64 `yaml:"gap_seconds"`
	LatencySeconds float64 `yaml:"latency_seconds"`
}

// Defaults returns the settings used when no config file exists: a
// C-90 side on the generic deck, peak normalization, a 10 second
// leader and 5 second gaps.
func Defaults() *Settings {
	return &Settings{
		Library: LibraryConfig{
			SourceDir: ".",
			CacheDir:  "normalized",
			ReportDir: ".",
			HistoryDB: "tapeprep.db",
		},
		Deck: DeckConfig{
			Profile:     "generic",
			CounterMode: "auto",
		},
		Tape: TapeConfig{
			Type:        "II",
			SideMinutes: 45,
		},
		Audio: AudioConfig{
			Normalization: "peak",
			TargetLUFS:    normalize.DefaultTargetLUFS,
		},
		Session: SessionConfig{
			LeaderSeconds: 10,
			GapSeconds:    5,
		},
	}
}

// Load reads settings from a YAML file, filling unset fields with the
// defaults. An empty path returns the defaults directly.
func Load(path string) (*Settings, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Fill anything the file left unset
	defaults := Defaults()
	if settings.Library.SourceDir == "" {
		settings.Library.SourceDir = defaults.Library.SourceDir
	}
	if settings.Library.CacheDir == "" {
		settings.Library.CacheDir = defaults.Library.CacheDir
	}
	if settings.Library.ReportDir == "" {
		settings.Library.ReportDir = defaults.Library.ReportDir
	}
	if settings.Library.HistoryDB == "" {
		settings.Library.HistoryDB = defaults.Library.HistoryDB
	}
	if settings.Deck.Profile == "" {
		settings.Deck.Profile = defaults.Deck.Profile
	}
	if settings.Deck.CounterMode == "" {
		settings.Deck.CounterMode = defaults.Deck.CounterMode
	}
	if settings.Tape.Type == "" {
		settings.Tape.Type = defaults.Tape.Type
	}
	if settings.Tape.SideMinutes == 0 {
		settings.Tape.SideMinutes = defaults.Tape.SideMinutes
	}
	if settings.Audio.Normalization == "" {
		settings.Audio.Normalization = defaults.Audio.Normalization
	}
	if settings.Audio.TargetLUFS == 0 {
		settings.Audio.TargetLUFS = defaults.Audio.TargetLUFS
	}
	if settings.Session.LeaderSeconds == 0 {
		settings.Session.LeaderSeconds = defaults.Session.LeaderSeconds
	}
	if settings.Session.GapSeconds == 0 {
		settings.Session.GapSeconds = defaults.Session.GapSeconds
	}

	return &settings, nil
}

// Validate returns hard errors for settings the session cannot run
// with, and advisory warnings for values that will work but probably
// mean a typo.
func (s *Settings) Validate() (warnings []string, err error) {
	if _, err := counter.ParseMode(s.Deck.CounterMode); err != nil {
		return nil, err
	}
	if _, err := normalize.ParseMethod(s.Audio.Normalization); err != nil {
		return nil, err
	}
	if _, err := deck.TapeByType(s.Tape.Type); err != nil {
		return nil, err
	}
	if s.Deck.ProfileFile == "" {
		if _, err := deck.Lookup(s.Deck.Profile); err != nil {
			return nil, err
		}
	}
	if s.Session.LeaderSeconds < 0 || s.Session.GapSeconds < 0 {
		return nil, fmt.Errorf("leader and gap durations must not be negative")
	}
	if s.Tape.SideMinutes <= 0 {
		return nil, fmt.Errorf("side_minutes must be positive, got %d", s.Tape.SideMinutes)
	}

	switch s.Tape.SideMinutes {
	case 30, 45, 60:
	default:
		warnings = append(warnings, fmt.Sprintf(
			"side_minutes %d is not a standard C-60/C-90/C-120 side; counter predictions assume typical reel geometry",
			s.Tape.SideMinutes))
	}
	if s.Deck.BaseRate != 0 && (s.Deck.BaseRate < 0.5 || s.Deck.BaseRate > 5.0) {
		warnings = append(warnings, fmt.Sprintf(
			"base_rate %.2f is outside the usual 0.5-5.0 counts per second", s.Deck.BaseRate))
	}
	if s.Audio.TargetLUFS < -30 || s.Audio.TargetLUFS > -6 {
		warnings = append(warnings, fmt.Sprintf(
			"target_lufs %.1f is outside the usual -30 to -6 range", s.Audio.TargetLUFS))
	}
	if s.Session.LatencySeconds < 0 || s.Session.LatencySeconds > 1.0 {
		warnings = append(warnings, fmt.Sprintf(
			"latency_seconds %.2f is outside the expected 0-1.0 range", s.Session.LatencySeconds))
	}

	return warnings, nil
}
