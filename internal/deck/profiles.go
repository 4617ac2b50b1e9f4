// Package deck describes the cassette decks and tape stock a recording
// session targets, and builds the matching tape counter model.
package deck

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/reelworks/tapeprep/internal/counter"
	"github.com/reelworks/tapeprep/internal/mains"
)

// Compact cassette transport geometry. Speed is the standard 1 7/8 ips;
// hub radius and tape thickness are typical for C-90 stock.
const (
	TapeSpeedMMPerS = 47.625
	HubRadiusMM     = 10.0
	TapeThicknessMM = 0.016
)

// Profile captures the counter behavior of one deck model. BaseRate is
// the counter's counts-per-second near mid-tape; decks with a
// synchronous mains motor declare their design frequency so the
// transport speed can be corrected for the local grid.
type Profile struct {
	Name            string  `json:"name"`
	DisplayName     string  `json:"display_name,omitempty"`
	CounterMode     string  `json:"counter_mode"`
	BaseRate        float64 `json:"base_rate"`
	HubRadiusMM     float64 `json:"hub_radius_mm"`
	TapeThicknessMM float64 `json:"tape_thickness_mm"`
	SyncMotorHz     int     `json:"sync_motor_hz,omitempty"` // 0 for servo-controlled transports
}

// builtinProfiles are decks with known counter behavior. BaseRate
// values come from timing real counters against a stopwatch at the
// 20 minute mark of a C-90.
var builtinProfiles = []Profile{
	{
		Name:            "generic",
		DisplayName:     "Generic three-digit counter",
		CounterMode:     "auto",
		BaseRate:        1.0,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
	{
		Name:            "technics-rs-az7",
		DisplayName:     "Technics RS-AZ7",
		CounterMode:     "auto",
		BaseRate:        0.78,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
	{
		Name:            "nakamichi-bx300",
		DisplayName:     "Nakamichi BX-300",
		CounterMode:     "auto",
		BaseRate:        0.92,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
	{
		Name:            "sony-tc-k611s",
		DisplayName:     "Sony TC-K611S",
		CounterMode:     "auto",
		BaseRate:        0.85,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
	{
		Name:            "philips-n2400",
		DisplayName:     "Philips N2400",
		CounterMode:     "static",
		BaseRate:        1.12,
		HubRadiusMM:     9.5,
		TapeThicknessMM: TapeThicknessMM,
		SyncMotorHz:     50,
	},
	{
		Name:            "aiwa-ad-f780",
		DisplayName:     "AIWA AD-F780",
		CounterMode:     "manual",
		BaseRate:        1.38,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
	{
		Name:            "sony-tc-we475",
		DisplayName:     "Sony TC-WE475",
		CounterMode:     "static",
		BaseRate:        1.42,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
	{
		Name:            "pioneer-ct-r305",
		DisplayName:     "Pioneer CT-R305",
		CounterMode:     "static",
		BaseRate:        1.35,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
	{
		Name:            "technics-rs-x205",
		DisplayName:     "Technics RS-X205",
		CounterMode:     "auto",
		BaseRate:        1.5,
		HubRadiusMM:     HubRadiusMM,
		TapeThicknessMM: TapeThicknessMM,
	},
}

// Names lists the built-in profile names, sorted for display.
func Names() []string {
	names := make([]string, len(builtinProfiles))
	for i, p := range builtinProfiles {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// Lookup finds a built-in profile by name.
func Lookup(name string) (Profile, error) {
	for _, p := range builtinProfiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown deck profile %q (built-in: %s)", name, strings.Join(Names(), ", "))
}

// Default returns the generic profile.
func Default() Profile {
	p, _ := Lookup("generic")
	return p
}

// Load reads a custom profile from a JSON file. Missing geometry
// fields inherit the generic defaults, so a minimal override file only
// needs a name and base rate.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read deck profile: %w", err)
	}

	p := Default()
	p.Name = ""
	p.DisplayName = ""
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse deck profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid deck profile %s: %w", path, err)
	}
	return p, nil
}

// Validate reports the first field that would break the counter model.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("deck profile needs a name")
	}
	if _, err := counter.ParseMode(p.CounterMode); err != nil {
		return err
	}
	if p.BaseRate <= 0 || p.BaseRate > 10 {
		return fmt.Errorf("base_rate %.2f out of range (0, 10]", p.BaseRate)
	}
	if p.HubRadiusMM <= 0 {
		return fmt.Errorf("hub_radius_mm must be positive, got %.2f", p.HubRadiusMM)
	}
	if p.TapeThicknessMM <= 0 || p.TapeThicknessMM > 0.05 {
		return fmt.Errorf("tape_thickness_mm %.4f out of range (0, 0.05]", p.TapeThicknessMM)
	}
	if p.SyncMotorHz != 0 && p.SyncMotorHz != 50 && p.SyncMotorHz != 60 {
		return fmt.Errorf("sync_motor_hz must be 0, 50 or 60, got %d", p.SyncMotorHz)
	}
	return nil
}

// Label returns the profile's display name, falling back to its key.
func (p Profile) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// EffectiveSpeedMMPerS is the real transport speed on the local grid.
// Servo decks hold standard speed everywhere; synchronous motors track
// the supply frequency.
func (p Profile) EffectiveSpeedMMPerS(localMainsHz int) float64 {
	return TapeSpeedMMPerS * mains.SpeedRatio(p.SyncMotorHz, localMainsHz)
}

// SideLengthMM converts a per-side duration to tape length at standard
// speed. Tape length is fixed at manufacture, so the local grid plays
// no part here.
func SideLengthMM(sideMinutes int) float64 {
	return float64(sideMinutes) * 60 * TapeSpeedMMPerS
}

// TransportModel builds the counter model for this deck. mode selects
// the variant, table feeds manual mode (nil falls back to the static
// rate), sideMinutes sizes the reel for auto mode, and localMainsHz
// corrects transport speed on synchronous-motor decks.
func (p Profile) TransportModel(mode counter.Mode, table *counter.Table, sideMinutes, localMainsHz int) counter.Model {
	switch mode {
	case counter.ModeManual:
		return counter.Manual{Calibration: table, FallbackRate: p.BaseRate}
	case counter.ModeAuto:
		return counter.Physics{
			BaseRate:        p.BaseRate,
			TapeLengthMM:    SideLengthMM(sideMinutes),
			TapeSpeedMMPerS: p.EffectiveSpeedMMPerS(localMainsHz),
			HubRadiusMM:     p.HubRadiusMM,
			TapeThicknessMM: p.TapeThicknessMM,
		}
	default:
		return counter.Static{BaseRate: p.BaseRate}
	}
}
