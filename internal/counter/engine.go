// Package counter implements the tape position models that map elapsed
// recording time to a mechanical tape counter reading.
package counter

import (
	"fmt"
	"math"
)

// Mode identifies which counter model is in use.
type Mode int

const (
	// ModeStatic assumes a constant counts-per-second rate.
	ModeStatic Mode = iota
	// ModeManual fits a piecewise-linear curve through user-measured
	// calibration checkpoints.
	ModeManual
	// ModeAuto derives the rate from take-up reel geometry.
	ModeAuto
)

// String returns the mode name used in flags, profiles and reports.
func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeManual:
		return "manual"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name from a flag or profile into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "static":
		return ModeStatic, nil
	case "manual":
		return ModeManual, nil
	case "auto":
		return ModeAuto, nil
	default:
		return ModeStatic, fmt.Errorf("unknown counter mode %q (valid: static, manual, auto)", s)
	}
}

// Model maps elapsed recording time to an integer counter reading.
//
// A Model is an immutable value selected once per run; switching
// models means constructing a new value. All implementations are total
// over elapsedSeconds >= 0 and never fail: bad calibration data is
// rejected at load time, not during playback.
type Model interface {
	// CounterAt returns the counter reading after elapsedSeconds of
	// recording from counter zero.
	CounterAt(elapsedSeconds float64) int
	// Mode identifies the model variant for reports and display.
	Mode() Mode
}

// Static is the constant-rate model: every second of tape advances the
// counter by the same amount. Accurate only near the point the rate was
// measured, since real counters are driven from the take-up reel.
type Static struct {
	BaseRate float64 // counts per second
}

// CounterAt returns floor(elapsedSeconds * BaseRate).
func (m Static) CounterAt(elapsedSeconds float64) int {
	return int(math.Floor(elapsedSeconds * m.BaseRate))
}

// Mode returns ModeStatic.
func (m Static) Mode() Mode { return ModeStatic }

// Manual interpolates between user-measured (time, counter) checkpoints
// and extrapolates linearly beyond them. With no usable calibration it
// behaves exactly like Static at FallbackRate.
//
// Checkpoint regions:
//   - before the first checkpoint: a line from the assumed origin (0,0)
//     to the first checkpoint
//   - between checkpoints: linear interpolation across the bracketing pair
//   - past the last checkpoint: the slope of the final two checkpoints,
//     or the single checkpoint's own counter/time ratio
//
// Values are not clamped to be monotonic across regions: checkpoints
// with decreasing counters produce a decreasing readout, faithfully
// reflecting the data the user entered.
type Manual struct {
	Calibration  *Table
	FallbackRate float64 // counts per second, used when Calibration is absent
}

// CounterAt returns the piecewise-linear counter estimate at elapsedSeconds.
func (m Manual) CounterAt(elapsedSeconds float64) int {
	if m.Calibration == nil || len(m.Calibration.Checkpoints) == 0 {
		return Static{BaseRate: m.FallbackRate}.CounterAt(elapsedSeconds)
	}

	cps := m.Calibration.Checkpoints
	first := cps[0]
	last := cps[len(cps)-1]

	switch {
	case elapsedSeconds <= first.TimeSeconds:
		// Line through the origin; a checkpoint at t=0 contributes no
		// usable slope, so the readout holds at zero until it.
		rate := 0.0
		if first.TimeSeconds > 0 {
			rate = float64(first.Counter) / first.TimeSeconds
		}
		return int(math.Floor(elapsedSeconds * rate))

	case elapsedSeconds >= last.TimeSeconds:
		var rate float64
		if len(cps) >= 2 {
			prev := cps[len(cps)-2]
			dt := last.TimeSeconds - prev.TimeSeconds
			if dt > 0 {
				rate = float64(last.Counter-prev.Counter) / dt
			}
		} else if last.TimeSeconds > 0 {
			rate = float64(last.Counter) / last.TimeSeconds
		}
		return int(math.Floor(float64(last.Counter) + rate*(elapsedSeconds-last.TimeSeconds)))

	default:
		for i := 1; i < len(cps); i++ {
			if elapsedSeconds <= cps[i].TimeSeconds {
				c1, c2 := cps[i-1], cps[i]
				span := c2.TimeSeconds - c1.TimeSeconds
				factor := 0.0
				if span > 0 {
					factor = (elapsedSeconds - c1.TimeSeconds) / span
				}
				return int(math.Floor(float64(c1.Counter) + float64(c2.Counter-c1.Counter)*factor))
			}
		}
		// Unreachable for a sorted table; keep the function total anyway.
		return int(math.Floor(float64(last.Counter)))
	}
}

// Mode returns ModeManual.
func (m Manual) Mode() Mode { return ModeManual }

// Physics models the counter from take-up reel geometry. Mechanical
// counters are belt-driven from the take-up reel, so the count rate is
// proportional to reel rotation: fast on an empty hub, slowing as wound
// tape fattens the reel.
//
// The effective radius after consuming L mm of tape of thickness h mm
// onto a hub of radius r mm comes from conserving tape cross-section:
//
//	takeupRadius = sqrt(r² + L·h/π)
//
// The model is normalized so BaseRate holds exactly at the temporal
// midpoint of the tape: scale = midRadius / takeupRadius, with
// midRadius computed from half the tape length. Past the end of the
// tape, consumption saturates and the rate stays at its end-of-tape
// value.
type Physics struct {
	BaseRate        float64 // counts per second at the tape midpoint
	TapeLengthMM    float64 // total tape length on the side, mm
	TapeSpeedMMPerS float64 // transport speed, mm/s (47.625 for standard cassette)
	HubRadiusMM     float64 // empty take-up hub radius, mm
	TapeThicknessMM float64 // tape thickness, mm
}

// CounterAt returns the geometry-scaled counter estimate at elapsedSeconds.
func (m Physics) CounterAt(elapsedSeconds float64) int {
	consumed := elapsedSeconds * m.TapeSpeedMMPerS
	if consumed > m.TapeLengthMM {
		consumed = m.TapeLengthMM
	}

	takeupRadius := m.radiusAfter(consumed)
	midRadius := m.radiusAfter(m.TapeLengthMM / 2)

	scale := 1.0
	if takeupRadius > 0 {
		scale = midRadius / takeupRadius
	}
	return int(math.Floor(elapsedSeconds * m.BaseRate * scale))
}

// Mode returns ModeAuto.
func (m Physics) Mode() Mode { return ModeAuto }

// radiusAfter returns the take-up reel radius in mm once consumedMM of
// tape has wound onto it.
func (m Physics) radiusAfter(consumedMM float64) float64 {
	return math.Sqrt(m.HubRadiusMM*m.HubRadiusMM + consumedMM*m.TapeThicknessMM/math.Pi)
}
