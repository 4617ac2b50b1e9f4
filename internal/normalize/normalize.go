// Package normalize levels track audio before it is queued for tape,
// either to full-scale peak or to an integrated loudness target.
package normalize

import (
	"fmt"
	"math"

	"github.com/reelworks/tapeprep/internal/audio"
)

// DefaultTargetLUFS is the integrated loudness target for lufs mode.
// -14 LUFS matches the level most streaming masters are delivered at,
// which keeps mixed-source tapes consistent side to side.
const DefaultTargetLUFS = -14.0

// Method selects how a track is normalized.
type Method int

const (
	// PeakMethod scales the waveform so its largest sample reaches
	// full scale.
	PeakMethod Method = iota
	// LUFSMethod applies gain to hit a target integrated loudness.
	LUFSMethod
)

// String returns the method name used in flags, cache names and reports.
func (m Method) String() string {
	switch m {
	case PeakMethod:
		return "peak"
	case LUFSMethod:
		return "lufs"
	default:
		return "unknown"
	}
}

// ParseMethod converts a method name from a flag or profile.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "peak":
		return PeakMethod, nil
	case "lufs":
		return LUFSMethod, nil
	default:
		return PeakMethod, fmt.Errorf("unknown normalization method %q (valid: peak, lufs)", s)
	}
}

// Meter measures integrated program loudness in LUFS. Measurement can
// fail on degenerate signals; Normalize treats any failure as the
// meter being unavailable.
type Meter interface {
	IntegratedLoudness(buf *audio.Buffer) (float64, error)
}

// Result is a normalized buffer plus what was measured along the way.
// HasLoudness is false when no loudness value exists, either because
// peak mode was requested or because lufs mode degraded to it.
type Result struct {
	Buffer       *audio.Buffer
	Applied      Method
	GainDB       float64
	LoudnessLUFS float64
	HasLoudness  bool
}

// Normalize returns a leveled copy of buf. The input buffer is never
// modified.
//
// Peak mode needs no meter. LUFS mode measures the input, applies the
// gain that moves it to targetLUFS, clips to the sample range, then
// reports the re-measured loudness of the result. If the meter is nil
// or fails, lufs mode falls back to peak normalization rather than
// failing the track; the Result records the method actually applied.
func Normalize(buf *audio.Buffer, method Method, targetLUFS float64, meter Meter) *Result {
	if buf == nil || len(buf.Data) == 0 {
		return &Result{Buffer: buf, Applied: PeakMethod}
	}

	if method == LUFSMethod && meter != nil {
		if res, ok := normalizeLoudness(buf, targetLUFS, meter); ok {
			return res
		}
	}
	return normalizePeak(buf)
}

// normalizePeak scales the buffer so the largest absolute sample lands
// on full scale. Silence has no peak to scale and passes through.
func normalizePeak(buf *audio.Buffer) *Result {
	peak := buf.PeakAbs()
	if peak == 0 {
		return &Result{Buffer: buf.Clone(), Applied: PeakMethod}
	}

	scale := float64(buf.FullScale()) / float64(peak)
	out := applyGain(buf, scale)
	return &Result{
		Buffer:  out,
		Applied: PeakMethod,
		GainDB:  20 * math.Log10(scale),
	}
}

// normalizeLoudness shifts the buffer's integrated loudness to
// targetLUFS. The second return value is false when the signal cannot
// be measured and the caller should fall back to peak mode.
func normalizeLoudness(buf *audio.Buffer, targetLUFS float64, meter Meter) (*Result, bool) {
	measured, err := meter.IntegratedLoudness(buf)
	if err != nil || math.IsInf(measured, 0) || math.IsNaN(measured) {
		return nil, false
	}

	gainDB := targetLUFS - measured
	out := applyGain(buf, math.Pow(10, gainDB/20))

	// Report what the normalized track actually measures; clipping on
	// hot material can leave it shy of the target.
	final, err := meter.IntegratedLoudness(out)
	if err != nil || math.IsInf(final, 0) || math.IsNaN(final) {
		final = targetLUFS
	}
	return &Result{
		Buffer:       out,
		Applied:      LUFSMethod,
		GainDB:       gainDB,
		LoudnessLUFS: final,
		HasLoudness:  true,
	}, true
}

// applyGain multiplies every sample by scale, rounding to the nearest
// integer and clipping to the buffer's sample range.
func applyGain(buf *audio.Buffer, scale float64) *audio.Buffer {
	out := buf.Clone()
	maxSample := buf.FullScale()
	minSample := -maxSample - 1
	for i, v := range buf.Data {
		scaled := int(math.Round(float64(v) * scale))
		if scaled > maxSample {
			scaled = maxSample
		} else if scaled < minSample {
			scaled = minSample
		}
		out.Data[i] = scaled
	}
	return out
}
