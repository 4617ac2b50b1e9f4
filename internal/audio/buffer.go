// Package audio provides decoded PCM buffers and audio file I/O.
package audio

import (
	"math"
	"time"
)

// Buffer holds decoded PCM audio as interleaved integer samples.
// Once decoded, a Buffer is owned exclusively by its track record and
// is not mutated in place; transforms return a new Buffer.
type Buffer struct {
	Data       []int // interleaved samples, Channels per frame
	SampleRate int   // Hz
	Channels   int   // 1 (mono) or 2 (stereo)
	BitDepth   int   // bits per sample, typically 16
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// DurationSeconds returns the buffer length in seconds.
func (b *Buffer) DurationSeconds() float64 {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Duration returns the buffer length as a time.Duration.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.DurationSeconds() * float64(time.Second))
}

// FullScale returns the maximum positive sample value for the buffer's
// bit depth (32767 for 16-bit audio).
func (b *Buffer) FullScale() int {
	if b == nil || b.BitDepth <= 0 {
		return 0
	}
	return (1 << (b.BitDepth - 1)) - 1
}

// PeakDBFS returns the peak sample level in dBFS.
// Digital silence returns -Inf.
func (b *Buffer) PeakDBFS() float64 {
	peak := b.PeakAbs()
	if peak == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(peak)/float64(b.FullScale()))
}

// PeakAbs returns the maximum absolute sample value in the buffer.
func (b *Buffer) PeakAbs() int {
	if b == nil {
		return 0
	}
	peak := 0
	for _, s := range b.Data {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// RMSDBFS returns the overall RMS level in dBFS, the figure a deck's
// record-level meter would sit around. Digital silence returns -Inf.
func (b *Buffer) RMSDBFS() float64 {
	if b == nil || len(b.Data) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range b.Data {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(b.Data)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/float64(b.FullScale()))
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{
		Data:       make([]int, len(b.Data)),
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		BitDepth:   b.BitDepth,
	}
	copy(out.Data, b.Data)
	return out
}

// Floats converts the interleaved samples to float64 in [-1, 1],
// the form the loudness meter consumes.
func (b *Buffer) Floats() []float64 {
	if b == nil {
		return nil
	}
	scale := float64(int(1) << (b.BitDepth - 1))
	out := make([]float64, len(b.Data))
	for i, s := range b.Data {
		out[i] = float64(s) / scale
	}
	return out
}
