// Package levels turns decoded audio into the normalized meter levels
// shown on the recording display.
package levels

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/reelworks/tapeprep/internal/audio"
)

const (
	// DefaultChunkMS is the meter resolution in milliseconds.
	DefaultChunkMS = 50

	// rmsPercentile is the per-channel chunk-RMS percentile used as the
	// loudness reference for the adaptive ceiling.
	rmsPercentile = 0.95

	// ceilingHeadroom lifts the ceiling 20% above the reference so the
	// loudest sections sit just below full deflection instead of
	// pinning the meter.
	ceilingHeadroom = 1.2

	// minCeiling is the ceiling floor in raw sample-amplitude units.
	// Near-silent material would otherwise normalize its own noise
	// floor up to full scale.
	minCeiling = 1000.0
)

// Sample is one meter reading pair at a fixed offset into a track.
type Sample struct {
	TimeMS int
	Left   float64
	Right  float64
}

// Series is the precomputed meter curve for one track: one Sample per
// analysis chunk, in time order. It is built once by Analyze and
// read-only afterwards.
type Series struct {
	Samples []Sample
	ChunkMS int
}

// Analyze computes the level series for a decoded buffer. Mono sources
// drive both meter channels. chunkMS <= 0 selects DefaultChunkMS.
//
// Levels are normalized against an adaptive ceiling derived from the
// 95th percentile of chunk RMS across both channels, so quiet and hot
// recordings both produce a usable meter range. The square root in the
// mapping compresses the top of the scale the way a real VU ballistics
// curve does. Malformed buffers yield an empty series.
func Analyze(buf *audio.Buffer, chunkMS int) Series {
	if chunkMS <= 0 {
		chunkMS = DefaultChunkMS
	}
	if buf == nil || len(buf.Data) == 0 || buf.Channels <= 0 || buf.SampleRate <= 0 {
		return Series{ChunkMS: chunkMS}
	}

	framesPerChunk := buf.SampleRate * chunkMS / 1000
	if framesPerChunk < 1 {
		framesPerChunk = 1
	}

	frames := buf.Frames()
	rmsLeft := make([]float64, 0, frames/framesPerChunk+1)
	rmsRight := make([]float64, 0, frames/framesPerChunk+1)
	for start := 0; start < frames; start += framesPerChunk {
		end := start + framesPerChunk
		if end > frames {
			end = frames
		}
		var sumLeft, sumRight float64
		for f := start; f < end; f++ {
			left := float64(buf.Data[f*buf.Channels])
			right := left
			if buf.Channels >= 2 {
				right = float64(buf.Data[f*buf.Channels+1])
			}
			sumLeft += left * left
			sumRight += right * right
		}
		n := float64(end - start)
		rmsLeft = append(rmsLeft, math.Sqrt(sumLeft/n))
		rmsRight = append(rmsRight, math.Sqrt(sumRight/n))
	}

	ceiling := adaptiveCeiling(rmsLeft, rmsRight)
	samples := make([]Sample, len(rmsLeft))
	for i := range samples {
		samples[i] = Sample{
			TimeMS: i * chunkMS,
			Left:   normalizeLevel(rmsLeft[i], ceiling),
			Right:  normalizeLevel(rmsRight[i], ceiling),
		}
	}
	return Series{Samples: samples, ChunkMS: chunkMS}
}

// adaptiveCeiling picks the reference amplitude both channels are
// normalized against: the louder channel's 95th-percentile chunk RMS
// plus headroom, floored at minCeiling. A single shared ceiling keeps
// the left/right balance visible on the meters.
func adaptiveCeiling(rmsLeft, rmsRight []float64) float64 {
	ceiling := math.Max(percentile(rmsLeft), percentile(rmsRight)) * ceilingHeadroom
	if ceiling < minCeiling {
		return minCeiling
	}
	return ceiling
}

func percentile(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(rmsPercentile, stat.Empirical, sorted, nil)
}

func normalizeLevel(rms, ceiling float64) float64 {
	return math.Min(1.0, math.Sqrt(rms/ceiling))
}

// At returns the interpolated meter pair for an elapsed playback time.
// Queries before the first sample return it unchanged, queries past the
// last sample hold its value, and an empty series reads as silence.
// The lookup is a binary search so it stays cheap at display refresh
// rates.
func (s Series) At(elapsedMS int) (left, right float64) {
	if len(s.Samples) == 0 {
		return 0, 0
	}

	i := sort.Search(len(s.Samples), func(i int) bool {
		return s.Samples[i].TimeMS >= elapsedMS
	})
	switch {
	case i < len(s.Samples) && s.Samples[i].TimeMS == elapsedMS:
		return s.Samples[i].Left, s.Samples[i].Right
	case i == 0:
		return s.Samples[0].Left, s.Samples[0].Right
	case i == len(s.Samples):
		last := s.Samples[len(s.Samples)-1]
		return last.Left, last.Right
	}

	prev, next := s.Samples[i-1], s.Samples[i]
	span := float64(next.TimeMS - prev.TimeMS)
	if span <= 0 {
		return next.Left, next.Right
	}
	frac := float64(elapsedMS-prev.TimeMS) / span
	left = prev.Left + (next.Left-prev.Left)*frac
	right = prev.Right + (next.Right-prev.Right)*frac
	return left, right
}

// AtSeconds is At for callers tracking elapsed time as seconds.
func (s Series) AtSeconds(elapsed float64) (left, right float64) {
	return s.At(int(elapsed * 1000))
}

// Duration returns the time span covered by the series.
func (s Series) Duration() int {
	if len(s.Samples) == 0 {
		return 0
	}
	return s.Samples[len(s.Samples)-1].TimeMS + s.ChunkMS
}
