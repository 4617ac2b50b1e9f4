package levels

import (
	"math"
	"testing"

	"github.com/reelworks/tapeprep/internal/audio"
)

// constBuffer builds a buffer where every sample has the same
// amplitude, so each chunk's RMS is exactly that amplitude.
func constBuffer(amplitude, frames, channels, rate int) *audio.Buffer {
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = amplitude
	}
	return &audio.Buffer{Data: data, SampleRate: rate, Channels: channels, BitDepth: 16}
}

// rampBuffer builds a stereo buffer whose amplitude grows over time,
// with the right channel at half the left channel's level.
func rampBuffer(frames, rate int) *audio.Buffer {
	data := make([]int, frames*2)
	for f := 0; f < frames; f++ {
		amplitude := 500 + f*30000/frames
		data[f*2] = amplitude
		data[f*2+1] = amplitude / 2
	}
	return &audio.Buffer{Data: data, SampleRate: rate, Channels: 2, BitDepth: 16}
}

func TestAnalyzeChunkTiming(t *testing.T) {
	buf := constBuffer(8000, 44100, 2, 44100)
	series := Analyze(buf, 50)

	if len(series.Samples) != 20 {
		t.Fatalf("got %d samples for 1s at 50ms chunks, want 20", len(series.Samples))
	}
	for i, sample := range series.Samples {
		if sample.TimeMS != i*50 {
			t.Errorf("sample %d at %dms, want %dms", i, sample.TimeMS, i*50)
		}
	}
	if series.Duration() != 1000 {
		t.Errorf("Duration() = %d, want 1000", series.Duration())
	}
}

func TestAnalyzeLevelsStayBounded(t *testing.T) {
	tests := []struct {
		name string
		buf  *audio.Buffer
	}{
		{
			name: "silence",
			buf:  constBuffer(0, 22050, 2, 44100),
		},
		{
			name: "full scale",
			buf:  constBuffer(32767, 22050, 2, 44100),
		},
		{
			name: "quiet",
			buf:  constBuffer(25, 22050, 2, 44100),
		},
		{
			name: "ramp",
			buf:  rampBuffer(44100, 44100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Analyze(tt.buf, 50)
			for _, sample := range series.Samples {
				if sample.Left < 0 || sample.Left > 1 || sample.Right < 0 || sample.Right > 1 {
					t.Fatalf("sample at %dms out of bounds: left %.4f right %.4f",
						sample.TimeMS, sample.Left, sample.Right)
				}
			}
		})
	}
}

func TestAnalyzeSilenceReadsZero(t *testing.T) {
	series := Analyze(constBuffer(0, 44100, 2, 44100), 50)
	if len(series.Samples) == 0 {
		t.Fatal("expected samples for a 1s buffer")
	}
	for _, sample := range series.Samples {
		if sample.Left != 0 || sample.Right != 0 {
			t.Fatalf("silent input produced level %.4f/%.4f at %dms",
				sample.Left, sample.Right, sample.TimeMS)
		}
	}
}

func TestAnalyzeQuietMaterialUsesCeilingFloor(t *testing.T) {
	// Constant amplitude 10 gives chunk RMS 10; the adaptive ceiling
	// would be 12 but is floored at 1000, so the level is sqrt(10/1000).
	series := Analyze(constBuffer(10, 22050, 2, 44100), 50)
	want := math.Sqrt(10.0 / 1000.0)
	for _, sample := range series.Samples {
		if math.Abs(sample.Left-want) > 1e-9 {
			t.Fatalf("level at %dms = %.6f, want %.6f", sample.TimeMS, sample.Left, want)
		}
	}
}

func TestAnalyzeMonoDuplicatesChannels(t *testing.T) {
	data := make([]int, 44100)
	for i := range data {
		data[i] = 100 + i%20000
	}
	buf := &audio.Buffer{Data: data, SampleRate: 44100, Channels: 1, BitDepth: 16}

	series := Analyze(buf, 50)
	if len(series.Samples) == 0 {
		t.Fatal("expected samples for a 1s mono buffer")
	}
	for _, sample := range series.Samples {
		if sample.Left != sample.Right {
			t.Fatalf("mono sample at %dms split: left %.4f right %.4f",
				sample.TimeMS, sample.Left, sample.Right)
		}
	}
}

func TestAnalyzeEmptyBuffer(t *testing.T) {
	tests := []struct {
		name string
		buf  *audio.Buffer
	}{
		{
			name: "nil buffer",
			buf:  nil,
		},
		{
			name: "no data",
			buf:  &audio.Buffer{SampleRate: 44100, Channels: 2, BitDepth: 16},
		},
		{
			name: "no sample rate",
			buf:  &audio.Buffer{Data: []int{1, 2, 3, 4}, Channels: 2, BitDepth: 16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Analyze(tt.buf, 50)
			if len(series.Samples) != 0 {
				t.Errorf("got %d samples, want empty series", len(series.Samples))
			}
			if left, right := series.At(0); left != 0 || right != 0 {
				t.Errorf("At(0) on empty series = %.4f/%.4f, want 0/0", left, right)
			}
		})
	}
}

func TestAtRoundTripsSamplePoints(t *testing.T) {
	series := Analyze(rampBuffer(88200, 44100), 50)
	if len(series.Samples) < 10 {
		t.Fatalf("expected a full series, got %d samples", len(series.Samples))
	}

	for _, sample := range series.Samples {
		left, right := series.At(sample.TimeMS)
		if left != sample.Left || right != sample.Right {
			t.Fatalf("At(%d) = %.6f/%.6f, want the sample's own %.6f/%.6f",
				sample.TimeMS, left, right, sample.Left, sample.Right)
		}
	}
}

func TestAtInterpolation(t *testing.T) {
	series := Series{
		Samples: []Sample{
			{TimeMS: 0, Left: 0.2, Right: 0.4},
			{TimeMS: 100, Left: 0.6, Right: 0.8},
		},
		ChunkMS: 100,
	}

	tests := []struct {
		name      string
		elapsedMS int
		wantLeft  float64
		wantRight float64
	}{
		{
			name:      "midpoint",
			elapsedMS: 50,
			wantLeft:  0.4,
			wantRight: 0.6,
		},
		{
			name:      "quarter",
			elapsedMS: 25,
			wantLeft:  0.3,
			wantRight: 0.5,
		},
		{
			name:      "past the end holds the last sample",
			elapsedMS: 5000,
			wantLeft:  0.6,
			wantRight: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := series.At(tt.elapsedMS)
			if math.Abs(left-tt.wantLeft) > 1e-9 || math.Abs(right-tt.wantRight) > 1e-9 {
				t.Errorf("At(%d) = %.4f/%.4f, want %.4f/%.4f",
					tt.elapsedMS, left, right, tt.wantLeft, tt.wantRight)
			}
		})
	}
}

func TestAtBeforeFirstSample(t *testing.T) {
	series := Series{
		Samples: []Sample{
			{TimeMS: 100, Left: 0.5, Right: 0.7},
			{TimeMS: 200, Left: 0.9, Right: 0.9},
		},
		ChunkMS: 100,
	}
	left, right := series.At(10)
	if left != 0.5 || right != 0.7 {
		t.Errorf("At(10) = %.4f/%.4f, want first sample 0.5/0.7", left, right)
	}
}

func TestAtSeconds(t *testing.T) {
	series := Analyze(constBuffer(8000, 44100, 2, 44100), 50)
	wantLeft, wantRight := series.At(500)
	left, right := series.AtSeconds(0.5)
	if left != wantLeft || right != wantRight {
		t.Errorf("AtSeconds(0.5) = %.4f/%.4f, want At(500) = %.4f/%.4f",
			left, right, wantLeft, wantRight)
	}
}
