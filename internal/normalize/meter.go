package normalize

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-dsp/measure/loudness"

	"github.com/reelworks/tapeprep/internal/audio"
)

// BS1770Meter measures integrated loudness with a gated BS.1770 meter.
// The zero value is ready to use.
type BS1770Meter struct{}

// IntegratedLoudness runs the whole buffer through the meter and
// returns its integrated loudness in LUFS. Signals too short or too
// quiet for the gating to produce a finite value return an error.
func (BS1770Meter) IntegratedLoudness(buf *audio.Buffer) (float64, error) {
	if buf == nil || len(buf.Data) == 0 {
		return 0, errors.New("no audio to measure")
	}
	if buf.SampleRate <= 0 || buf.Channels <= 0 {
		return 0, errors.New("buffer missing sample rate or channel count")
	}

	m := loudness.NewMeter(
		loudness.WithSampleRate(float64(buf.SampleRate)),
		loudness.WithChannels(buf.Channels),
	)
	m.StartIntegration()
	m.ProcessBlock(buf.Floats())

	lufs := m.Integrated()
	if math.IsInf(lufs, 0) || math.IsNaN(lufs) {
		return 0, errors.New("integrated loudness undefined for this signal")
	}
	return lufs, nil
}
