package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reelworks/tapeprep/internal/audio"
	"github.com/reelworks/tapeprep/internal/levels"
	"github.com/reelworks/tapeprep/internal/normalize"
)

// Stage identifies which step of track preparation is running.
type Stage int

const (
	StageDecode Stage = iota
	StageNormalize
	StageAnalyze
)

// String returns the stage name shown in the UI.
func (s Stage) String() string {
	switch s {
	case StageDecode:
		return "Decoding"
	case StageNormalize:
		return "Normalizing"
	case StageAnalyze:
		return "Analyzing"
	default:
		return "Working"
	}
}

// ProgressFunc receives preparation progress. fraction is 0 at the
// start of a stage and 1 when it finishes.
type ProgressFunc func(stage Stage, fraction float64)

// Track is one source file readied for recording: normalized audio on
// disk, measurements for the report, and the level series driving the
// meters.
type Track struct {
	Name            string
	SourcePath      string
	CachePath       string
	FromCache       bool
	DurationSeconds float64
	SampleRate      int
	Channels        int
	PeakDBFS        float64
	GainDB          float64
	LoudnessLUFS    float64
	HasLoudness     bool
	Method          normalize.Method
	Series          levels.Series
}

// Preparer runs the decode, normalize and analyze pipeline for each
// track, reusing cached normalized renditions when they exist.
type Preparer struct {
	CacheDir   string
	Method     normalize.Method
	TargetLUFS float64
	Meter      normalize.Meter
	ChunkMS    int // 0 selects the default meter resolution
}

// PrepareTrack readies one source file. A cached rendition skips the
// normalization step but the level series is always computed fresh,
// since it is cheap and never persisted. progress may be nil.
func (p *Preparer) PrepareTrack(ctx context.Context, path string, progress ProgressFunc) (*Track, error) {
	report := func(stage Stage, fraction float64) {
		if progress != nil {
			progress(stage, fraction)
		}
	}

	track := &Track{
		Name:       trackName(path),
		SourcePath: path,
		Method:     p.Method,
	}
	key := normalize.CacheKey{
		SourceName: path,
		Method:     p.Method,
		TargetLUFS: p.TargetLUFS,
	}

	var buf *audio.Buffer
	if cached, ok := normalize.Cached(p.CacheDir, key); ok {
		report(StageDecode, 0)
		loaded, err := audio.Decode(ctx, cached)
		if err != nil {
			return nil, fmt.Errorf("failed to load cached rendition: %w", err)
		}
		report(StageDecode, 1)

		buf = loaded
		track.CachePath = cached
		track.FromCache = true
		track.GainDB = 0
		if p.Method == normalize.LUFSMethod && p.Meter != nil {
			if lufs, err := p.Meter.IntegratedLoudness(buf); err == nil {
				track.LoudnessLUFS = lufs
				track.HasLoudness = true
			}
		}
	} else {
		report(StageDecode, 0)
		source, err := audio.Decode(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
		}
		report(StageDecode, 1)

		report(StageNormalize, 0)
		result := normalize.Normalize(source, p.Method, p.TargetLUFS, p.Meter)
		stored, err := normalize.Store(p.CacheDir, key, result.Buffer)
		if err != nil {
			return nil, err
		}
		report(StageNormalize, 1)

		buf = result.Buffer
		track.CachePath = stored
		track.Method = result.Applied
		track.GainDB = result.GainDB
		track.LoudnessLUFS = result.LoudnessLUFS
		track.HasLoudness = result.HasLoudness
	}

	track.DurationSeconds = buf.DurationSeconds()
	track.SampleRate = buf.SampleRate
	track.Channels = buf.Channels
	track.PeakDBFS = buf.PeakDBFS()

	report(StageAnalyze, 0)
	track.Series = levels.Analyze(buf, p.ChunkMS)
	report(StageAnalyze, 1)

	return track, nil
}

// ScanSources lists the audio files in dir in name order.
func ScanSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !audio.IsAudioFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func trackName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
