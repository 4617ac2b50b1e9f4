// This file provides console display for analysis-only mode.

package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/reelworks/tapeprep/internal/levels"
	"github.com/reelworks/tapeprep/internal/session"
)

// DisplayTrackAnalysis prints one prepared track's measurements to the
// console. Used by --analyze-only mode to inspect material without
// sitting through a recording session.
func DisplayTrackAnalysis(w io.Writer, track *session.Track) {
	// Header
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", track.Name)
	fmt.Fprintln(w, strings.Repeat("=", 70))

	// File info
	fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(track.DurationSeconds))
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", track.SampleRate)
	fmt.Fprintf(w, "Channels:    %s\n", channelName(track.Channels))
	if track.FromCache {
		fmt.Fprintln(w, "Rendition:   cached, reused from an earlier session")
	} else {
		fmt.Fprintf(w, "Rendition:   normalized fresh (%s)\n", track.Method)
	}
	fmt.Fprintln(w)

	// Levels section
	writeAnalysisSection(w, "LEVELS")
	fmt.Fprint(w, levelTable(track).String())
	fmt.Fprintln(w)

	// Meter drive section
	writeAnalysisSection(w, "METER DRIVE")
	stats := seriesStats(track.Series)
	fmt.Fprintf(w, "  Resolution:  %d chunks at %dms\n", len(track.Series.Samples), track.Series.ChunkMS)
	fmt.Fprintf(w, "  Mean Level:  %.2f (%s)\n", stats.mean, interpretMeanLevel(stats.mean))
	fmt.Fprintf(w, "  Peak Level:  %.2f\n", stats.peak)
	fmt.Fprintf(w, "  Balance:     %s\n", interpretBalance(stats.meanLeft-stats.meanRight))
	fmt.Fprintln(w)
}

// levelTable builds the Source/Normalized comparison for one track.
// Cached renditions have no source measurements, so that column shows
// as missing.
func levelTable(track *session.Track) *MetricTable {
	sourcePeak := math.NaN()
	sourceLoudness := math.NaN()
	gain := math.NaN()
	if !track.FromCache {
		sourcePeak = track.PeakDBFS - track.GainDB
		gain = track.GainDB
	}

	table := NewMetricTable()
	table.AddRow("Peak Level",
		[]string{formatMetricDB(sourcePeak, 1), formatMetricDB(track.PeakDBFS, 1)},
		"dBFS", interpretPeakDBFS(track.PeakDBFS))

	if track.HasLoudness {
		if !track.FromCache {
			sourceLoudness = track.LoudnessLUFS - track.GainDB
		}
		table.AddRow("Loudness",
			[]string{formatMetricLUFS(sourceLoudness, 1), formatMetricLUFS(track.LoudnessLUFS, 1)},
			"LUFS", "")
	}

	table.AddRow("Gain Applied",
		[]string{MissingValue, formatMetricSigned(gain, 1)},
		"dB", interpretGain(gain))
	return table
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// levelStats summarizes a level series for display: all values on the
// meter's 0-1 scale.
type levelStats struct {
	mean      float64
	peak      float64
	meanLeft  float64
	meanRight float64
}

func seriesStats(s levels.Series) levelStats {
	var stats levelStats
	if len(s.Samples) == 0 {
		return stats
	}
	for _, sample := range s.Samples {
		stats.meanLeft += sample.Left
		stats.meanRight += sample.Right
		if sample.Left > stats.peak {
			stats.peak = sample.Left
		}
		if sample.Right > stats.peak {
			stats.peak = sample.Right
		}
	}
	n := float64(len(s.Samples))
	stats.meanLeft /= n
	stats.meanRight /= n
	stats.mean = (stats.meanLeft + stats.meanRight) / 2
	return stats
}

// interpretPeakDBFS describes how close the material sits to full
// scale. Peak normalization lands at 0 dBFS; LUFS targets usually leave
// headroom.
func interpretPeakDBFS(db float64) string {
	switch {
	case db >= -0.1:
		return "at full scale"
	case db >= -1.0:
		return "just under full scale"
	case db >= -6.0:
		return "healthy level with headroom"
	case db >= -12.0:
		return "conservative level"
	default:
		return "quiet, tape hiss will show"
	}
}

// interpretGain describes what normalization did to the track.
func interpretGain(gainDB float64) string {
	switch {
	case math.IsNaN(gainDB):
		return "unknown, cached rendition"
	case gainDB > 12.0:
		return "heavy boost, source was very quiet"
	case gainDB > 3.0:
		return "boosted to target"
	case gainDB > -0.5:
		return "source already near target"
	default:
		return "trimmed down to target"
	}
}

// interpretMeanLevel describes how the VU meters will ride during the
// side. Mean level is on the meter's normalized 0-1 scale.
func interpretMeanLevel(mean float64) string {
	switch {
	case mean < 0.05:
		return "meters barely move"
	case mean < 0.25:
		return "gentle meter movement"
	case mean < 0.6:
		return "healthy meter movement"
	case mean < 0.85:
		return "strong drive, meters ride high"
	default:
		return "pinned near the top"
	}
}

// interpretBalance describes the left/right mean level difference.
func interpretBalance(diff float64) string {
	switch {
	case math.Abs(diff) < 0.05:
		return "balanced"
	case diff > 0:
		return fmt.Sprintf("left-heavy (%+.2f)", diff)
	default:
		return fmt.Sprintf("right-heavy (%+.2f)", diff)
	}
}

// channelName returns a human-readable channel name.
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
