package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelworks/tapeprep/internal/counter"
	"github.com/reelworks/tapeprep/internal/deck"
	"github.com/reelworks/tapeprep/internal/mains"
	"github.com/reelworks/tapeprep/internal/normalize"
	"github.com/reelworks/tapeprep/internal/session"
)

// TracklistData contains everything the deck tracklist file needs.
type TracklistData struct {
	Plan            session.Plan
	Profile         deck.Profile
	Tape            deck.Tape
	Model           counter.Model
	Method          normalize.Method
	TargetLUFS      float64
	SideMinutes     int
	Calibration     *counter.Table // manual mode only
	CalibrationPath string
	Mains           mains.Info
	Tips            []PrepTip
	Now             time.Time // zero value means time.Now()
}

// WriteTracklist generates the deck tracklist reference file in dir and
// returns its path. The filename carries a timestamp and the
// normalization settings so repeat sessions never overwrite each other.
func WriteTracklist(dir string, data TracklistData) (string, error) {
	if data.Now.IsZero() {
		data.Now = time.Now()
	}

	name := fmt.Sprintf("deck_tracklist_%s_%s.txt", data.Now.Format("20060102_150405"), normTag(data.Method, data.TargetLUFS))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create tracklist file: %w", err)
	}
	defer f.Close()

	writeTracklistHeader(f, data.Now)
	writeTapeInformation(f, data.Tape)
	writeCounterConfiguration(f, data)
	writeAudioConfiguration(f, data)
	if len(data.Tips) > 0 {
		writeSection(f, "PREPARATION TIPS")
		WriteTips(f, data.Tips)
		fmt.Fprintln(f)
	}
	writeTrackList(f, data.Plan)

	return path, nil
}

// normTag names the normalization settings for the filename, e.g.
// "peak" or "lufs-14.0".
func normTag(method normalize.Method, targetLUFS float64) string {
	if method == normalize.LUFSMethod {
		return fmt.Sprintf("lufs%+.1f", targetLUFS)
	}
	return "peak"
}

// writeSection writes a section title with underline.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

func writeTracklistHeader(f *os.File, now time.Time) {
	fmt.Fprintln(f, "Tape Deck Tracklist Reference")
	fmt.Fprintln(f, strings.Repeat("=", 60))
	fmt.Fprintf(f, "Session: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(f)
}

func writeTapeInformation(f *os.File, tape deck.Tape) {
	writeSection(f, "TAPE INFORMATION")
	fmt.Fprintf(f, "Tape Type: %s\n", tape.Label())
	fmt.Fprintf(f, "Material: %s\n", tape.Material)
	fmt.Fprintf(f, "Bias Setting: %s\n", tape.Bias)
	fmt.Fprintf(f, "Sound Character: %s\n", tape.Sound)
	fmt.Fprintf(f, "Shell Notches: %s\n", tape.Shell)
	fmt.Fprintln(f)
}

func writeCounterConfiguration(f *os.File, data TracklistData) {
	writeSection(f, "TAPE COUNTER CONFIGURATION")
	fmt.Fprintf(f, "Deck: %s\n", data.Profile.Label())
	fmt.Fprintf(f, "Counter Mode: %s\n", counterModeName(data.Model.Mode()))

	switch data.Model.Mode() {
	case counter.ModeStatic:
		fmt.Fprintf(f, "Counter Rate: %.2f counts/second (constant)\n", data.Profile.BaseRate)
	case counter.ModeManual:
		if data.Calibration != nil {
			if data.CalibrationPath != "" {
				fmt.Fprintf(f, "Calibration Source: %s\n", data.CalibrationPath)
			}
			fmt.Fprintf(f, "Calibrated Deck: %s\n", orUnknown(data.Calibration.DeckModel))
			fmt.Fprintf(f, "Calibrated Tape: %s\n", orUnknown(data.Calibration.TapeType))
			fmt.Fprintf(f, "Calibration Date: %s\n", orUnknown(data.Calibration.CalibrationDate))
			fmt.Fprintf(f, "Calibration Points: %d measured checkpoints\n", len(data.Calibration.Checkpoints))
		} else {
			fmt.Fprintf(f, "Calibration: none, falling back to %.2f counts/second\n", data.Profile.BaseRate)
		}
	case counter.ModeAuto:
		fmt.Fprintf(f, "Physics Simulation: reel geometry, hub radius %.1f mm\n", data.Profile.HubRadiusMM)
		fmt.Fprintf(f, "Base Rate: %.2f counts/second (at tape midpoint)\n", data.Profile.BaseRate)
	}

	if data.Profile.SyncMotorHz != 0 && data.Mains.FrequencyHz != 0 && data.Mains.FrequencyHz != data.Profile.SyncMotorHz {
		fmt.Fprintf(f, "Mains Correction: %d Hz motor on a %d Hz supply, speed x%.3f\n",
			data.Profile.SyncMotorHz, data.Mains.FrequencyHz,
			mains.SpeedRatio(data.Profile.SyncMotorHz, data.Mains.FrequencyHz))
	}

	leader := data.Plan.Options.LeaderSeconds
	fmt.Fprintf(f, "Leader Gap: %gs (Counter: 0000 - %04d)\n", leader, data.Model.CounterAt(leader))
	fmt.Fprintln(f)
}

func writeAudioConfiguration(f *os.File, data TracklistData) {
	writeSection(f, "AUDIO CONFIGURATION")
	if data.Method == normalize.LUFSMethod {
		fmt.Fprintf(f, "Normalization: LUFS (target: %+.1f LUFS)\n", data.TargetLUFS)
	} else {
		fmt.Fprintln(f, "Normalization: PEAK (full-scale peak)")
	}
	fmt.Fprintf(f, "Track Gap: %gs between tracks\n", data.Plan.Options.GapSeconds)
	fmt.Fprintf(f, "Tape Duration: %d minutes per side\n", data.SideMinutes)
	if data.Plan.Options.LatencySeconds > 0 {
		fmt.Fprintf(f, "Audio Latency Compensation: %gs\n", data.Plan.Options.LatencySeconds)
	}
	fmt.Fprintf(f, "Total Tracks: %d\n", len(data.Plan.Tracks))
	fmt.Fprintf(f, "Total Recording Time: %s (including gaps)\n", formatDuration(data.Plan.TotalSeconds))
	if data.Plan.Options.SideSeconds > 0 {
		if remaining := data.Plan.RemainingSeconds(); remaining < 0 {
			fmt.Fprintf(f, "Side Overrun: %s past the end of the side\n", formatDuration(-remaining))
		} else {
			fmt.Fprintf(f, "Remaining on Side: %s\n", formatDuration(remaining))
		}
	}
	fmt.Fprintln(f)
}

func writeTrackList(f *os.File, plan session.Plan) {
	fmt.Fprintln(f, "TRACK LIST")
	fmt.Fprintln(f, strings.Repeat("=", 60))
	for i, pt := range plan.Tracks {
		fmt.Fprintf(f, "%02d. %s\n", i+1, pt.Track.Name)
		fmt.Fprintf(f, "    Start: %s   End: %s   Duration: %s\n",
			formatDuration(pt.StartSeconds), formatDuration(pt.EndSeconds), formatDuration(pt.Track.DurationSeconds))
		fmt.Fprintf(f, "    Counter: %04d - %04d\n", pt.CounterStart, pt.CounterEnd)
		if pt.Overruns {
			fmt.Fprintln(f, "    WARNING: runs past the end of the side")
		}
	}
}

// counterModeName renders a counter mode the way the tracklist file
// describes it.
func counterModeName(m counter.Mode) string {
	switch m {
	case counter.ModeManual:
		return "Manual calibrated"
	case counter.ModeAuto:
		return "Auto physics"
	default:
		return "Static linear"
	}
}

// formatDuration formats tape time as M:SS.
func formatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
