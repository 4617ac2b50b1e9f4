package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/reelworks/tapeprep/internal/counter"
	"github.com/reelworks/tapeprep/internal/deck"
	"github.com/reelworks/tapeprep/internal/mains"
	"github.com/reelworks/tapeprep/internal/normalize"
	"github.com/reelworks/tapeprep/internal/session"
)

// PrepTip represents a single piece of actionable advice derived from
// the session plan and track measurements.
type PrepTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "side_overrun")
}

// MaxPrepTips is the maximum number of tips to return.
const MaxPrepTips = 5

// SessionFacts gathers the settings and measurements the tip rules
// judge.
type SessionFacts struct {
	Plan        session.Plan
	Tracks      []*session.Track
	Profile     deck.Profile
	Tape        deck.Tape
	Method      normalize.Method
	TargetLUFS  float64
	Mode        counter.Mode
	Calibration *counter.Table // nil when no table was loaded
	Mains       mains.Info
}

// GeneratePrepTips inspects a planned session and returns prioritised
// suggestions for a better recording.
func GeneratePrepTips(facts *SessionFacts) []PrepTip {
	if facts == nil {
		return nil
	}

	var tips []PrepTip
	firedRules := make(map[string]bool)

	rules := []func(*SessionFacts) *PrepTip{
		tipSideOverrun,
		tipTightFit,
		tipMissingCalibration,
		tipSparseCalibration,
		tipHotPeaks,
		tipHighLUFSTarget,
		tipLowLUFSTarget,
		tipShortLeader,
		tipQuietSource,
		tipMainsMismatch,
		tipUnusualRate,
		tipLongLatency,
	}

	for _, rule := range rules {
		if tip := rule(facts); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	// Apply mutual exclusion
	tips = applyExclusions(tips, firedRules)

	// Sort by priority (descending)
	sort.Slice(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	// Cap at maximum
	if len(tips) > MaxPrepTips {
		tips = tips[:MaxPrepTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific
// tip has already fired. A tight fit warning says nothing the overrun
// warning doesn't, and hot peaks under a hot LUFS target are the
// target's fault.
func applyExclusions(tips []PrepTip, fired map[string]bool) []PrepTip {
	var result []PrepTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "side_tight_fit":
			if fired["side_overrun"] {
				continue
			}
		case "hot_peaks":
			if fired["high_lufs_target"] {
				continue
			}
		case "sparse_calibration":
			if fired["missing_calibration"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// WriteTips renders tips as a numbered list, wrapping long messages.
func WriteTips(w io.Writer, tips []PrepTip) {
	for i, tip := range tips {
		fmt.Fprintf(w, "%2d. %s\n", i+1, wrapText(tip.Message, 72, "    "))
	}
}

// wrapText wraps text at word boundaries to fit within maxWidth
// columns. Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipSideOverrun fires when the plan runs past the end of the side.
func tipSideOverrun(facts *SessionFacts) *PrepTip {
	if !facts.Plan.Overrun {
		return nil
	}
	overBy := -facts.Plan.RemainingSeconds()
	first := facts.Plan.FirstOverrun()
	return &PrepTip{
		Priority: 10,
		RuleID:   "side_overrun",
		Message: fmt.Sprintf("The plan overruns the side by %s starting at track %d - drop a track, trim the gaps, or use a longer tape.",
			formatDuration(overBy), first+1),
	}
}

// tipTightFit fires when the side has less than 30 seconds to spare.
// Counter drift and a slow leader splice can eat that margin.
func tipTightFit(facts *SessionFacts) *PrepTip {
	if facts.Plan.Options.SideSeconds <= 0 || facts.Plan.Overrun {
		return nil
	}
	remaining := facts.Plan.RemainingSeconds()
	if remaining >= 30 {
		return nil
	}
	return &PrepTip{
		Priority: 6,
		RuleID:   "side_tight_fit",
		Message: fmt.Sprintf("Only %s of tape remains after the last track - a slightly short side or counter drift could cut the ending off.",
			formatDuration(remaining)),
	}
}

// tipMissingCalibration fires when manual counter mode runs without a
// calibration table, which silently degrades to a constant rate.
func tipMissingCalibration(facts *SessionFacts) *PrepTip {
	if facts.Mode != counter.ModeManual || facts.Calibration != nil {
		return nil
	}
	return &PrepTip{
		Priority: 8,
		RuleID:   "missing_calibration",
		Message:  "Manual counter mode has no calibration table, so positions fall back to a constant rate. Run the calibration wizard against your deck first.",
	}
}

// tipSparseCalibration fires when a calibration table has fewer than
// three checkpoints. Interpolation between two distant marks drifts
// badly mid-tape.
func tipSparseCalibration(facts *SessionFacts) *PrepTip {
	if facts.Mode != counter.ModeManual || facts.Calibration == nil {
		return nil
	}
	n := len(facts.Calibration.Checkpoints)
	if n >= 3 {
		return nil
	}
	return &PrepTip{
		Priority: 6,
		RuleID:   "sparse_calibration",
		Message: fmt.Sprintf("The calibration table has only %d checkpoint(s) - counter positions drift between marks. Measure a few more points across the side.",
			n),
	}
}

// tipHotPeaks fires when loudness normalization pushed peaks to full
// scale, which records hot onto tape. The tape formulation's headroom
// decides how serious that is.
func tipHotPeaks(facts *SessionFacts) *PrepTip {
	if facts.Method != normalize.LUFSMethod {
		return nil
	}
	hot := 0
	for _, t := range facts.Tracks {
		if t.PeakDBFS >= -0.2 {
			hot++
		}
	}
	if hot == 0 {
		return nil
	}
	return &PrepTip{
		Priority: 8,
		RuleID:   "hot_peaks",
		Message: fmt.Sprintf("%d track(s) peak at full scale after loudness normalization - %s tape gives about %.1f dB over reference before saturation, so consider a lower target.",
			hot, facts.Tape.Label(), facts.Tape.HeadroomDB),
	}
}

// tipHighLUFSTarget fires when the loudness target leaves almost no
// peak headroom.
func tipHighLUFSTarget(facts *SessionFacts) *PrepTip {
	if facts.Method != normalize.LUFSMethod || facts.TargetLUFS < -9.0 {
		return nil
	}
	return &PrepTip{
		Priority: 9,
		RuleID:   "high_lufs_target",
		Message: fmt.Sprintf("A %.1f LUFS target leaves very little peak headroom and will saturate most tape. Try -14 to -12 LUFS.",
			facts.TargetLUFS),
	}
}

// tipLowLUFSTarget fires when the loudness target records quietly
// enough that tape hiss sits close to the music.
func tipLowLUFSTarget(facts *SessionFacts) *PrepTip {
	if facts.Method != normalize.LUFSMethod || facts.TargetLUFS > -20.0 {
		return nil
	}
	return &PrepTip{
		Priority: 5,
		RuleID:   "low_lufs_target",
		Message: fmt.Sprintf("A %.1f LUFS target records quietly on cassette and tape hiss sits closer to the music. Aim for -16 to -12 LUFS unless you need the extra dynamics.",
			facts.TargetLUFS),
	}
}

// tipShortLeader fires when the leader gap is shorter than the
// unrecordable leader tape on most cassettes.
func tipShortLeader(facts *SessionFacts) *PrepTip {
	leader := facts.Plan.Options.LeaderSeconds
	if leader >= 4.0 {
		return nil
	}
	return &PrepTip{
		Priority: 7,
		RuleID:   "short_leader",
		Message: fmt.Sprintf("A %gs leader gap risks losing the opening of track 1 to the unrecordable leader tape. Allow at least 5 seconds.",
			leader),
	}
}

// tipQuietSource fires when a track needed more than 20 dB of gain,
// which raises its noise floor by the same amount.
func tipQuietSource(facts *SessionFacts) *PrepTip {
	for _, t := range facts.Tracks {
		if t.FromCache || t.GainDB <= 20.0 {
			continue
		}
		return &PrepTip{
			Priority: 4,
			RuleID:   "quiet_source",
			Message: fmt.Sprintf("%q needed %.0f dB of gain - the source is very quiet and its noise floor comes up with it. A better rip or master would help.",
				t.Name, t.GainDB),
		}
	}
	return nil
}

// tipMainsMismatch fires when a synchronous-motor deck runs on a grid
// frequency it was not designed for. The counter positions are already
// corrected; the pitch shift is what the operator hears.
func tipMainsMismatch(facts *SessionFacts) *PrepTip {
	design := facts.Profile.SyncMotorHz
	local := facts.Mains.FrequencyHz
	if design == 0 || local == 0 || design == local {
		return nil
	}
	direction := "fast"
	if local < design {
		direction = "slow"
	}
	return &PrepTip{
		Priority: 5,
		RuleID:   "mains_mismatch",
		Message: fmt.Sprintf("This deck's synchronous motor was designed for %d Hz mains but your supply is %d Hz, so the transport runs %s and playback pitch shifts with it.",
			design, local, direction),
	}
}

// tipUnusualRate fires when the profile's counter rate is outside the
// range seen on real three-digit counters.
func tipUnusualRate(facts *SessionFacts) *PrepTip {
	rate := facts.Profile.BaseRate
	if rate >= 0.5 && rate <= 2.5 {
		return nil
	}
	return &PrepTip{
		Priority: 4,
		RuleID:   "unusual_counter_rate",
		Message: fmt.Sprintf("A counter rate of %.2f counts/second is outside the usual range for three-digit counters - double-check the deck profile before trusting the positions.",
			rate),
	}
}

// tipLongLatency fires when latency compensation is suspiciously long
// for a record-start delay.
func tipLongLatency(facts *SessionFacts) *PrepTip {
	latency := facts.Plan.Options.LatencySeconds
	if latency <= 0.5 {
		return nil
	}
	return &PrepTip{
		Priority: 3,
		RuleID:   "long_latency",
		Message: fmt.Sprintf("Latency compensation of %.1fs is unusually long - measure the real delay between pressing record and tape rolling, it is usually under half a second.",
			latency),
	}
}
