package report

import (
	"strings"
	"testing"

	"github.com/reelworks/tapeprep/internal/counter"
	"github.com/reelworks/tapeprep/internal/deck"
	"github.com/reelworks/tapeprep/internal/mains"
	"github.com/reelworks/tapeprep/internal/normalize"
	"github.com/reelworks/tapeprep/internal/session"
)

// quietFacts builds a session no tip rule complains about: peak
// normalization, static counter, servo transport, plenty of side left.
func quietFacts() *SessionFacts {
	tracks := []*session.Track{
		{Name: "01 - Opener", DurationSeconds: 100, PeakDBFS: 0, GainDB: 3.2},
		{Name: "02 - Closer", DurationSeconds: 150, PeakDBFS: 0, GainDB: 1.1},
	}
	profile, _ := deck.Lookup("generic")
	plan := session.BuildPlan(tracks, counter.Static{BaseRate: 1.0}, session.PlanOptions{
		LeaderSeconds: 10,
		GapSeconds:    5,
		SideSeconds:   45 * 60,
	})
	tape, _ := deck.TapeByType("II")
	return &SessionFacts{
		Plan:       plan,
		Tracks:     tracks,
		Profile:    profile,
		Tape:       tape,
		Method:     normalize.PeakMethod,
		TargetLUFS: normalize.DefaultTargetLUFS,
		Mode:       counter.ModeStatic,
		Mains:      mains.Info{FrequencyHz: 50},
	}
}

func TestQuietSessionGetsNoTips(t *testing.T) {
	tips := GeneratePrepTips(quietFacts())
	if len(tips) != 0 {
		t.Fatalf("GeneratePrepTips() returned %d tips for a quiet session: %+v", len(tips), tips)
	}
}

func TestGeneratePrepTipsNilFacts(t *testing.T) {
	if tips := GeneratePrepTips(nil); tips != nil {
		t.Errorf("GeneratePrepTips(nil) = %+v, want nil", tips)
	}
}

func TestTipSideOverrun(t *testing.T) {
	facts := quietFacts()
	facts.Plan = session.BuildPlan(facts.Tracks, counter.Static{BaseRate: 1.0}, session.PlanOptions{
		LeaderSeconds: 10,
		GapSeconds:    5,
		SideSeconds:   200, // total is 265, so the last track overruns
	})

	tip := tipSideOverrun(facts)
	if tip == nil {
		t.Fatal("tipSideOverrun() did not fire on an overrunning plan")
	}
	if tip.RuleID != "side_overrun" {
		t.Errorf("RuleID = %q, want %q", tip.RuleID, "side_overrun")
	}
	if !strings.Contains(tip.Message, "1:05") {
		t.Errorf("Message %q should name the 1:05 overrun", tip.Message)
	}
	if !strings.Contains(tip.Message, "track 2") {
		t.Errorf("Message %q should name track 2", tip.Message)
	}

	if tip := tipSideOverrun(quietFacts()); tip != nil {
		t.Errorf("tipSideOverrun() fired on a fitting plan: %+v", tip)
	}
}

func TestTipTightFit(t *testing.T) {
	tests := []struct {
		name        string
		sideSeconds float64
		wantTip     bool
	}{
		{"twenty seconds spare", 290, true},
		{"forty seconds spare", 310, false},
		{"no side limit", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := quietFacts()
			facts.Plan = session.BuildPlan(facts.Tracks, counter.Static{BaseRate: 1.0}, session.PlanOptions{
				LeaderSeconds: 10,
				GapSeconds:    5,
				SideSeconds:   tt.sideSeconds,
			})
			tip := tipTightFit(facts)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipTightFit() fired=%v, want %v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != "side_tight_fit" {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, "side_tight_fit")
			}
		})
	}
}

func TestTipMissingCalibration(t *testing.T) {
	facts := quietFacts()
	facts.Mode = counter.ModeManual

	tip := tipMissingCalibration(facts)
	if tip == nil {
		t.Fatal("tipMissingCalibration() did not fire for manual mode without a table")
	}
	if tip.RuleID != "missing_calibration" {
		t.Errorf("RuleID = %q, want %q", tip.RuleID, "missing_calibration")
	}

	facts.Calibration = &counter.Table{Checkpoints: []counter.Checkpoint{{TimeSeconds: 60, Counter: 90}}}
	if tip := tipMissingCalibration(facts); tip != nil {
		t.Errorf("tipMissingCalibration() fired with a table present: %+v", tip)
	}
}

func TestTipSparseCalibration(t *testing.T) {
	tests := []struct {
		name        string
		checkpoints int
		wantTip     bool
	}{
		{"one checkpoint", 1, true},
		{"two checkpoints", 2, true},
		{"three checkpoints", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &counter.Table{}
			for i := 0; i < tt.checkpoints; i++ {
				table.Checkpoints = append(table.Checkpoints, counter.Checkpoint{
					TimeSeconds: float64(60 * (i + 1)),
					Counter:     90 * (i + 1),
				})
			}
			facts := quietFacts()
			facts.Mode = counter.ModeManual
			facts.Calibration = table

			tip := tipSparseCalibration(facts)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipSparseCalibration() fired=%v, want %v", tip != nil, tt.wantTip)
			}
		})
	}
}

func TestTipHotPeaks(t *testing.T) {
	facts := quietFacts()
	facts.Method = normalize.LUFSMethod
	facts.TargetLUFS = -14
	facts.Tracks[0].PeakDBFS = -0.1
	facts.Tracks[1].PeakDBFS = -4.0

	tip := tipHotPeaks(facts)
	if tip == nil {
		t.Fatal("tipHotPeaks() did not fire on a full-scale peak under LUFS")
	}
	if !strings.Contains(tip.Message, "1 track(s)") {
		t.Errorf("Message %q should count one hot track", tip.Message)
	}
	if !strings.Contains(tip.Message, "Type II") {
		t.Errorf("Message %q should name the tape formulation", tip.Message)
	}

	facts.Method = normalize.PeakMethod
	if tip := tipHotPeaks(facts); tip != nil {
		t.Errorf("tipHotPeaks() fired under peak normalization: %+v", tip)
	}

	facts.Method = normalize.LUFSMethod
	facts.Tracks[0].PeakDBFS = -3.0
	if tip := tipHotPeaks(facts); tip != nil {
		t.Errorf("tipHotPeaks() fired with headroom on every track: %+v", tip)
	}
}

func TestTipLUFSTargets(t *testing.T) {
	tests := []struct {
		name       string
		method     normalize.Method
		target     float64
		wantRuleID string
	}{
		{"hot target", normalize.LUFSMethod, -8, "high_lufs_target"},
		{"default target", normalize.LUFSMethod, -14, ""},
		{"quiet target", normalize.LUFSMethod, -23, "low_lufs_target"},
		{"peak method ignores target", normalize.PeakMethod, -8, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := quietFacts()
			facts.Method = tt.method
			facts.TargetLUFS = tt.target

			var got string
			if tip := tipHighLUFSTarget(facts); tip != nil {
				got = tip.RuleID
			}
			if tip := tipLowLUFSTarget(facts); tip != nil {
				got = tip.RuleID
			}
			if got != tt.wantRuleID {
				t.Errorf("target %.1f fired %q, want %q", tt.target, got, tt.wantRuleID)
			}
		})
	}
}

func TestTipShortLeader(t *testing.T) {
	facts := quietFacts()
	facts.Plan.Options.LeaderSeconds = 2

	tip := tipShortLeader(facts)
	if tip == nil {
		t.Fatal("tipShortLeader() did not fire on a 2s leader")
	}
	if tip.RuleID != "short_leader" {
		t.Errorf("RuleID = %q, want %q", tip.RuleID, "short_leader")
	}

	if tip := tipShortLeader(quietFacts()); tip != nil {
		t.Errorf("tipShortLeader() fired on a 10s leader: %+v", tip)
	}
}

func TestTipQuietSource(t *testing.T) {
	facts := quietFacts()
	facts.Tracks[1].GainDB = 26

	tip := tipQuietSource(facts)
	if tip == nil {
		t.Fatal("tipQuietSource() did not fire on a 26 dB boost")
	}
	if !strings.Contains(tip.Message, "02 - Closer") {
		t.Errorf("Message %q should name the quiet track", tip.Message)
	}

	facts.Tracks[1].FromCache = true
	if tip := tipQuietSource(facts); tip != nil {
		t.Errorf("tipQuietSource() fired on a cached rendition: %+v", tip)
	}
}

func TestTipMainsMismatch(t *testing.T) {
	tests := []struct {
		name          string
		designHz      int
		localHz       int
		wantTip       bool
		wantDirection string
	}{
		{"fifty hertz deck abroad", 50, 60, true, "fast"},
		{"sixty hertz deck abroad", 60, 50, true, "slow"},
		{"matching supply", 50, 50, false, ""},
		{"servo transport", 0, 60, false, ""},
		{"unknown supply", 50, 0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := quietFacts()
			facts.Profile.SyncMotorHz = tt.designHz
			facts.Mains = mains.Info{FrequencyHz: tt.localHz}

			tip := tipMainsMismatch(facts)
			if (tip != nil) != tt.wantTip {
				t.Fatalf("tipMainsMismatch() fired=%v, want %v", tip != nil, tt.wantTip)
			}
			if tip != nil && !strings.Contains(tip.Message, tt.wantDirection) {
				t.Errorf("Message %q should say the transport runs %s", tip.Message, tt.wantDirection)
			}
		})
	}
}

func TestTipUnusualRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		wantTip bool
	}{
		{"slow counter", 0.3, true},
		{"typical counter", 1.0, false},
		{"edge of range", 2.5, false},
		{"fast counter", 3.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := quietFacts()
			facts.Profile.BaseRate = tt.rate

			tip := tipUnusualRate(facts)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipUnusualRate(%.2f) fired=%v, want %v", tt.rate, tip != nil, tt.wantTip)
			}
		})
	}
}

func TestTipLongLatency(t *testing.T) {
	facts := quietFacts()
	facts.Plan.Options.LatencySeconds = 1.2

	tip := tipLongLatency(facts)
	if tip == nil {
		t.Fatal("tipLongLatency() did not fire on 1.2s of compensation")
	}

	facts.Plan.Options.LatencySeconds = 0.2
	if tip := tipLongLatency(facts); tip != nil {
		t.Errorf("tipLongLatency() fired on 0.2s of compensation: %+v", tip)
	}
}

func TestGeneratePrepTipsOrderingAndExclusion(t *testing.T) {
	facts := quietFacts()
	facts.Plan = session.BuildPlan(facts.Tracks, counter.Static{BaseRate: 1.0}, session.PlanOptions{
		LeaderSeconds: 2, // short leader
		GapSeconds:    5,
		SideSeconds:   200, // overruns
	})
	facts.Method = normalize.LUFSMethod
	facts.TargetLUFS = -8 // hot target, also leaves peaks at full scale
	facts.Tracks[0].PeakDBFS = 0

	tips := GeneratePrepTips(facts)
	if len(tips) == 0 {
		t.Fatal("GeneratePrepTips() returned nothing for a troubled session")
	}

	if tips[0].RuleID != "side_overrun" {
		t.Errorf("highest priority tip = %q, want side_overrun", tips[0].RuleID)
	}
	for i := 1; i < len(tips); i++ {
		if tips[i].Priority > tips[i-1].Priority {
			t.Errorf("tips out of priority order at %d: %d after %d", i, tips[i].Priority, tips[i-1].Priority)
		}
	}

	for _, tip := range tips {
		if tip.RuleID == "hot_peaks" {
			t.Error("hot_peaks should be excluded when high_lufs_target fires")
		}
		if tip.RuleID == "side_tight_fit" {
			t.Error("side_tight_fit should be excluded when side_overrun fires")
		}
	}
}

func TestGeneratePrepTipsCap(t *testing.T) {
	facts := quietFacts()
	facts.Plan = session.BuildPlan(facts.Tracks, counter.Static{BaseRate: 1.0}, session.PlanOptions{
		LeaderSeconds:  2,
		GapSeconds:     5,
		SideSeconds:    200,
		LatencySeconds: 1.5,
	})
	facts.Method = normalize.LUFSMethod
	facts.TargetLUFS = -23
	facts.Mode = counter.ModeManual // no table: missing_calibration
	facts.Profile.BaseRate = 3.0
	facts.Profile.SyncMotorHz = 50
	facts.Mains = mains.Info{FrequencyHz: 60}
	facts.Tracks[0].GainDB = 30

	tips := GeneratePrepTips(facts)
	if len(tips) != MaxPrepTips {
		t.Errorf("GeneratePrepTips() returned %d tips, want the cap of %d", len(tips), MaxPrepTips)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Hello world",
			maxWidth: 20,
			indent:   "  ",
			want:     "Hello world",
		},
		{
			name:     "long_text_wraps",
			text:     "Measure a few more points across the side",
			maxWidth: 25,
			indent:   "  ",
			want:     "Measure a few more points\n  across the side",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteTips(t *testing.T) {
	var sb strings.Builder
	WriteTips(&sb, []PrepTip{
		{Priority: 10, RuleID: "side_overrun", Message: "The plan overruns the side."},
		{Priority: 7, RuleID: "short_leader", Message: "The leader gap is too short."},
	})

	out := sb.String()
	if !strings.Contains(out, " 1. The plan overruns the side.") {
		t.Errorf("output missing first numbered tip:\n%s", out)
	}
	if !strings.Contains(out, " 2. The leader gap is too short.") {
		t.Errorf("output missing second numbered tip:\n%s", out)
	}
}
