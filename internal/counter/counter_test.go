package counter

import (
	"testing"
)

func TestStaticCounterAt(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		elapsed float64
		want    int
	}{
		{
			name:    "one count per second",
			rate:    1.0,
			elapsed: 60,
			want:    60,
		},
		{
			name:    "fractional rate",
			rate:    0.75,
			elapsed: 100,
			want:    75,
		},
		{
			name:    "floors partial counts",
			rate:    1.5,
			elapsed: 61,
			want:    91,
		},
		{
			name:    "zero rate",
			rate:    0,
			elapsed: 500,
			want:    0,
		},
		{
			name:    "start of tape",
			rate:    1.0,
			elapsed: 0,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Static{BaseRate: tt.rate}
			got := m.CounterAt(tt.elapsed)
			if got != tt.want {
				t.Errorf("CounterAt(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestStaticCounterNeverDecreases(t *testing.T) {
	m := Static{BaseRate: 0.83}
	prev := m.CounterAt(0)
	for elapsed := 0.5; elapsed <= 3600; elapsed += 0.5 {
		got := m.CounterAt(elapsed)
		if got < prev {
			t.Fatalf("CounterAt(%v) = %d, decreased from %d", elapsed, got, prev)
		}
		prev = got
	}
}

func TestManualHitsCheckpoints(t *testing.T) {
	table := &Table{
		Checkpoints: []Checkpoint{
			{TimeSeconds: 60, Counter: 58},
			{TimeSeconds: 300, Counter: 287},
			{TimeSeconds: 1200, Counter: 1080},
		},
		Interpolation: "linear",
	}
	m := Manual{Calibration: table}

	for _, cp := range table.Checkpoints {
		got := m.CounterAt(cp.TimeSeconds)
		if got != cp.Counter {
			t.Errorf("CounterAt(%v) = %d, want checkpoint value %d", cp.TimeSeconds, got, cp.Counter)
		}
	}
}

func TestManualInterpolation(t *testing.T) {
	tests := []struct {
		name        string
		checkpoints []Checkpoint
		elapsed     float64
		want        int
	}{
		{
			name: "midpoint between checkpoints",
			checkpoints: []Checkpoint{
				{TimeSeconds: 60, Counter: 60},
				{TimeSeconds: 300, Counter: 300},
			},
			elapsed: 180,
			want:    180,
		},
		{
			name: "quarter of the way between checkpoints",
			checkpoints: []Checkpoint{
				{TimeSeconds: 100, Counter: 80},
				{TimeSeconds: 300, Counter: 280},
			},
			elapsed: 150,
			want:    130,
		},
		{
			name: "before first checkpoint extrapolates from origin",
			checkpoints: []Checkpoint{
				{TimeSeconds: 60, Counter: 90},
			},
			elapsed: 30,
			want:    45,
		},
		{
			name: "after last checkpoint follows final slope",
			checkpoints: []Checkpoint{
				{TimeSeconds: 60, Counter: 60},
				{TimeSeconds: 300, Counter: 240},
			},
			elapsed: 400,
			want:    315,
		},
		{
			name: "after single checkpoint uses its ratio",
			checkpoints: []Checkpoint{
				{TimeSeconds: 60, Counter: 90},
			},
			elapsed: 120,
			want:    180,
		},
		{
			name: "checkpoint at zero pins the start",
			checkpoints: []Checkpoint{
				{TimeSeconds: 0, Counter: 0},
				{TimeSeconds: 300, Counter: 270},
			},
			elapsed: 150,
			want:    135,
		},
		{
			name: "single checkpoint at zero holds its value",
			checkpoints: []Checkpoint{
				{TimeSeconds: 0, Counter: 10},
			},
			elapsed: 500,
			want:    10,
		},
		{
			name: "decreasing counters are reproduced as entered",
			checkpoints: []Checkpoint{
				{TimeSeconds: 60, Counter: 200},
				{TimeSeconds: 120, Counter: 100},
			},
			elapsed: 90,
			want:    150,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Manual{Calibration: &Table{Checkpoints: tt.checkpoints, Interpolation: "linear"}}
			got := m.CounterAt(tt.elapsed)
			if got != tt.want {
				t.Errorf("CounterAt(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestManualFallsBackWithoutCalibration(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
	}{
		{
			name:  "nil table",
			table: nil,
		},
		{
			name:  "empty table",
			table: &Table{Interpolation: "linear"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Manual{Calibration: tt.table, FallbackRate: 0.9}
			want := Static{BaseRate: 0.9}.CounterAt(200)
			got := m.CounterAt(200)
			if got != want {
				t.Errorf("CounterAt(200) = %d, want static fallback %d", got, want)
			}
		})
	}
}

// c90Side is a Physics model for one side of a C-90 cassette at the
// standard transport speed, using typical mechanism dimensions.
func c90Side(baseRate float64) Physics {
	return Physics{
		BaseRate:        baseRate,
		TapeLengthMM:    45 * 60 * 47.625,
		TapeSpeedMMPerS: 47.625,
		HubRadiusMM:     10.0,
		TapeThicknessMM: 0.016,
	}
}

func TestPhysicsMidpointMatchesBaseRate(t *testing.T) {
	// At the temporal midpoint the take-up radius equals the
	// normalization radius, so the scale factor is exactly one.
	m := c90Side(1.0)
	midpoint := 45 * 60 / 2.0

	got := m.CounterAt(midpoint)
	if got != 1350 {
		t.Errorf("CounterAt(%v) = %d, want 1350", midpoint, got)
	}

	m = c90Side(0.75)
	got = m.CounterAt(midpoint)
	if got != 1012 {
		t.Errorf("CounterAt(%v) = %d, want 1012", midpoint, got)
	}
}

func TestPhysicsRunsFastEarlyAndSlowLate(t *testing.T) {
	m := c90Side(1.0)

	early := m.CounterAt(300) - m.CounterAt(0)
	late := m.CounterAt(2700) - m.CounterAt(2400)
	if early <= late {
		t.Errorf("early window advanced %d counts, late window %d; want early > late", early, late)
	}
	if m.CounterAt(0) != 0 {
		t.Errorf("CounterAt(0) = %d, want 0", m.CounterAt(0))
	}
}

func TestPhysicsCounterNeverDecreases(t *testing.T) {
	m := c90Side(1.1)
	prev := m.CounterAt(0)
	for elapsed := 1.0; elapsed <= 3000; elapsed++ {
		got := m.CounterAt(elapsed)
		if got < prev {
			t.Fatalf("CounterAt(%v) = %d, decreased from %d", elapsed, got, prev)
		}
		prev = got
	}
}

func TestPhysicsSaturatesPastTapeEnd(t *testing.T) {
	// Once the tape is fully wound the scale factor freezes, so the
	// counter keeps advancing at the end-of-tape rate.
	m := c90Side(1.0)

	d1 := m.CounterAt(2760) - m.CounterAt(2730)
	d2 := m.CounterAt(2790) - m.CounterAt(2760)
	if diff := d1 - d2; diff < -1 || diff > 1 {
		t.Errorf("post-end windows advanced %d and %d counts, want a steady rate", d1, d2)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mode
		wantErr bool
	}{
		{
			name:  "static",
			input: "static",
			want:  ModeStatic,
		},
		{
			name:  "manual",
			input: "manual",
			want:  ModeManual,
		},
		{
			name:  "auto",
			input: "auto",
			want:  ModeAuto,
		},
		{
			name:    "unknown mode",
			input:   "physics",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("Mode.String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}
