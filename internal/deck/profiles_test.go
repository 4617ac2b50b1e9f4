package deck

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/reelworks/tapeprep/internal/counter"
)

func TestLookup(t *testing.T) {
	p, err := Lookup("technics-rs-az7")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if p.Label() != "Technics RS-AZ7" {
		t.Errorf("Label() = %q, want %q", p.Label(), "Technics RS-AZ7")
	}

	aiwa, err := Lookup("aiwa-ad-f780")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if aiwa.CounterMode != "manual" {
		t.Errorf("aiwa-ad-f780 counter mode = %q, want %q", aiwa.CounterMode, "manual")
	}

	if _, err := Lookup("walkman"); err == nil {
		t.Error("Lookup accepted an unknown profile")
	}
}

func TestBuiltinProfilesAreValid(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, err := Lookup(name)
			if err != nil {
				t.Fatalf("Lookup returned error: %v", err)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("built-in profile fails validation: %v", err)
			}
		})
	}
}

func TestProfileValidation(t *testing.T) {
	valid := Default()

	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{
			name:   "missing name",
			mutate: func(p *Profile) { p.Name = "" },
		},
		{
			name:   "bad counter mode",
			mutate: func(p *Profile) { p.CounterMode = "guess" },
		},
		{
			name:   "zero base rate",
			mutate: func(p *Profile) { p.BaseRate = 0 },
		},
		{
			name:   "absurd base rate",
			mutate: func(p *Profile) { p.BaseRate = 50 },
		},
		{
			name:   "zero hub radius",
			mutate: func(p *Profile) { p.HubRadiusMM = 0 },
		},
		{
			name:   "tape thicker than leader stock",
			mutate: func(p *Profile) { p.TapeThicknessMM = 0.2 },
		},
		{
			name:   "unsupported motor frequency",
			mutate: func(p *Profile) { p.SyncMotorHz = 45 },
		},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("default profile fails validation: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate accepted a broken profile")
			}
		})
	}
}

func TestLoadCustomProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.json")
	contents := `{"name": "akai-gx", "counter_mode": "static", "base_rate": 1.3}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Name != "akai-gx" || p.BaseRate != 1.3 {
		t.Errorf("loaded profile = %+v, want overridden name and rate", p)
	}
	// Geometry not present in the file inherits the generic values.
	if p.HubRadiusMM != HubRadiusMM || p.TapeThicknessMM != TapeThicknessMM {
		t.Errorf("geometry = %.2f/%.4f, want inherited defaults", p.HubRadiusMM, p.TapeThicknessMM)
	}
}

func TestLoadRejectsBrokenProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.json")
	if err := os.WriteFile(path, []byte(`{"counter_mode": "static"}`), 0o644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a profile with no name")
	}
}

func TestEffectiveSpeed(t *testing.T) {
	servo := Default()
	if got := servo.EffectiveSpeedMMPerS(60); got != TapeSpeedMMPerS {
		t.Errorf("servo deck speed = %.3f, want standard %.3f", got, TapeSpeedMMPerS)
	}

	sync, err := Lookup("philips-n2400")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	got := sync.EffectiveSpeedMMPerS(60)
	want := TapeSpeedMMPerS * 1.2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("50Hz deck on 60Hz supply = %.3f mm/s, want %.3f", got, want)
	}
	if got := sync.EffectiveSpeedMMPerS(50); got != TapeSpeedMMPerS {
		t.Errorf("50Hz deck on 50Hz supply = %.3f mm/s, want standard speed", got)
	}
}

func TestTransportModel(t *testing.T) {
	p := Default()
	table := &counter.Table{
		Checkpoints:   []counter.Checkpoint{{TimeSeconds: 60, Counter: 58}},
		Interpolation: "linear",
	}

	tests := []struct {
		name string
		mode counter.Mode
		want counter.Mode
	}{
		{
			name: "static",
			mode: counter.ModeStatic,
			want: counter.ModeStatic,
		},
		{
			name: "manual",
			mode: counter.ModeManual,
			want: counter.ModeManual,
		},
		{
			name: "auto",
			mode: counter.ModeAuto,
			want: counter.ModeAuto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := p.TransportModel(tt.mode, table, 45, 50)
			if m.Mode() != tt.want {
				t.Errorf("Mode() = %v, want %v", m.Mode(), tt.want)
			}
		})
	}
}

func TestTransportModelMainsCorrection(t *testing.T) {
	// A 50Hz synchronous deck on a 60Hz grid moves tape 20% faster,
	// so the reel fills sooner and the counter rate drops earlier.
	sync, err := Lookup("philips-n2400")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}

	home := sync.TransportModel(counter.ModeAuto, nil, 45, 50)
	abroad := sync.TransportModel(counter.ModeAuto, nil, 45, 60)

	if got, want := abroad.CounterAt(1800), home.CounterAt(1800); got >= want {
		t.Errorf("counter on 60Hz grid = %d, want below the 50Hz reading %d", got, want)
	}
}

func TestTapeByType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain numeral",
			input: "II",
			want:  "II",
		},
		{
			name:  "spelled with prefix",
			input: "type iv",
			want:  "IV",
		},
		{
			name:  "arabic digit",
			input: "2",
			want:  "II",
		},
		{
			name:    "unknown formulation",
			input:   "V",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TapeByType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("TapeByType(%q) accepted an unknown type", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("TapeByType(%q) returned error: %v", tt.input, err)
			}
			if got.Type != tt.want {
				t.Errorf("TapeByType(%q).Type = %q, want %q", tt.input, got.Type, tt.want)
			}
		})
	}
}
