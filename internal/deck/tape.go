package deck

import (
	"fmt"
	"strings"
)

// Tape describes an IEC cassette tape formulation. HeadroomDB is the
// approximate maximum output level above reference before saturation
// at 315Hz, which the recording tips use to judge hot material.
type Tape struct {
	Type       string // IEC type number, "I" through "IV"
	Name       string
	Material   string
	EQMicrosec int // playback equalization time constant
	HeadroomDB float64
	Bias       string // bias setting printed on the tracklist
	Sound      string // character note printed on the tracklist
	Shell      string // detection notch layout on the cassette shell
}

// tapeTypes covers the four IEC formulations.
var tapeTypes = []Tape{
	{
		Type:       "I",
		Name:       "ferric",
		Material:   "Ferric oxide",
		EQMicrosec: 120,
		HeadroomDB: 3.0,
		Bias:       "Normal bias (120us EQ)",
		Sound:      "Solid bass, limited high-frequency detail",
		Shell:      "Write-protect tabs only",
	},
	{
		Type:       "II",
		Name:       "chrome",
		Material:   "Chromium dioxide",
		EQMicrosec: 70,
		HeadroomDB: 4.5,
		Bias:       "High bias (70us EQ)",
		Sound:      "Crisp highs, lower hiss",
		Shell:      "Extra detection notches",
	},
	{
		Type:       "III",
		Name:       "ferrichrome",
		Material:   "Ferric and chrome dual layer",
		EQMicrosec: 70,
		HeadroomDB: 4.0,
		Bias:       "High bias (70us EQ)",
		Sound:      "Type I bass with Type II highs",
		Shell:      "Distinct notch pattern",
	},
	{
		Type:       "IV",
		Name:       "metal",
		Material:   "Pure metal particle",
		EQMicrosec: 70,
		HeadroomDB: 7.0,
		Bias:       "Metal bias (70us EQ)",
		Sound:      "Highest output, widest dynamics",
		Shell:      "Third center notch set",
	},
}

// TapeByType looks up a formulation by IEC number, accepting "II",
// "type ii" or "2" style spellings.
func TapeByType(s string) (Tape, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "TYPE")
	key = strings.TrimSpace(key)
	switch key {
	case "1":
		key = "I"
	case "2":
		key = "II"
	case "3":
		key = "III"
	case "4":
		key = "IV"
	}
	for _, t := range tapeTypes {
		if t.Type == key {
			return t, nil
		}
	}
	return Tape{}, fmt.Errorf("unknown tape type %q (valid: I, II, III, IV)", s)
}

// Label renders the formulation for reports, e.g. "Type II (chrome)".
func (t Tape) Label() string {
	return fmt.Sprintf("Type %s (%s)", t.Type, t.Name)
}
