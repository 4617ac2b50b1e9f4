package report

import (
	"math"
	"strings"
	"testing"
)

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     string
	}{
		{"regular value", -14.04, 1, "-14.0"},
		{"zero", 0, 1, "0.0"},
		{"two decimals", 1.004, 2, "1.00"},
		{"nan", math.NaN(), 1, "-"},
		{"positive inf", math.Inf(1), 1, "-"},
		{"negative inf", math.Inf(-1), 1, "-"},
		{"tiny value uses scientific", 0.00003, 2, "3.00e-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetric(tt.value, tt.decimals)
			if got != tt.want {
				t.Errorf("formatMetric(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatMetricSigned(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"positive gets sign", 6.02, "+6.0"},
		{"negative keeps sign", -1.2, "-1.2"},
		{"zero", 0, "+0.0"},
		{"nan", math.NaN(), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetricSigned(tt.value, 1)
			if got != tt.want {
				t.Errorf("formatMetricSigned(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatMetricDB(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"normal level", -6.0, "-6.0"},
		{"full scale", 0, "0.0"},
		{"digital silence", math.Inf(-1), "< -120"},
		{"below floor", -130, "< -120"},
		{"nan", math.NaN(), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetricDB(tt.value, 1)
			if got != tt.want {
				t.Errorf("formatMetricDB(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatMetricLUFS(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"normal loudness", -14.0, "-14.0"},
		{"below measurement floor", -82.3, "< -70"},
		{"nan", math.NaN(), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetricLUFS(tt.value, 1)
			if got != tt.want {
				t.Errorf("formatMetricLUFS(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestIsDigitalSilence(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{"negative inf", math.Inf(-1), true},
		{"at threshold", -120.0, true},
		{"below threshold", -140.0, true},
		{"quiet but real", -90.0, false},
		{"full scale", 0.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDigitalSilence(tt.value); got != tt.want {
				t.Errorf("isDigitalSilence(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestMetricTableString(t *testing.T) {
	t.Run("basic_two_column", func(t *testing.T) {
		table := NewMetricTable()
		table.AddRow("Peak Level", []string{"-6.0", "0.0"}, "dBFS", "")
		table.AddRow("Loudness", []string{"-20.1", "-14.0"}, "LUFS", "")

		output := table.String()

		if !strings.Contains(output, "Source") {
			t.Error("Output should contain 'Source' header")
		}
		if !strings.Contains(output, "Normalized") {
			t.Error("Output should contain 'Normalized' header")
		}
		if !strings.Contains(output, "Peak Level") {
			t.Error("Output should contain row label")
		}
		if !strings.Contains(output, "-14.0") {
			t.Error("Output should contain value")
		}
		if !strings.Contains(output, "LUFS") {
			t.Error("Output should contain unit")
		}
	})

	t.Run("with_interpretation", func(t *testing.T) {
		table := NewMetricTable()
		table.AddRow("Peak Level", []string{"-6.0", "0.0"}, "dBFS", "at full scale")

		output := table.String()

		if !strings.Contains(output, "Interpretation") {
			t.Error("Output should contain 'Interpretation' header when rows have interpretations")
		}
		if !strings.Contains(output, "at full scale") {
			t.Error("Output should contain interpretation text")
		}
	})

	t.Run("missing_values", func(t *testing.T) {
		table := NewMetricTable()
		table.AddRow("Gain Applied", []string{"", "+6.0"}, "dB", "")

		output := table.String()

		if !strings.Contains(output, " - ") {
			t.Error("Missing values should display as dash")
		}
	})

	t.Run("empty_table", func(t *testing.T) {
		table := NewMetricTable()
		if output := table.String(); output != "" {
			t.Errorf("Empty table should return empty string, got %q", output)
		}
	})

	t.Run("add_metric_row", func(t *testing.T) {
		table := NewMetricTable()
		table.AddMetricRow("Loudness", -20.1, -14.0, 1, "LUFS", "")

		output := table.String()

		if !strings.Contains(output, "-20.1") {
			t.Error("AddMetricRow should format the source value")
		}
		if !strings.Contains(output, "-14.0") {
			t.Error("AddMetricRow should format the normalized value")
		}
	})

	t.Run("add_metric_row_with_nan", func(t *testing.T) {
		table := NewMetricTable()
		table.AddMetricRow("Loudness", math.NaN(), -14.0, 1, "LUFS", "")

		output := table.String()
		lines := strings.Split(output, "\n")
		if len(lines) < 2 {
			t.Fatal("Expected at least 2 lines (header + data)")
		}
		if !strings.Contains(lines[1], " - ") {
			t.Errorf("NaN value should display as dash in: %q", lines[1])
		}
	})
}

func TestMetricTableAlignment(t *testing.T) {
	table := NewMetricTable()
	table.AddRow("Short", []string{"1", "2"}, "", "")
	table.AddRow("Much Longer Label", []string{"100", "200"}, "", "")

	output := table.String()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines (header + 2 data), got %d", len(lines))
	}

	// Right-aligned values put the Source column's last digit at the
	// same offset on every data row
	sourceEnd := strings.Index(lines[0], "Source") + len("Source")
	for i := 1; i < len(lines); i++ {
		cell := lines[i][:sourceEnd]
		if strings.HasSuffix(cell, " ") {
			t.Errorf("line %d Source column not right-aligned: %q", i, lines[i])
		}
	}
}
