// Package report renders session output for the operator: the deck
// tracklist file, the analysis display, preparation tips and the level
// chart.
// This file contains reusable table formatting for two-column metric
// comparisons (Source → Normalized).

package report

import (
	"fmt"
	"math"
	"strings"
)

// MetricRow represents a single row in a comparison table.
// Values are pre-formatted strings so rows can mix precisions.
type MetricRow struct {
	Label          string   // Row label, e.g. "Peak Level"
	Values         []string // One value per column (Source, Normalized)
	Unit           string   // Unit suffix, e.g. "dBFS", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns for metric comparison.
// Handles variable column widths, missing values, and an optional
// interpretation column.
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// NewMetricTable creates a MetricTable with the standard Source and
// Normalized headers.
func NewMetricTable() *MetricTable {
	return &MetricTable{
		Headers: []string{"Source", "Normalized"},
		Rows:    make([]MetricRow, 0),
	}
}

// AddRow adds a row with pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddMetricRow adds a row with numeric values, formatting them
// automatically. Pass math.NaN() for missing values - they display
// as "-".
func (t *MetricTable) AddMetricRow(label string, source, normalized float64, decimals int, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label: label,
		Values: []string{
			formatMetric(source, decimals),
			formatMetric(normalized, decimals),
		},
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Values are right-aligned within their column
// - Units follow the last value column
// - The interpretation column appears only when some row has one
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	hasInterpretation := false
	for _, row := range t.Rows {
		if row.Interpretation != "" {
			hasInterpretation = true
			break
		}
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	unitWidth := 0
	for _, row := range t.Rows {
		if len(row.Unit) > unitWidth {
			unitWidth = len(row.Unit)
		}
	}

	var sb strings.Builder

	// Header row
	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], header))
	}
	if unitWidth > 0 {
		sb.WriteString(strings.Repeat(" ", unitWidth+1))
	}
	if hasInterpretation {
		sb.WriteString("Interpretation")
	}
	sb.WriteString("\n")

	// Data rows
	for _, row := range t.Rows {
		sb.WriteString(fmt.Sprintf("%-*s  ", labelWidth, row.Label))

		for i := 0; i < len(t.Headers); i++ {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], val))
		}

		if unitWidth > 0 {
			sb.WriteString(fmt.Sprintf("%-*s ", unitWidth, row.Unit))
		}

		if hasInterpretation {
			sb.WriteString(row.Interpretation)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// MissingValue is the placeholder for unavailable measurements.
const MissingValue = "-"

// DigitalSilenceThreshold is the dBFS level below which the signal is
// effectively digital silence. A true digital zero measures as -Inf.
const DigitalSilenceThreshold = -120.0

// isDigitalSilence returns true if the value represents digital silence.
func isDigitalSilence(value float64) bool {
	return math.IsInf(value, -1) || value <= DigitalSilenceThreshold
}

// formatMetric formats a numeric value with the given precision.
// NaN and Inf return MissingValue; very small non-zero values use
// scientific notation.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}

	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}

	format := fmt.Sprintf("%%.%df", decimals)
	return fmt.Sprintf(format, value)
}

// formatMetricDB formats a dB value, showing "< -120" for readings at
// or below the digital silence floor.
func formatMetricDB(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 1) {
		return MissingValue
	}
	if isDigitalSilence(value) {
		return "< -120"
	}
	format := fmt.Sprintf("%%.%df", decimals)
	return fmt.Sprintf(format, value)
}

// LUFSMeasurementFloor is the lowest reliable integrated loudness
// reading. Values below this come from near-silent material and are
// shown as below threshold.
const LUFSMeasurementFloor = -70.0

// formatMetricLUFS formats a LUFS value, showing "< -70" below the
// measurement floor.
func formatMetricLUFS(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 1) {
		return MissingValue
	}
	if value < LUFSMeasurementFloor {
		return "< -70"
	}
	format := fmt.Sprintf("%%.%df", decimals)
	return fmt.Sprintf(format, value)
}

// formatMetricSigned formats a value with an explicit sign for positive
// values, for gain changes like "+6.0" or "-1.2".
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}

	format := fmt.Sprintf("%%+.%df", decimals)
	return fmt.Sprintf(format, value)
}
