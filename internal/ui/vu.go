package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Meter ballistics. Fast attack keeps transients visible, slow release
// stops the bar flickering at display refresh rates.
const (
	meterAttack  = 0.6
	meterRelease = 0.15

	// peakHold is how long the peak marker stays pinned before it
	// starts to fall.
	peakHold  = 1500 * time.Millisecond
	peakDecay = 0.02
)

// channelMeter is the smoothed state of one VU channel.
type channelMeter struct {
	level  float64 // smoothed bar level, 0.0 to 1.0
	peak   float64 // peak marker position
	heldAt time.Time
}

// step advances the meter towards an instantaneous level.
func (c channelMeter) step(level float64, now time.Time) channelMeter {
	if level > c.level {
		c.level = c.level*(1-meterAttack) + level*meterAttack
	} else {
		c.level = c.level*(1-meterRelease) + level*meterRelease
	}

	if c.level >= c.peak {
		c.peak = c.level
		c.heldAt = now
	} else if now.Sub(c.heldAt) > peakHold {
		c.peak -= peakDecay
		if c.peak < c.level {
			c.peak = c.level
		}
	}

	return c
}

// vuState is the stereo meter pair shown while the tape rolls.
type vuState struct {
	left  channelMeter
	right channelMeter
}

// step feeds one instantaneous stereo level into both meters.
func (v vuState) step(left, right float64, now time.Time) vuState {
	v.left = v.left.step(left, now)
	v.right = v.right.step(right, now)
	return v
}

var (
	vuLowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	vuMidStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFCC00"))
	vuHotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC3300"))
	vuPeakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	vuEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

// renderVUBar renders one meter channel as a bar with a peak-hold
// marker. Levels arrive already normalized to 0.0-1.0.
func renderVUBar(level, peak float64, width int) string {
	filled := int(level * float64(width))
	if filled > width {
		filled = width
	}
	peakPos := int(peak * float64(width))
	if peakPos >= width {
		peakPos = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			// Colour zones: green, yellow, red
			if i < width*6/10 {
				b.WriteString(vuLowStyle.Render("█"))
			} else if i < width*8/10 {
				b.WriteString(vuMidStyle.Render("█"))
			} else {
				b.WriteString(vuHotStyle.Render("█"))
			}
		case i == peakPos && peakPos > 0:
			b.WriteString(vuPeakStyle.Render("|"))
		default:
			b.WriteString(vuEmptyStyle.Render("─"))
		}
	}

	return b.String()
}
