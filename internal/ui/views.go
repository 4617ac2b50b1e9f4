package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/reelworks/tapeprep/internal/report"
	"github.com/reelworks/tapeprep/internal/session"
)

// renderPreparingView renders the track preparation queue
func renderPreparingView(m Model) string {
	var b strings.Builder

	// Header
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	// Track queue
	b.WriteString(renderTrackQueue(m))
	b.WriteString("\n\n")

	// Overall progress
	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#CC5500")).
		Render("Tapeprep 📼 - Cassette Recording Assistant")

	var phase string
	switch m.Phase {
	case PhaseReady:
		phase = "Side plan ready"
	case PhaseCountdown:
		phase = "Get ready"
	case PhaseGap, PhaseRecording:
		phase = "Tape rolling"
	default:
		phase = fmt.Sprintf("Preparing %d track(s)", m.TotalTracks)
	}

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(phase)

	return title + "\n" + subtitle
}

// renderTrackQueue renders the list of tracks with their status
func renderTrackQueue(m Model) string {
	var b strings.Builder

	for i, track := range m.Tracks {
		b.WriteString(renderTrackEntry(track, i, m.CurrentIndex))
		b.WriteString("\n")
	}

	return b.String()
}

// renderTrackEntry renders a single track entry in the queue
func renderTrackEntry(track TrackProgress, index int, currentIndex int) string {
	switch track.Status {
	case StatusReady:
		// ✓ prepared track with measurement summary
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, track.Name, trackSummary(track))

	case StatusPreparing:
		// ⚙ active track with detailed progress
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
		return fmt.Sprintf(" %s %s\n%s", icon, track.Name, renderTrackDetails(track))

	case StatusError:
		// ✗ failed track
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, track.Name, track.Err)

	default:
		// ○ queued track
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		queued := "Queued..."
		if track.DurationSeconds > 0 {
			queued = fmt.Sprintf("Queued (%s)", formatTape(track.DurationSeconds))
		}
		return fmt.Sprintf(" %s %s\n   %s", icon, track.Name, queued)
	}
}

// trackSummary describes a prepared track in one line
func trackSummary(track TrackProgress) string {
	t := track.Track
	if t == nil {
		return "Ready"
	}

	summary := fmt.Sprintf("Peak: %.1f dBFS | Gain: %+.1f dB | %s",
		t.PeakDBFS, t.GainDB, formatTape(t.DurationSeconds))
	if t.HasLoudness {
		summary = fmt.Sprintf("%.1f LUFS | %s", t.LoudnessLUFS, summary)
	}
	if t.FromCache {
		summary += " (cached)"
	}
	return summary
}

// renderTrackDetails renders detailed progress for the active track
func renderTrackDetails(track TrackProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#CC5500")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	// Stage indicator
	content.WriteString(fmt.Sprintf("Stage %d/3: %s\n", int(track.Stage)+1, track.Stage))

	// Progress bar
	content.WriteString(renderProgressBar(track.Fraction, 40))
	content.WriteString("\n\n")

	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs", track.Elapsed.Seconds()))

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %d%%", bar, percentage)
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Tracks) && m.Phase == PhasePreparing {
		content = fmt.Sprintf("Preparing track %d of %d (%d ready)",
			m.CurrentIndex+1, m.TotalTracks, m.PreparedTracks)
	} else {
		content = fmt.Sprintf("Overall Progress: %d/%d ready", m.PreparedTracks, m.TotalTracks)
	}

	return box.Render(content)
}

// renderReadyView renders the side plan and waits for the operator
func renderReadyView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#CC5500")).
		Padding(0, 1).
		Width(64)

	var content strings.Builder
	content.WriteString("Side plan\n\n")
	for i, pt := range m.Plan.Tracks {
		line := fmt.Sprintf("%02d. %-30s %04d - %04d  %s",
			i+1, truncateName(pt.Track.Name, 30),
			pt.CounterStart, pt.CounterEnd,
			formatTape(pt.Track.DurationSeconds))
		if pt.Overruns {
			line += " ⚠"
		}
		content.WriteString(line)
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("Total: %s", formatTape(m.Plan.TotalSeconds)))
	if m.Plan.Options.SideSeconds > 0 {
		if m.Plan.Overrun {
			over := m.Plan.TotalSeconds - m.Plan.Options.SideSeconds
			content.WriteString(fmt.Sprintf(" | Overrun: %s past the side ⚠", formatTape(over)))
		} else {
			content.WriteString(fmt.Sprintf(" | Remaining: %s", formatTape(m.Plan.RemainingSeconds())))
		}
	}
	b.WriteString(box.Render(content.String()))
	b.WriteString("\n")

	if m.TracklistPath != "" {
		path := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Render("Tracklist: " + m.TracklistPath)
		b.WriteString(path)
		b.WriteString("\n")
	}

	if len(m.Tips) > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Preparation tips"))
		b.WriteString("\n")
		var tips strings.Builder
		report.WriteTips(&tips, m.Tips)
		b.WriteString(tips.String())
	}

	key := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	prompt := fmt.Sprintf("\nZero the deck counter and hold RECORD+PAUSE, then press %s to start the countdown. %s quits.",
		key.Render("ENTER"), key.Render("q"))
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(prompt))

	return b.String()
}

// renderCountdownView renders the countdown before the tape rolls
func renderCountdownView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	rec := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000")).Render("● REC")
	if m.Countdown > 0 {
		b.WriteString(fmt.Sprintf(" %s  Tape starts in %ds\n\n", rec, m.Countdown))
	} else {
		b.WriteString(fmt.Sprintf(" %s  Rolling...\n\n", rec))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	b.WriteString(muted.Render(" Release PAUSE when the countdown hits zero."))
	b.WriteString("\n")
	if len(m.Plan.Tracks) > 0 {
		first := m.Plan.Tracks[0]
		b.WriteString(muted.Render(fmt.Sprintf(" Leader runs %gs, then 01. %s (%s).",
			m.Plan.Options.LeaderSeconds, first.Track.Name, formatTape(first.Track.DurationSeconds))))
		b.WriteString("\n")
	}

	return b.String()
}

// renderRecordingView renders the live tape view
func renderRecordingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderCounterBox(m))
	b.WriteString("\n\n")

	if m.Phase == PhaseGap {
		b.WriteString(renderGapLine(m))
	} else {
		b.WriteString(renderActiveTrack(m))
	}
	b.WriteString("\n\n")

	// VU meters
	b.WriteString(fmt.Sprintf(" L  %s\n", renderVUBar(m.meters.left.level, m.meters.left.peak, 40)))
	b.WriteString(fmt.Sprintf(" R  %s\n", renderVUBar(m.meters.right.level, m.meters.right.peak, 40)))

	if m.Phase == PhaseRecording && m.PlayIndex+1 < len(m.Plan.Tracks) {
		next := m.Plan.Tracks[m.PlayIndex+1]
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).
			Render(fmt.Sprintf("\n Next: %02d. %s (%s)",
				m.PlayIndex+2, next.Track.Name, formatTape(next.Track.DurationSeconds))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	var content string
	if m.Phase == PhaseGap {
		content = fmt.Sprintf("Tape rolling | %d of %d tracks recorded", m.PlayIndex, len(m.Plan.Tracks))
	} else {
		content = fmt.Sprintf("Recording track %d of %d", m.PlayIndex+1, len(m.Plan.Tracks))
	}
	if m.PlayerName != "" {
		content += " | output: " + m.PlayerName
	}
	b.WriteString(box.Render(content))

	return b.String()
}

// renderCounterBox renders the live counter readout
func renderCounterBox(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#CC5500")).
		Padding(0, 1).
		Width(60)

	counter := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).
		Render(fmt.Sprintf("%04d", m.counterReading()))

	tape := formatTape(m.sideTime())
	if m.Plan.Options.SideSeconds > 0 {
		tape += " / " + formatTape(m.Plan.Options.SideSeconds)
	}

	return box.Render(fmt.Sprintf("COUNTER  %s      TAPE  %s", counter, tape))
}

// renderActiveTrack renders the track currently going to tape
func renderActiveTrack(m Model) string {
	if m.PlayIndex < 0 || m.PlayIndex >= len(m.Plan.Tracks) {
		return ""
	}
	pt := m.Plan.Tracks[m.PlayIndex]

	elapsed := m.sideTime() - pt.StartSeconds
	duration := pt.Track.DurationSeconds
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > duration {
		elapsed = duration
	}
	var fraction float64
	if duration > 0 {
		fraction = elapsed / duration
	}

	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Render("●")
	line := fmt.Sprintf(" %s %02d. %s  [%s / %s]",
		icon, m.PlayIndex+1, pt.Track.Name, formatTape(elapsed), formatTape(duration))
	if pt.Overruns {
		line += lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000")).Render("  ⚠ past side end")
	}

	return line + "\n   " + renderProgressBar(fraction, 40)
}

// renderGapLine renders the silence ahead of the next track
func renderGapLine(m Model) string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	if m.PlayIndex < 0 || m.PlayIndex >= len(m.Plan.Tracks) {
		return muted.Render(" ○ Tape rolling...")
	}
	pt := m.Plan.Tracks[m.PlayIndex]

	wait := pt.StartSeconds - m.sideTime()
	if wait < 0 {
		wait = 0
	}
	label := "Gap"
	if m.PlayIndex == 0 {
		label = "Leader"
	}
	return muted.Render(fmt.Sprintf(" ○ %s rolling | %02d. %s starts in %.0fs",
		label, m.PlayIndex+1, pt.Track.Name, wait))
}

// renderCompletionSummary renders the final session summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	if m.Err != nil {
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CC0000")).
			Render("✗ Recording session failed")
		b.WriteString(header)
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Error: %v\n\n", m.Err))
	} else {
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00AA00")).
			Render("✨ Recording session complete!")
		b.WriteString(header)
		b.WriteString("\n\n")
	}

	for i, pt := range m.Plan.Tracks {
		b.WriteString(renderRecordedTrack(m, i, pt))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Side time: %s", formatTape(m.Plan.TotalSeconds)))
	if m.Plan.Options.SideSeconds > 0 && !m.Plan.Overrun {
		b.WriteString(fmt.Sprintf(" | Remaining: %s", formatTape(m.Plan.RemainingSeconds())))
	}
	b.WriteString("\n")
	if m.TracklistPath != "" {
		b.WriteString(fmt.Sprintf("Tracklist: %s\n", m.TracklistPath))
	}
	if m.Err == nil {
		b.WriteString("All tracks on tape and logged to the session history ✓\n")
		b.WriteString("Label the cassette using the tracklist counter positions.\n")
	}

	return b.String()
}

// renderRecordedTrack renders one line of the completion summary
func renderRecordedTrack(m Model, index int, pt session.PlannedTrack) string {
	var icon string
	switch {
	case m.Err == nil || index < m.PlayIndex:
		icon = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
	case index == m.PlayIndex:
		icon = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000")).Render("✗")
	default:
		icon = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
	}

	return fmt.Sprintf(" %s %02d. %s\n   Counter %04d - %04d | %s | peak %.1f dBFS",
		icon, index+1, pt.Track.Name,
		pt.CounterStart, pt.CounterEnd,
		formatTape(pt.Track.DurationSeconds), pt.Track.PeakDBFS)
}

// truncateName shortens a track name to fit a fixed column
func truncateName(name string, max int) string {
	r := []rune(name)
	if len(r) <= max {
		return name
	}
	return string(r[:max-1]) + "…"
}

// formatTape formats a tape position as MM:SS
func formatTape(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
