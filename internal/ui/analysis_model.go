package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/reelworks/tapeprep/internal/session"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// AnalysisModel is the Bubbletea model for analyze-only mode. It shows
// a spinner with per-track stage progress while measurements run; the
// analysis reports print after the program exits.
type AnalysisModel struct {
	// Track being analyzed
	TrackName   string
	TrackIndex  int
	TotalTracks int

	// Progress tracking
	Stage     session.Stage
	Fraction  float64 // 0.0 to 1.0 within the stage
	StartTime time.Time

	// Spinner state
	spinnerIndex int

	// Results
	Analyzed int
	Failed   int
	Done     bool

	// Terminal dimensions
	Width  int
	Height int
}

// AllAnalyzedMsg signals every track has been measured
type AllAnalyzedMsg struct{}

// NewAnalysisModel creates a new analysis UI model
func NewAnalysisModel(totalTracks int) AnalysisModel {
	return AnalysisModel{
		TrackIndex:  -1,
		TotalTracks: totalTracks,
		StartTime:   time.Now(),
	}
}

// Init initializes the model
func (m AnalysisModel) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages and updates the model
func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			// Advance spinner
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
		return m, nil

	case TrackStartMsg:
		m.TrackName = msg.TrackName
		m.TrackIndex = msg.TrackIndex
		m.Stage = session.StageDecode
		m.Fraction = 0
		return m, nil

	case ProgressMsg:
		m.Stage = msg.Stage
		m.Fraction = msg.Fraction
		return m, nil

	case TrackCompleteMsg:
		if msg.Err != nil {
			m.Failed++
		} else {
			m.Analyzed++
		}
		return m, nil

	case AllAnalyzedMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m AnalysisModel) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	// Header
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#CC5500")).
		Render("Tapeprep")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render("Analysis Mode")

	b.WriteString(title + " " + subtitle)
	b.WriteString("\n\n")

	if m.TrackName == "" {
		b.WriteString("Waiting...")
		return b.String()
	}

	// Track being analyzed
	trackStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true)

	b.WriteString("Analyzing: ")
	b.WriteString(trackStyle.Render(m.TrackName))
	if m.TotalTracks > 1 {
		b.WriteString(fmt.Sprintf(" (%d of %d)", m.TrackIndex+1, m.TotalTracks))
	}
	b.WriteString("\n\n")

	// Progress bar with spinner
	elapsed := time.Since(m.StartTime)
	spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#CC5500"))
	spinner := spinnerStyle.Render(spinnerFrames[m.spinnerIndex])

	progress := (float64(m.Stage) + m.Fraction) / 3
	if progress > 0 && progress < 1.0 {
		// Determinate progress bar with spinner
		b.WriteString(spinner)
		b.WriteString(" ")
		b.WriteString(renderAnalysisProgressBar(progress, 40, elapsed))
	} else if !m.Done {
		// Indeterminate spinner
		b.WriteString(spinner)
		b.WriteString(" Processing...")
		b.WriteString(fmt.Sprintf(" [%s]", formatElapsed(elapsed)))
	}

	b.WriteString("\n")

	if !m.Done {
		b.WriteString(fmt.Sprintf("\nStage: %s", m.Stage))
	}

	return b.String()
}

// renderAnalysisProgressBar renders a progress bar with percentage and elapsed time
func renderAnalysisProgressBar(progress float64, width int, elapsed time.Duration) string {
	filled := int(progress * float64(width))
	empty := width - filled

	// Use Unicode box drawing characters for a cleaner look
	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#CC5500"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))

	percentage := int(progress * 100)

	return fmt.Sprintf("%s %3d%% [%s]", bar, percentage, formatElapsed(elapsed))
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
