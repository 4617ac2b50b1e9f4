// Package ui provides the Bubbletea terminal user interface for tapeprep
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/reelworks/tapeprep/internal/counter"
	"github.com/reelworks/tapeprep/internal/report"
	"github.com/reelworks/tapeprep/internal/session"
)

var debugLog *os.File

func init() {
	debugLog, _ = os.OpenFile("tapeprep-ui-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func log(format string, args ...interface{}) {
	if debugLog != nil {
		fmt.Fprintf(debugLog, format+"\n", args...)
	}
}

// TrackStatus represents the preparation state of a single track
type TrackStatus int

const (
	StatusQueued TrackStatus = iota
	StatusPreparing
	StatusReady
	StatusError
)

// Phase is the stage of the recording session the UI is showing
type Phase int

const (
	PhasePreparing Phase = iota
	PhaseReady
	PhaseCountdown
	PhaseGap
	PhaseRecording
	PhaseDone
)

// TrackProgress tracks preparation progress for a single source file
type TrackProgress struct {
	SourcePath string
	Name       string
	Status     TrackStatus

	// DurationSeconds is the probed source length, zero until the
	// pre-scan reports it (or when ffprobe is unavailable)
	DurationSeconds float64

	// Stage tracking
	Stage    session.Stage
	Fraction float64 // 0.0 to 1.0

	StartTime time.Time
	Elapsed   time.Duration

	// Populated when preparation finishes
	Track *session.Track
	Err   error
}

// Model is the Bubbletea model for a recording session: preparation
// queue first, then the live tape view once the countdown ends.
type Model struct {
	// Preparation queue
	Tracks         []TrackProgress
	CurrentIndex   int
	TotalTracks    int
	PreparedTracks int
	FailedTracks   int

	// Side layout, available once preparation finishes
	Plan          session.Plan
	Tips          []report.PrepTip
	TracklistPath string
	PlayerName    string

	// Counter readout state
	Counter counter.Model
	Latency float64

	Phase     Phase
	Countdown int

	// PlayIndex is the planned track rolling (or about to roll) on
	// tape. sideBase is the tape position when the current phase
	// started, phaseStart the wall time it started.
	PlayIndex  int
	sideBase   float64
	phaseStart time.Time
	now        time.Time
	ticking    bool

	meters vuState

	// Global state
	StartTime time.Time
	Done      bool
	Err       error

	// Begin is closed when the operator starts the recording countdown
	Begin chan struct{}
	began bool

	// Channel for receiving session events from the orchestrator
	ProgressChan chan tea.Msg

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model for the given source files. The
// counter model drives the live readout while the tape rolls.
func NewModel(sourcePaths []string, counterModel counter.Model, latencySeconds float64) Model {
	tracks := make([]TrackProgress, len(sourcePaths))
	for i, path := range sourcePaths {
		base := filepath.Base(path)
		tracks[i] = TrackProgress{
			SourcePath: path,
			Name:       strings.TrimSuffix(base, filepath.Ext(base)),
			Status:     StatusQueued,
		}
	}

	return Model{
		Tracks:       tracks,
		CurrentIndex: -1, // no track preparing yet
		TotalTracks:  len(sourcePaths),
		Counter:      counterModel,
		Latency:      latencySeconds,
		PlayIndex:    -1,
		StartTime:    time.Now(),
		Begin:        make(chan struct{}),
		ProgressChan: make(chan tea.Msg, 100), // buffered channel
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter", " ":
			if m.Phase == PhaseReady && !m.began {
				close(m.Begin)
				m.began = true
				m.Phase = PhaseCountdown
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		log("[DEBUG] Window size: %dx%d", m.Width, m.Height)

	case tickMsg:
		m.now = time.Time(msg)
		if m.Done {
			m.ticking = false
			return m, nil
		}
		left, right := m.liveLevels()
		m.meters = m.meters.step(left, right, m.now)
		return m, tickCmd()

	case ProgressMsg:
		log("[DEBUG] ProgressMsg received: %s %.1f%%", msg.Stage, msg.Fraction*100)
		if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Tracks) {
			m.Tracks[m.CurrentIndex] = updateTrackProgress(m.Tracks[m.CurrentIndex], msg)
		}
		return m, waitForProgress(m.ProgressChan)

	case SourceDurationsMsg:
		log("[DEBUG] SourceDurationsMsg received: %d durations", len(msg.Seconds))
		for i, s := range msg.Seconds {
			if i < len(m.Tracks) {
				m.Tracks[i].DurationSeconds = s
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case TrackStartMsg:
		log("[DEBUG] TrackStartMsg received: index=%d, track=%s", msg.TrackIndex, msg.TrackName)
		if msg.TrackIndex >= 0 && msg.TrackIndex < len(m.Tracks) {
			m.CurrentIndex = msg.TrackIndex
			m.Tracks[m.CurrentIndex].Status = StatusPreparing
			m.Tracks[m.CurrentIndex].StartTime = time.Now()
			if msg.TrackName != "" {
				m.Tracks[m.CurrentIndex].Name = msg.TrackName
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case TrackCompleteMsg:
		log("[DEBUG] TrackCompleteMsg received: index=%d", msg.TrackIndex)
		if msg.TrackIndex >= 0 && msg.TrackIndex < len(m.Tracks) {
			tp := &m.Tracks[msg.TrackIndex]
			tp.Track = msg.Track
			tp.Err = msg.Err
			if msg.Err != nil {
				tp.Status = StatusError
				m.FailedTracks++
			} else {
				tp.Status = StatusReady
				m.PreparedTracks++
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case PlanReadyMsg:
		log("[DEBUG] PlanReadyMsg received: %d tracks, %d tips", len(msg.Plan.Tracks), len(msg.Tips))
		m.Plan = msg.Plan
		m.Tips = msg.Tips
		m.TracklistPath = msg.TracklistPath
		m.PlayerName = msg.PlayerName
		m.Phase = PhaseReady
		return m, waitForProgress(m.ProgressChan)

	case CountdownMsg:
		m.Phase = PhaseCountdown
		m.Countdown = msg.SecondsLeft
		return m, waitForProgress(m.ProgressChan)

	case TrackGapMsg:
		log("[DEBUG] TrackGapMsg received: next=%d", msg.NextIndex)
		m.Phase = PhaseGap
		m.PlayIndex = msg.NextIndex
		if msg.NextIndex > 0 && msg.NextIndex <= len(m.Plan.Tracks) {
			m.sideBase = m.Plan.Tracks[msg.NextIndex-1].EndSeconds
		} else {
			m.sideBase = 0
		}
		m.phaseStart = time.Now()
		cmd := m.rollingCmds()
		return m, cmd

	case TrackPlayMsg:
		log("[DEBUG] TrackPlayMsg received: index=%d", msg.TrackIndex)
		m.Phase = PhaseRecording
		m.PlayIndex = msg.TrackIndex
		if msg.TrackIndex >= 0 && msg.TrackIndex < len(m.Plan.Tracks) {
			m.sideBase = m.Plan.Tracks[msg.TrackIndex].StartSeconds
		}
		m.phaseStart = time.Now()
		cmd := m.rollingCmds()
		return m, cmd

	case SessionCompleteMsg:
		log("[DEBUG] SessionCompleteMsg received")
		m.Done = true
		m.Phase = PhaseDone
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nTracks: %d\n", len(m.Tracks))
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	switch m.Phase {
	case PhaseReady:
		return renderReadyView(m)
	case PhaseCountdown:
		return renderCountdownView(m)
	case PhaseGap, PhaseRecording:
		return renderRecordingView(m)
	default:
		return renderPreparingView(m)
	}
}

// rollingCmds re-arms the progress listener and starts the display
// tick the first time the tape rolls.
func (m *Model) rollingCmds() tea.Cmd {
	cmds := []tea.Cmd{waitForProgress(m.ProgressChan)}
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, tickCmd())
	}
	return tea.Batch(cmds...)
}

// sideTime returns the current tape position in seconds.
func (m Model) sideTime() float64 {
	if m.phaseStart.IsZero() || !m.now.After(m.phaseStart) {
		return m.sideBase
	}
	return m.sideBase + m.now.Sub(m.phaseStart).Seconds()
}

// counterReading is the live counter value for the current tape
// position, shifted by the latency compensation like the plan is.
func (m Model) counterReading() int {
	if m.Counter == nil {
		return 0
	}
	return m.Counter.CounterAt(m.sideTime() + m.Latency)
}

// liveLevels samples the rolling track's level series at the current
// tape position. Gaps and the leader read as silence.
func (m Model) liveLevels() (left, right float64) {
	if m.Phase != PhaseRecording {
		return 0, 0
	}
	if m.PlayIndex < 0 || m.PlayIndex >= len(m.Plan.Tracks) {
		return 0, 0
	}
	pt := m.Plan.Tracks[m.PlayIndex]
	if pt.Track == nil {
		return 0, 0
	}
	return pt.Track.Series.AtSeconds(m.sideTime() - pt.StartSeconds)
}

// updateTrackProgress updates a TrackProgress based on a ProgressMsg
func updateTrackProgress(tp TrackProgress, msg ProgressMsg) TrackProgress {
	// Reset the clock when a new stage begins
	if msg.Stage != tp.Stage {
		tp.StartTime = time.Now()
	}

	tp.Stage = msg.Stage
	tp.Fraction = msg.Fraction
	tp.Elapsed = time.Since(tp.StartTime)
	tp.Status = StatusPreparing

	return tp
}

// tickMsg drives the counter readout and meter ballistics
type tickMsg time.Time

// tickCmd returns a command that sends a tick message every 50ms
func tickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForProgress creates a command that waits for session events
func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
