package ui

import (
	"github.com/reelworks/tapeprep/internal/report"
	"github.com/reelworks/tapeprep/internal/session"
)

// SourceDurationsMsg carries probed track lengths from the pre-scan,
// indexed like the source list. A zero entry means the probe failed
// for that file.
type SourceDurationsMsg struct {
	Seconds []float64
}

// TrackStartMsg indicates preparation of a source file has started
type TrackStartMsg struct {
	TrackIndex int
	TrackName  string
}

// ProgressMsg represents a preparation progress update for the active track
type ProgressMsg struct {
	Stage    session.Stage
	Fraction float64 // 0.0 to 1.0
}

// TrackCompleteMsg indicates a track has finished preparation
type TrackCompleteMsg struct {
	TrackIndex int
	Track      *session.Track
	Err        error
}

// PlanReadyMsg carries the side layout once every track is prepared and
// the tracklist file is on disk
type PlanReadyMsg struct {
	Plan          session.Plan
	Tips          []report.PrepTip
	TracklistPath string
	PlayerName    string // playback backend, "ffplay" or "simulation"
}

// CountdownMsg ticks down the seconds until the tape starts rolling
type CountdownMsg struct {
	SecondsLeft int
}

// TrackGapMsg indicates silence is rolling ahead of a track: the leader
// before track 0, the inter-track gap otherwise
type TrackGapMsg struct {
	NextIndex int
}

// TrackPlayMsg indicates playback of a planned track has started
type TrackPlayMsg struct {
	TrackIndex int
}

// SessionCompleteMsg indicates the recording session has finished
type SessionCompleteMsg struct {
	Err error
}
