// Package session prepares source tracks and lays them out on a
// cassette side, mapping each one to tape counter positions.
package session

import (
	"github.com/reelworks/tapeprep/internal/counter"
)

// PlanOptions control how tracks are spaced on the side.
type PlanOptions struct {
	// LeaderSeconds is dead time at the start of the side covering the
	// unrecordable leader tape.
	LeaderSeconds float64
	// GapSeconds of silence between tracks, for track-search decks.
	GapSeconds float64
	// LatencySeconds shifts counter lookups to cover the delay between
	// pressing record and playback actually starting.
	LatencySeconds float64
	// SideSeconds is the usable length of the side; 0 disables the
	// overrun check.
	SideSeconds float64
}

// PlannedTrack is one track placed on the tape timeline.
type PlannedTrack struct {
	Track        *Track
	StartSeconds float64
	EndSeconds   float64
	CounterStart int
	CounterEnd   int
	Overruns     bool // runs past the end of the side
}

// Plan is a full side layout.
type Plan struct {
	Tracks       []PlannedTrack
	Options      PlanOptions
	TotalSeconds float64 // tape time when the last track ends
	Overrun      bool
}

// BuildPlan lays tracks onto the tape timeline in order: leader first,
// then each track separated by the configured gap. Counter positions
// come from the deck's transport model, shifted by the latency
// compensation.
func BuildPlan(tracks []*Track, model counter.Model, opts PlanOptions) Plan {
	plan := Plan{Options: opts}

	cursor := opts.LeaderSeconds
	for i, t := range tracks {
		if i > 0 {
			cursor += opts.GapSeconds
		}
		start := cursor
		end := start + t.DurationSeconds

		planned := PlannedTrack{
			Track:        t,
			StartSeconds: start,
			EndSeconds:   end,
			CounterStart: model.CounterAt(start + opts.LatencySeconds),
			CounterEnd:   model.CounterAt(end + opts.LatencySeconds),
			Overruns:     opts.SideSeconds > 0 && end > opts.SideSeconds,
		}
		plan.Overrun = plan.Overrun || planned.Overruns
		plan.Tracks = append(plan.Tracks, planned)
		cursor = end
	}
	plan.TotalSeconds = cursor
	return plan
}

// RemainingSeconds is the unused tape after the last track, negative
// when the plan overruns the side.
func (p Plan) RemainingSeconds() float64 {
	if p.Options.SideSeconds <= 0 {
		return 0
	}
	return p.Options.SideSeconds - p.TotalSeconds
}

// FirstOverrun returns the index of the first track that crosses the
// end of the side, or -1 when everything fits.
func (p Plan) FirstOverrun() int {
	for i, t := range p.Tracks {
		if t.Overruns {
			return i
		}
	}
	return -1
}
