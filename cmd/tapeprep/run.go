package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/reelworks/tapeprep/internal/audio"
	"github.com/reelworks/tapeprep/internal/cli"
	"github.com/reelworks/tapeprep/internal/history"
	"github.com/reelworks/tapeprep/internal/playback"
	"github.com/reelworks/tapeprep/internal/report"
	"github.com/reelworks/tapeprep/internal/session"
	"github.com/reelworks/tapeprep/internal/ui"
)

// countdownSeconds between pressing ENTER and releasing PAUSE.
const countdownSeconds = 10

// runSession drives the full-screen recording flow. The orchestrator
// goroutine prepares tracks, waits for the operator, then paces the
// side in real time; every event reaches the model through its
// progress channel so nothing is lost if the operator quits early.
func runSession(ctx context.Context, cancel context.CancelFunc, cfg runConfig) error {
	model := ui.NewModel(cfg.Sources, cfg.Counter, cfg.Opts.LatencySeconds)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go orchestrate(ctx, cfg, model)

	final, err := p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}

	m, ok := final.(ui.Model)
	if !ok {
		return fmt.Errorf("unexpected final model type %T", final)
	}
	if m.Err != nil {
		return m.Err
	}
	if !m.Done {
		fmt.Println("Session aborted before the side finished. Nothing was logged.")
		return nil
	}

	// The alternate screen took the completion view with it, so print
	// a recap the operator can copy onto the J-card.
	fmt.Printf("Recorded %d track(s), %s of tape.\n", len(m.Plan.Tracks), formatSeconds(m.Plan.TotalSeconds))
	for i, planned := range m.Plan.Tracks {
		fmt.Printf("  %02d. %-32s %04d - %04d  %s\n",
			i+1, planned.Track.Name, planned.CounterStart, planned.CounterEnd,
			formatSeconds(planned.Track.DurationSeconds))
	}
	if m.TracklistPath != "" {
		fmt.Printf("Tracklist: %s\n", m.TracklistPath)
	}

	// A history failure must not fail a side that is already on tape.
	if err := recordHistory(cfg, m.Plan); err != nil {
		cli.PrintWarning(fmt.Sprintf("session not saved to history: %v", err))
	}
	return nil
}

// orchestrate runs the session from preparation through playback and
// reports progress into the model.
func orchestrate(ctx context.Context, cfg runConfig, model ui.Model) {
	ch := model.ProgressChan

	if durations := probeSources(ctx, cfg.Sources); durations != nil {
		if !send(ctx, ch, ui.SourceDurationsMsg{Seconds: durations}) {
			return
		}
	}

	prepared, failed := prepareAll(ctx, cfg, func(msg tea.Msg) bool {
		return send(ctx, ch, msg)
	})
	if len(prepared) == 0 {
		send(ctx, ch, ui.SessionCompleteMsg{Err: fmt.Errorf("none of the %d tracks could be prepared", failed)})
		return
	}

	plan := session.BuildPlan(prepared, cfg.Counter, cfg.Opts)
	tips := report.GeneratePrepTips(&report.SessionFacts{
		Plan:        plan,
		Tracks:      prepared,
		Profile:     cfg.Profile,
		Tape:        cfg.Tape,
		Method:      cfg.Method,
		TargetLUFS:  cfg.TargetLUFS,
		Mode:        cfg.Mode,
		Calibration: cfg.Table,
		Mains:       cfg.Mains,
	})

	tracklistPath, err := report.WriteTracklist(cfg.ReportDir, report.TracklistData{
		Plan:            plan,
		Profile:         cfg.Profile,
		Tape:            cfg.Tape,
		Model:           cfg.Counter,
		Method:          cfg.Method,
		TargetLUFS:      cfg.TargetLUFS,
		SideMinutes:     cfg.SideMinutes,
		Calibration:     cfg.Table,
		CalibrationPath: cfg.TablePath,
		Mains:           cfg.Mains,
		Tips:            tips,
	})
	if err != nil {
		send(ctx, ch, ui.SessionCompleteMsg{Err: err})
		return
	}
	if cfg.ChartPath != "" {
		if err := report.WriteLevelChart(cfg.ChartPath, prepared); err != nil {
			send(ctx, ch, ui.SessionCompleteMsg{Err: err})
			return
		}
	}

	player := playback.NewPlayer()
	if !send(ctx, ch, ui.PlanReadyMsg{Plan: plan, Tips: tips, TracklistPath: tracklistPath, PlayerName: player.Name()}) {
		return
	}

	// The deck is armed only once the operator says so.
	select {
	case <-model.Begin:
	case <-ctx.Done():
		return
	}

	for s := countdownSeconds; s > 0; s-- {
		if !send(ctx, ch, ui.CountdownMsg{SecondsLeft: s}) {
			return
		}
		if !wait(ctx, time.Second) {
			return
		}
	}

	if err := playPlan(ctx, plan, player, ch); err != nil {
		send(ctx, ch, ui.SessionCompleteMsg{Err: err})
		return
	}
	if ctx.Err() != nil {
		return
	}

	send(ctx, ch, ui.SessionCompleteMsg{})
}

// probeSources returns the rough length of each source so the queue
// shows track times before any decoding starts. Returns nil when
// ffprobe is missing or the run is cancelled mid-scan; files that fail
// to probe read as zero.
func probeSources(ctx context.Context, sources []string) []float64 {
	if !audio.HaveFFprobe() {
		return nil
	}
	durations := make([]float64, len(sources))
	for i, src := range sources {
		if ctx.Err() != nil {
			return nil
		}
		d, err := audio.ProbeDuration(ctx, src)
		if err != nil {
			continue
		}
		durations[i] = d
	}
	return durations
}

// prepareAll runs the preparation pipeline over every source in order.
// Failed tracks are reported and skipped so one broken file does not
// sink the whole side.
func prepareAll(ctx context.Context, cfg runConfig, emit func(tea.Msg) bool) (prepared []*session.Track, failed int) {
	for i, src := range cfg.Sources {
		if !emit(ui.TrackStartMsg{TrackIndex: i, TrackName: displayName(src)}) {
			return prepared, failed
		}

		track, err := cfg.Preparer.PrepareTrack(ctx, src, func(stage session.Stage, fraction float64) {
			emit(ui.ProgressMsg{Stage: stage, Fraction: fraction})
		})
		if ctx.Err() != nil {
			return prepared, failed
		}
		if err != nil {
			failed++
		} else {
			prepared = append(prepared, track)
		}
		if !emit(ui.TrackCompleteMsg{TrackIndex: i, Track: track, Err: err}) {
			return prepared, failed
		}
	}
	return prepared, failed
}

// playPlan paces the side in real time: leader, then each track with
// its gap, feeding the playback backend so the operator hears exactly
// what the deck is recording.
func playPlan(ctx context.Context, plan session.Plan, player playback.Player, ch chan tea.Msg) error {
	for i, planned := range plan.Tracks {
		gap := plan.Options.GapSeconds
		if i == 0 {
			gap = plan.Options.LeaderSeconds
		}

		if !send(ctx, ch, ui.TrackGapMsg{NextIndex: i}) {
			return nil
		}
		if !wait(ctx, secondsToDuration(gap)) {
			return nil
		}

		if !send(ctx, ch, ui.TrackPlayMsg{TrackIndex: i}) {
			return nil
		}
		err := player.Play(ctx, planned.Track.CachePath, secondsToDuration(planned.Track.DurationSeconds))
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("playback stopped at track %d (%s): %w", i+1, planned.Track.Name, err)
		}
	}
	return nil
}

// recordHistory logs the finished side.
func recordHistory(cfg runConfig, plan session.Plan) error {
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := history.Session{
		Deck:          cfg.Profile.Label(),
		TapeType:      cfg.Tape.Type,
		SideMinutes:   cfg.SideMinutes,
		CounterMode:   cfg.Mode.String(),
		Normalization: cfg.Method.String(),
		TotalSeconds:  plan.TotalSeconds,
		Overrun:       plan.Overrun,
	}
	tracks := make([]history.TrackRecord, 0, len(plan.Tracks))
	for i, planned := range plan.Tracks {
		tracks = append(tracks, history.TrackRecord{
			Position:        i + 1,
			Name:            planned.Track.Name,
			DurationSeconds: planned.Track.DurationSeconds,
			CounterStart:    planned.CounterStart,
			CounterEnd:      planned.CounterEnd,
			PeakDBFS:        planned.Track.PeakDBFS,
			LoudnessLUFS:    planned.Track.LoudnessLUFS,
			HasLoudness:     planned.Track.HasLoudness,
		})
	}

	_, err = store.RecordSession(sess, tracks)
	return err
}

// runAnalyze measures every track and prints the reports once the
// spinner UI has wound down. Results print after the program exits so
// they survive on the scrollback.
func runAnalyze(ctx context.Context, cancel context.CancelFunc, cfg runConfig) error {
	model := ui.NewAnalysisModel(len(cfg.Sources))
	p := tea.NewProgram(model)

	tracks := make([]*session.Track, len(cfg.Sources))
	errs := make([]error, len(cfg.Sources))
	go func() {
		for i, src := range cfg.Sources {
			p.Send(ui.TrackStartMsg{TrackIndex: i, TrackName: displayName(src)})
			track, err := cfg.Preparer.PrepareTrack(ctx, src, func(stage session.Stage, fraction float64) {
				p.Send(ui.ProgressMsg{Stage: stage, Fraction: fraction})
			})
			if ctx.Err() != nil {
				return
			}
			tracks[i], errs[i] = track, err
			p.Send(ui.TrackCompleteMsg{TrackIndex: i, Track: track, Err: err})
		}
		p.Send(ui.AllAnalyzedMsg{})
	}()

	final, err := p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}

	m, ok := final.(ui.AnalysisModel)
	if !ok {
		return fmt.Errorf("unexpected final model type %T", final)
	}
	if !m.Done {
		fmt.Println("Analysis aborted.")
		return nil
	}

	var analyzed []*session.Track
	for i := range cfg.Sources {
		if errs[i] != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", displayName(cfg.Sources[i]), errs[i])
			continue
		}
		report.DisplayTrackAnalysis(os.Stdout, tracks[i])
		analyzed = append(analyzed, tracks[i])
	}

	if cfg.ChartPath != "" && len(analyzed) > 0 {
		if err := report.WriteLevelChart(cfg.ChartPath, analyzed); err != nil {
			return err
		}
		fmt.Printf("Level chart written to %s\n", cfg.ChartPath)
	}

	if len(analyzed) == 0 {
		return fmt.Errorf("all %d tracks failed analysis", len(cfg.Sources))
	}
	return nil
}

// send delivers a message to the model unless the run is shutting
// down. Callers treat false as a stop signal.
func send(ctx context.Context, ch chan tea.Msg, msg tea.Msg) bool {
	select {
	case ch <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// wait sleeps for d, returning false if the run is cancelled first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// displayName is the track name shown for a source path.
func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
