package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/reelworks/tapeprep/internal/cli"
	"github.com/reelworks/tapeprep/internal/playback"
	"github.com/reelworks/tapeprep/internal/report"
	"github.com/reelworks/tapeprep/internal/session"
)

// runPlainSession is the recording flow for dumb terminals and logs:
// progress bars instead of the full-screen UI, same side plan and
// pacing underneath.
func runPlainSession(ctx context.Context, cfg runConfig) error {
	tracks, errs := plainPrepare(ctx, cfg, "[cyan][1/2][reset] Normalizing tracks...")
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var prepared []*session.Track
	for i := range cfg.Sources {
		switch {
		case errs[i] != nil:
			fmt.Fprintf(os.Stderr, "Error preparing %s: %v\n", displayName(cfg.Sources[i]), errs[i])
		case tracks[i] != nil:
			prepared = append(prepared, tracks[i])
		}
	}
	if len(prepared) == 0 {
		return fmt.Errorf("none of the %d tracks could be prepared", len(cfg.Sources))
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
		return err
	}
	if cfg.ChartPath != "" {
		if err := report.WriteLevelChart(cfg.ChartPath, prepared); err != nil {
			return err
		}
	}

	player := playback.NewPlayer()

	fmt.Printf("\nSide plan (%s, %s, %d min/side):\n", cfg.Profile.Label(), cfg.Tape.Label(), cfg.SideMinutes)
	for i, planned := range plan.Tracks {
		overrun := ""
		if planned.Overruns {
			overrun = "  OVERRUN"
		}
		fmt.Printf(" %02d. %-32s %04d - %04d  %s%s\n",
			i+1, planned.Track.Name, planned.CounterStart, planned.CounterEnd,
			formatSeconds(planned.Track.DurationSeconds), overrun)
	}
	if plan.Overrun {
		fmt.Printf("Total: %s, past the end of the side\n", formatSeconds(plan.TotalSeconds))
	} else if cfg.Opts.SideSeconds > 0 {
		fmt.Printf("Total: %s, %s left on the side\n",
			formatSeconds(plan.TotalSeconds), formatSeconds(cfg.Opts.SideSeconds-plan.TotalSeconds))
	}
	fmt.Printf("Tracklist: %s\n", tracklistPath)
	fmt.Printf("Output: %s\n", player.Name())
	if len(tips) > 0 {
		fmt.Println("\nPreparation tips:")
		report.WriteTips(os.Stdout, tips)
	}

	fmt.Println("\nZero the deck counter and hold RECORD+PAUSE, then press ENTER to start the countdown.")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		fmt.Println("Session aborted.")
		return nil
	}

	for s := countdownSeconds; s > 0; s-- {
		fmt.Printf("\rRelease PAUSE in %2d...", s)
		if !wait(ctx, time.Second) {
			fmt.Println()
			return ctx.Err()
		}
	}
	fmt.Print("\rTape rolling!         \n")

	if err := plainRecord(ctx, plan, player); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	fmt.Printf("\nSide recorded: %d track(s), %s of tape.\n", len(plan.Tracks), formatSeconds(plan.TotalSeconds))
	if err := recordHistory(cfg, plan); err != nil {
		cli.PrintWarning(fmt.Sprintf("session not saved to history: %v", err))
	}
	return nil
}

// plainRecord paces the side in real time behind a track-count bar.
func plainRecord(ctx context.Context, plan session.Plan, player playback.Player) error {
	bar := progressbar.NewOptions(
		len(plan.Tracks),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan][2/2][reset] Recording to tape..."),
	)

	for i, planned := range plan.Tracks {
		gap := plan.Options.GapSeconds
		if i == 0 {
			gap = plan.Options.LeaderSeconds
		}
		if !wait(ctx, secondsToDuration(gap)) {
			fmt.Println()
			return nil
		}

		bar.Describe(fmt.Sprintf("[cyan][2/2][reset] %02d. %s", i+1, planned.Track.Name))
		err := player.Play(ctx, planned.Track.CachePath, secondsToDuration(planned.Track.DurationSeconds))
		if ctx.Err() != nil {
			fmt.Println()
			return nil
		}
		if err != nil {
			fmt.Println()
			return fmt.Errorf("playback stopped at track %d (%s): %w", i+1, planned.Track.Name, err)
		}
		bar.Add(1)
	}
	fmt.Println()
	return nil
}

// runPlainAnalyze measures every track and prints the reports without
// any live UI.
func runPlainAnalyze(ctx context.Context, cfg runConfig) error {
	tracks, errs := plainPrepare(ctx, cfg, "[cyan][1/1][reset] Analyzing tracks...")
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var analyzed []*session.Track
	for i := range cfg.Sources {
		switch {
		case errs[i] != nil:
			fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", displayName(cfg.Sources[i]), errs[i])
		case tracks[i] != nil:
			report.DisplayTrackAnalysis(os.Stdout, tracks[i])
			analyzed = append(analyzed, tracks[i])
		}
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

// plainPrepare runs the preparation pipeline behind a progress bar and
// returns per-source results.
func plainPrepare(ctx context.Context, cfg runConfig, description string) ([]*session.Track, []error) {
	bar := progressbar.NewOptions(
		len(cfg.Sources),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
	)

	tracks := make([]*session.Track, len(cfg.Sources))
	errs := make([]error, len(cfg.Sources))
	for i, src := range cfg.Sources {
		tracks[i], errs[i] = cfg.Preparer.PrepareTrack(ctx, src, nil)
		bar.Add(1)
		if ctx.Err() != nil {
			break
		}
	}
	fmt.Println()
	return tracks, errs
}
