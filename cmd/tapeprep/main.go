package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/reelworks/tapeprep/internal/cli"
	"github.com/reelworks/tapeprep/internal/config"
	"github.com/reelworks/tapeprep/internal/counter"
	"github.com/reelworks/tapeprep/internal/deck"
	"github.com/reelworks/tapeprep/internal/history"
	"github.com/reelworks/tapeprep/internal/mains"
	"github.com/reelworks/tapeprep/internal/normalize"
	"github.com/reelworks/tapeprep/internal/playback"
	"github.com/reelworks/tapeprep/internal/session"
)

var (
	version = "0.1.0"
)

const (
	defaultConfigFile      = "tapeprep.yaml"
	defaultCalibrationFile = "counter_calibration.json"
)

// CLI defines the command-line interface. Numeric flags are pointers so
// an explicit flag always beats the config file, including when the
// value matches a default.
type CLI struct {
	Folder string `short:"f" type:"existingdir" placeholder:"DIR" group:"Session" help:"Folder of audio files to lay onto one tape side"`

	TrackGap     *float64 `placeholder:"SECONDS" group:"Session" help:"Silence between tracks (default 5)"`
	LeaderGap    *float64 `placeholder:"SECONDS" group:"Session" help:"Leader run-in before the first track (default 10)"`
	Duration     *int     `short:"d" placeholder:"MINUTES" group:"Session" help:"Usable minutes per side (default 45)"`
	AudioLatency *float64 `placeholder:"SECONDS" group:"Session" help:"Delay between pressing record and playback starting"`

	CounterMode      string   `placeholder:"MODE" group:"Counter" help:"Counter model: static, manual or auto"`
	CounterRate      *float64 `placeholder:"RATE" group:"Counter" help:"Counts per second, overriding the deck profile"`
	CounterConfig    string   `type:"path" placeholder:"FILE" group:"Counter" help:"Counter calibration JSON for manual mode"`
	CalibrateCounter bool     `group:"Counter" help:"Run the counter calibration wizard and exit"`

	Normalization string   `placeholder:"METHOD" group:"Audio" help:"Normalization method: peak or lufs"`
	TargetLufs    *float64 `name:"target-lufs" placeholder:"LUFS" group:"Audio" help:"Loudness target for lufs normalization (default -14)"`

	TapeType    string `placeholder:"TYPE" group:"Deck" help:"Tape stock: I, II, III or IV"`
	DeckProfile string `placeholder:"NAME" group:"Deck" help:"Deck profile name, or path to a profile JSON file"`

	AnalyzeOnly bool   `group:"Output" help:"Measure and report tracks without recording"`
	Chart       string `type:"path" placeholder:"FILE" group:"Output" help:"Write an HTML level chart of the prepared tracks"`
	History     bool   `group:"Output" help:"List recent recording sessions and exit"`
	Plain       bool   `short:"p" group:"Output" help:"Plain line output instead of the full-screen UI"`

	Config  string `short:"c" type:"path" help:"Path to YAML config file (optional)"`
	Version bool   `short:"v" help:"Show version information"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("tapeprep"),
		kong.Description("Cassette recording assistant for tape decks"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	settings, err := loadSettings(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	warnings, err := settings.Validate()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	profile, err := resolveProfile(settings)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	if settings.Deck.BaseRate != 0 {
		profile.BaseRate = settings.Deck.BaseRate
	}
	// Picking a deck on the command line adopts its counter mode;
	// --counter-mode still wins.
	if cliArgs.DeckProfile != "" && cliArgs.CounterMode == "" {
		settings.Deck.CounterMode = profile.CounterMode
	}

	grid := resolveMains(settings)
	if profile.SyncMotorHz != 0 && grid.FrequencyHz != 0 && grid.FrequencyHz != profile.SyncMotorHz {
		warnings = append(warnings, fmt.Sprintf(
			"%s has a %d Hz synchronous motor; on the local %d Hz supply the transport runs at %.3fx speed",
			profile.Label(), profile.SyncMotorHz, grid.FrequencyHz,
			mains.SpeedRatio(profile.SyncMotorHz, grid.FrequencyHz)))
	}

	tape, err := deck.TapeByType(settings.Tape.Type)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if !cliArgs.AnalyzeOnly && !playback.Available() {
		warnings = append(warnings,
			"ffplay not found; tracks will be paced in silence (install FFmpeg to hear playback)")
	}

	// Calibration wizard runs and exits before anything else touches
	// the library.
	if cliArgs.CalibrateCounter {
		if err := runCalibration(settings, profile, tape); err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		return
	}

	if cliArgs.History {
		if err := listHistory(settings); err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		return
	}

	for _, w := range warnings {
		cli.PrintWarning(w)
	}

	mode, _ := counter.ParseMode(settings.Deck.CounterMode)
	method, _ := normalize.ParseMethod(settings.Audio.Normalization)

	table, tablePath, err := loadCalibration(settings, mode)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	sources, err := session.ScanSources(settings.Library.SourceDir)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	if len(sources) == 0 {
		cli.PrintError(fmt.Sprintf("No audio files found in %s", settings.Library.SourceDir))
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	cfg := runConfig{
		Sources: sources,
		Preparer: &session.Preparer{
			CacheDir:   settings.Library.CacheDir,
			Method:     method,
			TargetLUFS: settings.Audio.TargetLUFS,
			Meter:      normalize.BS1770Meter{},
		},
		Counter: profile.TransportModel(mode, table, settings.Tape.SideMinutes, grid.FrequencyHz),
		Mode:    mode,
		Opts: session.PlanOptions{
			LeaderSeconds:  settings.Session.LeaderSeconds,
			GapSeconds:     settings.Session.GapSeconds,
			LatencySeconds: settings.Session.LatencySeconds,
			SideSeconds:    float64(settings.Tape.SideMinutes * 60),
		},
		Profile:     profile,
		Tape:        tape,
		Table:       table,
		TablePath:   tablePath,
		Method:      method,
		TargetLUFS:  settings.Audio.TargetLUFS,
		SideMinutes: settings.Tape.SideMinutes,
		Mains:       grid,
		ReportDir:   settings.Library.ReportDir,
		HistoryDB:   settings.Library.HistoryDB,
		ChartPath:   cliArgs.Chart,
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case cliArgs.AnalyzeOnly && cliArgs.Plain:
		err = runPlainAnalyze(runCtx, cfg)
	case cliArgs.AnalyzeOnly:
		err = runAnalyze(runCtx, cancel, cfg)
	case cliArgs.Plain:
		err = runPlainSession(runCtx, cfg)
	default:
		err = runSession(runCtx, cancel, cfg)
	}
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// runConfig bundles everything a session run needs after the flags,
// config file and deck profile have been reconciled.
type runConfig struct {
	Sources  []string
	Preparer *session.Preparer

	Counter counter.Model
	Mode    counter.Mode
	Opts    session.PlanOptions

	Profile   deck.Profile
	Tape      deck.Tape
	Table     *counter.Table
	TablePath string

	Method      normalize.Method
	TargetLUFS  float64
	SideMinutes int
	Mains       mains.Info

	ReportDir string
	HistoryDB string
	ChartPath string
}

// loadSettings reads the config file (explicit path, or tapeprep.yaml
// when present) and lays the command-line flags over it.
func loadSettings(cliArgs *CLI) (*config.Settings, error) {
	path := cliArgs.Config
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyFlags(settings, cliArgs)
	return settings, nil
}

// applyFlags copies explicitly set flags over the loaded settings.
func applyFlags(settings *config.Settings, cliArgs *CLI) {
	if cliArgs.Folder != "" {
		settings.Library.SourceDir = cliArgs.Folder
	}
	if cliArgs.TrackGap != nil {
		settings.Session.GapSeconds = *cliArgs.TrackGap
	}
	if cliArgs.LeaderGap != nil {
		settings.Session.LeaderSeconds = *cliArgs.LeaderGap
	}
	if cliArgs.AudioLatency != nil {
		settings.Session.LatencySeconds = *cliArgs.AudioLatency
	}
	if cliArgs.Duration != nil {
		settings.Tape.SideMinutes = *cliArgs.Duration
	}
	if cliArgs.CounterMode != "" {
		settings.Deck.CounterMode = cliArgs.CounterMode
	}
	if cliArgs.CounterRate != nil {
		settings.Deck.BaseRate = *cliArgs.CounterRate
	}
	if cliArgs.CounterConfig != "" {
		settings.Deck.CalibrationFile = cliArgs.CounterConfig
	}
	if cliArgs.Normalization != "" {
		settings.Audio.Normalization = cliArgs.Normalization
	}
	if cliArgs.TargetLufs != nil {
		settings.Audio.TargetLUFS = *cliArgs.TargetLufs
	}
	if cliArgs.TapeType != "" {
		settings.Tape.Type = cliArgs.TapeType
	}
	if cliArgs.DeckProfile != "" {
		if strings.HasSuffix(cliArgs.DeckProfile, ".json") {
			settings.Deck.ProfileFile = cliArgs.DeckProfile
		} else {
			settings.Deck.Profile = cliArgs.DeckProfile
			settings.Deck.ProfileFile = ""
		}
	}
}

// resolveProfile picks the deck profile: a custom JSON file when
// configured, a built-in otherwise.
func resolveProfile(settings *config.Settings) (deck.Profile, error) {
	if settings.Deck.ProfileFile != "" {
		return deck.Load(settings.Deck.ProfileFile)
	}
	return deck.Lookup(settings.Deck.Profile)
}

// resolveMains returns the local supply frequency, honoring a manual
// override from the config file.
func resolveMains(settings *config.Settings) mains.Info {
	if settings.Deck.MainsHz != 0 {
		return mains.Info{FrequencyHz: settings.Deck.MainsHz}
	}
	return mains.Detect()
}

// loadCalibration loads the calibration table for manual counter mode.
// A missing default file is fine (the model falls back to the static
// rate); a missing explicitly-configured file is an error.
func loadCalibration(settings *config.Settings, mode counter.Mode) (*counter.Table, string, error) {
	if mode != counter.ModeManual {
		return nil, "", nil
	}

	path := settings.Deck.CalibrationFile
	explicit := path != ""
	if path == "" {
		path = defaultCalibrationFile
	}

	table, err := counter.LoadTable(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return table, path, nil
}

// runCalibration walks the operator through measuring checkpoints on
// the real deck.
func runCalibration(settings *config.Settings, profile deck.Profile, tape deck.Tape) error {
	path := settings.Deck.CalibrationFile
	if path == "" {
		path = defaultCalibrationFile
	}

	wizard := &counter.Wizard{In: os.Stdin, Out: os.Stdout}
	return wizard.Run(path, profile.Label(), tape.Label())
}

// listHistory prints recent sessions, with the track layout of the
// most recent one.
func listHistory(settings *config.Settings) error {
	store, err := history.Open(settings.Library.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.RecentSessions(20)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No recorded sessions yet.")
		return nil
	}

	for _, sess := range sessions {
		overrun := ""
		if sess.Overrun {
			overrun = "  OVERRUN"
		}
		fmt.Printf("%s  %-26s Type %-4s C-%d  %-5s %2d tracks  %s%s\n",
			sess.RecordedAt.Format("2006-01-02 15:04"), sess.Deck, sess.TapeType,
			sess.SideMinutes*2, sess.Normalization, sess.TrackCount,
			formatSeconds(sess.TotalSeconds), overrun)
	}

	tracks, err := store.SessionTracks(sessions[0].ID)
	if err != nil {
		return err
	}
	if len(tracks) > 0 {
		fmt.Printf("\nLatest side (%s):\n", sessions[0].RecordedAt.Format("2006-01-02 15:04"))
		for _, track := range tracks {
			fmt.Printf("  %02d. %-32s %04d - %04d  %s\n",
				track.Position, track.Name, track.CounterStart, track.CounterEnd,
				formatSeconds(track.DurationSeconds))
		}
	}
	return nil
}

// formatSeconds renders a duration as M:SS for the history listing.
func formatSeconds(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
