package counter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// SuggestedTimes are the checkpoint times the wizard prompts for, in
// seconds. Early points pin down the fast start-of-tape region, later
// ones the slower end.
var SuggestedTimes = []float64{60, 300, 1200, 1800}

// Wizard walks the user through measuring calibration checkpoints on a
// real deck and saves the result as a calibration table.
type Wizard struct {
	In  io.Reader
	Out io.Writer
	Now func() time.Time // defaults to time.Now
}

// Run prompts for counter readings and writes the finished table to
// path. defaultDeck and defaultTape pre-fill the metadata prompts.
func (w *Wizard) Run(path, defaultDeck, defaultTape string) error {
	scanner := bufio.NewScanner(w.In)

	fmt.Fprintln(w.Out, "Tape counter calibration")
	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "  1. Insert the tape you will record on and rewind it fully.")
	fmt.Fprintln(w.Out, "  2. Reset the deck's counter to 000.")
	fmt.Fprintln(w.Out, "  3. Start recording (or playing) and a stopwatch together.")
	fmt.Fprintln(w.Out, "  4. Note the counter reading as each mark below comes up.")
	fmt.Fprintln(w.Out)

	deckModel, err := w.prompt(scanner, "Deck model [%s]: ", orNone(defaultDeck))
	if err != nil {
		return err
	}
	if deckModel == "" {
		deckModel = defaultDeck
	}
	tapeType, err := w.prompt(scanner, "Tape type [%s]: ", orNone(defaultTape))
	if err != nil {
		return err
	}
	if tapeType == "" {
		tapeType = defaultTape
	}
	fmt.Fprintln(w.Out)

	var checkpoints []Checkpoint
	for _, t := range SuggestedTimes {
		cp, ok, err := w.promptCounter(scanner, t)
		if err != nil {
			return err
		}
		if ok {
			checkpoints = append(checkpoints, cp)
		}
	}

	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "Extra checkpoints as TIME COUNTER, e.g. 42:30 1482. Blank line to finish.")
	for {
		line, err := w.prompt(scanner, "> ")
		if err != nil {
			return err
		}
		if line == "" {
			break
		}
		cp, err := parseExtraCheckpoint(line)
		if err != nil {
			fmt.Fprintf(w.Out, "  %v\n", err)
			continue
		}
		checkpoints = append(checkpoints, cp)
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	table := &Table{
		Checkpoints:     checkpoints,
		DeckModel:       deckModel,
		TapeType:        tapeType,
		CalibrationDate: now().Format("2006-01-02"),
		Interpolation:   "linear",
	}
	if err := table.Save(path); err != nil {
		return fmt.Errorf("failed to save calibration: %w", err)
	}

	fmt.Fprintf(w.Out, "\nSaved %d checkpoints to %s\n", len(table.Checkpoints), path)
	return nil
}

// promptCounter asks for the counter reading at mark t, retrying on
// garbage. A blank answer skips the mark.
func (w *Wizard) promptCounter(scanner *bufio.Scanner, t float64) (Checkpoint, bool, error) {
	for {
		answer, err := w.prompt(scanner, "Counter at %s (blank to skip): ", formatClock(t))
		if err != nil {
			return Checkpoint{}, false, err
		}
		if answer == "" {
			return Checkpoint{}, false, nil
		}
		counter, err := strconv.Atoi(answer)
		if err != nil || counter < 0 {
			fmt.Fprintln(w.Out, "  Please enter a whole counter reading, e.g. 127.")
			continue
		}
		return Checkpoint{
			TimeSeconds: t,
			Counter:     counter,
			Note:        "measured at " + formatClock(t),
		}, true, nil
	}
}

func (w *Wizard) prompt(scanner *bufio.Scanner, format string, args ...any) (string, error) {
	fmt.Fprintf(w.Out, format, args...)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", fmt.Errorf("calibration wizard aborted: input closed")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// parseExtraCheckpoint parses a "TIME COUNTER" line where TIME is
// either MM:SS or plain seconds.
func parseExtraCheckpoint(line string) (Checkpoint, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Checkpoint{}, fmt.Errorf("expected TIME COUNTER, got %q", line)
	}
	t, err := parseClock(fields[0])
	if err != nil {
		return Checkpoint{}, err
	}
	counter, err := strconv.Atoi(fields[1])
	if err != nil || counter < 0 {
		return Checkpoint{}, fmt.Errorf("counter must be a whole number, got %q", fields[1])
	}
	return Checkpoint{
		TimeSeconds: t,
		Counter:     counter,
		Note:        "measured at " + formatClock(t),
	}, nil
}

// parseClock accepts "MM:SS" or a bare number of seconds.
func parseClock(s string) (float64, error) {
	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(mins)
		if err != nil || m < 0 {
			return 0, fmt.Errorf("bad minutes in %q", s)
		}
		sec, err := strconv.Atoi(secs)
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("bad seconds in %q", s)
		}
		return float64(m*60 + sec), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return v, nil
}

// formatClock renders seconds as M:SS for prompts and notes.
func formatClock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
