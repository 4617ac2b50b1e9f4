// Package playback plays prepared tracks out of the sound card while
// the deck records. Playback runs in a child process so a stuck player
// can always be killed from the UI.
package playback

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Player plays one prepared audio file from start to finish.
type Player interface {
	// Play blocks until the track ends or ctx is cancelled. duration
	// is the track's known length; process-backed players ignore it.
	Play(ctx context.Context, path string, duration time.Duration) error
	// Name identifies the backend in the UI footer.
	Name() string
}

// NewPlayer returns the ffplay backend when the binary is on PATH, and
// a timing-only simulator otherwise so sessions can still be rehearsed
// on machines without FFmpeg.
func NewPlayer() Player {
	if Available() {
		return FFPlay{}
	}
	return &Simulator{}
}

// Available reports whether the ffplay binary can be found.
func Available() bool {
	_, err := exec.LookPath("ffplay")
	return err == nil
}

// FFPlay plays audio through the ffplay binary.
type FFPlay struct{}

// Name returns "ffplay".
func (FFPlay) Name() string { return "ffplay" }

// Play runs ffplay without a video window and waits for it to exit.
func (FFPlay) Play(ctx context.Context, path string, _ time.Duration) error {
	cmd := exec.CommandContext(ctx, "ffplay", ffplayArgs(path)...)
	output, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("ffplay failed for %s: %w (output: %s)", path, err, truncateOutput(output))
	}
	return nil
}

func ffplayArgs(path string) []string {
	return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
}

// Simulator stands in for a real player by waiting out each track's
// duration. Speedup compresses the wait for rehearsals; zero means
// real time.
type Simulator struct {
	Speedup float64
}

// Name returns "simulation".
func (*Simulator) Name() string { return "simulation" }

// Play sleeps for the track duration, honoring cancellation.
func (s *Simulator) Play(ctx context.Context, _ string, duration time.Duration) error {
	wait := duration
	if s.Speedup > 0 {
		wait = time.Duration(float64(duration) / s.Speedup)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncateOutput(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	if s == "" {
		return "none"
	}
	return s
}
