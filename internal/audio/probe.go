package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeDuration returns a file's duration in seconds using ffprobe,
// without decoding the audio. The session pre-scan uses it to show
// track times in the queue before any normalization work happens.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, newCommandError(cmd, output, err)
	}

	text := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q for %s: %w", text, path, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("ffprobe returned negative duration %.3f for %s", duration, path)
	}
	return duration, nil
}

// HaveFFprobe reports whether the ffprobe binary is on PATH.
func HaveFFprobe() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}
