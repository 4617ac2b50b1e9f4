package audio

import (
	"fmt"
	"os"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes a Buffer to a PCM WAV file. Used to persist
// normalized tracks into the cache directory. The write goes through a
// temp file and rename so a crash never leaves a half-written cache
// entry that a later run would trust.
func WriteWAV(path string, buf *Buffer) error {
	if buf == nil || len(buf.Data) == 0 {
		return fmt.Errorf("refusing to write empty buffer to %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	enc := wav.NewEncoder(f, buf.SampleRate, buf.BitDepth, buf.Channels, 1)
	ibuf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           buf.Data,
		SourceBitDepth: buf.BitDepth,
	}
	if err := enc.Write(ibuf); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalise WAV file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close WAV file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move WAV file into place: %w", err)
	}
	return nil
}
