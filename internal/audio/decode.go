package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// Formats decoded natively; everything else goes through the ffmpeg
// fallback in decodeViaFFmpeg.
var nativeExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
}

// Decode reads an audio file into a Buffer. WAV and MP3 are decoded
// in-process; other formats are converted to a temporary WAV by the
// external ffmpeg binary first.
func Decode(ctx context.Context, path string) (*Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access audio file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not an audio file: %s is a directory", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("audio file is empty: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	default:
		return decodeViaFFmpeg(ctx, path)
	}
}

// IsAudioFile reports whether the path has an extension the decoder
// accepts (natively or via ffmpeg).
func IsAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".mp3", ".flac", ".m4a", ".ogg", ".aac", ".opus":
		return true
	}
	return false
}

// decodeWAV reads a PCM WAV file into a Buffer at its native bit depth.
func decodeWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate PCM data in %s: %w", path, err)
	}

	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return nil, fmt.Errorf("unknown bit depth in WAV file: %s", path)
	}
	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample

	buf := &gaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}
	if _, err := decoder.PCMBuffer(buf); err != nil {
		return nil, fmt.Errorf("failed to decode WAV data from %s: %w", path, err)
	}

	return &Buffer{
		Data:       buf.Data,
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		BitDepth:   bitDepth,
	}, nil
}

// decodeMP3 reads an MP3 file into a Buffer. go-mp3 always emits
// 16-bit little-endian stereo at the stream's sample rate.
func decodeMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3 file %s: %w", path, err)
	}

	const channels = 2
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 stream from %s: %w", path, err)
	}

	nsamples := len(raw) / 2 // s16le
	data := make([]int, nsamples)
	for i := 0; i < nsamples; i++ {
		data[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}

	return &Buffer{
		Data:       data,
		SampleRate: decoder.SampleRate(),
		Channels:   channels,
		BitDepth:   16,
	}, nil
}

// decodeViaFFmpeg converts an arbitrary audio file to a temporary
// 16-bit PCM WAV with the external ffmpeg binary, then decodes that.
func decodeViaFFmpeg(ctx context.Context, path string) (*Buffer, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("unsupported format %s and ffmpeg not found: %w", filepath.Ext(path), err)
	}

	tmp, err := os.CreateTemp("", "tapeprep_decode_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", path,
		"-map", "0:a:0",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		tmpPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newCommandError(cmd, output, err)
	}

	return decodeWAV(tmpPath)
}
