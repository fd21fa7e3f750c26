package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/hraban/opus.v2"
)

// opusfile always decodes at 48kHz.
const opusRate = 48000

// Load decodes an audio file into a mono Buffer at the given sample rate.
// Ogg Opus captures decode natively; everything else goes through FFmpeg.
// A file that cannot be decoded at all is a fatal error for the run.
func Load(path string, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".opus", ".ogg":
		if buf, err := loadOpus(path, sampleRate); err == nil {
			return buf, nil
		}
		// not an Opus stream after all (plain Vorbis .ogg etc.); let FFmpeg try
	}
	return loadFFmpeg(path, sampleRate)
}

// loadFFmpeg runs FFmpeg to decode any container to raw mono s16le PCM.
func loadFFmpeg(path string, sampleRate int) (*Buffer, error) {
	cmd := exec.Command("ffmpeg",
		"-hide_banner",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg decode %s: no audio data", path)
	}

	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
	}

	return newBuffer(samples, sampleRate, 1), nil
}

// loadOpus decodes an Ogg Opus file without shelling out, then downmixes
// and resamples to the analysis rate. The decoder reports samples per
// channel without exposing the channel count, so it is read from the
// OpusHead packet first.
func loadOpus(path string, sampleRate int) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prefix := make([]byte, 512)
	n, _ := io.ReadFull(f, prefix)
	channels, err := opusHeadChannels(prefix[:n])
	if err != nil {
		return nil, fmt.Errorf("opus stream %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(f)
	if err != nil {
		return nil, fmt.Errorf("opus stream %s: %w", path, err)
	}
	defer stream.Close()

	pcm := make([]int16, 16384*channels)
	var interleaved []int16
	for {
		n, err := stream.Read(pcm)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		interleaved = append(interleaved, pcm[:n*channels]...)
	}
	if len(interleaved) == 0 {
		return nil, fmt.Errorf("opus decode %s: no audio data", path)
	}

	mono := downmix(interleaved, channels)
	samples := resampleNearest(mono, opusRate, sampleRate)
	return newBuffer(samples, sampleRate, 1), nil
}

// opusHeadChannels extracts the channel count from the OpusHead packet in the
// first Ogg page (RFC 7845 section 5.1: byte 9 of the packet).
func opusHeadChannels(prefix []byte) (int, error) {
	i := bytes.Index(prefix, []byte("OpusHead"))
	if i < 0 || i+10 > len(prefix) {
		return 0, fmt.Errorf("no OpusHead packet")
	}
	ch := int(prefix[i+9])
	if ch < 1 {
		return 0, fmt.Errorf("OpusHead reports %d channels", ch)
	}
	return ch, nil
}

func newBuffer(samples []int16, sampleRate, channels int) *Buffer {
	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   time.Duration(len(samples)) * time.Second / time.Duration(sampleRate),
	}
}

// downmix averages interleaved frames into a single channel.
func downmix(interleaved []int16, channels int) []int16 {
	if channels <= 1 {
		return interleaved
	}
	out := make([]int16, len(interleaved)/channels)
	for i := range out {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(interleaved[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// resampleNearest converts between rates by nearest-sample pick. Plenty for
// amplitude scanning and spectral peak maps; this is not a playback path.
func resampleNearest(in []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(toRate) / int64(fromRate))
	out := make([]int16, n)
	for i := range out {
		src := int(int64(i) * int64(fromRate) / int64(toRate))
		if src >= len(in) {
			src = len(in) - 1
		}
		out[i] = in[src]
	}
	return out
}
