package fingerprint

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/satindergrewal/aircheck/internal/audio"
)

// sineWAV exports a mono sine tone as a segment WAV and returns its path.
func sineWAV(t *testing.T, freq float64, seconds float64, sampleRate int) string {
	t.Helper()
	n := int(seconds * float64(sampleRate))
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	buf := &audio.Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   time.Duration(seconds * float64(time.Second)),
	}
	seg, err := audio.Export(buf, 0, audio.TimeRange{StartMS: 0, EndMS: buf.DurationMS()})
	if err != nil {
		t.Fatalf("export tone: %v", err)
	}
	t.Cleanup(seg.Release)
	return seg.Path
}

func TestFileProducesFingerprint(t *testing.T) {
	path := sineWAV(t, 440, 3, 11025)

	fp, duration, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if fp == "" {
		t.Error("empty fingerprint")
	}
	if math.Abs(duration-3.0) > 0.01 {
		t.Errorf("duration = %f, want ~3.0", duration)
	}
}

func TestFileIsDeterministic(t *testing.T) {
	path := sineWAV(t, 440, 3, 11025)

	fp1, _, err := File(path)
	if err != nil {
		t.Fatalf("first File: %v", err)
	}
	fp2, _, err := File(path)
	if err != nil {
		t.Fatalf("second File: %v", err)
	}
	if fp1 != fp2 {
		t.Error("same audio produced different fingerprints")
	}
}

func TestDifferentTonesDiffer(t *testing.T) {
	a := sineWAV(t, 440, 3, 11025)
	b := sineWAV(t, 1320, 3, 11025)

	fpA, _, err := File(a)
	if err != nil {
		t.Fatalf("File(a): %v", err)
	}
	fpB, _, err := File(b)
	if err != nil {
		t.Fatalf("File(b): %v", err)
	}
	if fpA == fpB {
		t.Error("distinct tones produced identical fingerprints")
	}
}

func TestFileTooShort(t *testing.T) {
	path := sineWAV(t, 440, 0.1, 11025) // ~1102 samples < one frame

	_, _, err := File(path)
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("err = %v, want ErrTooShort", err)
	}
}

func TestFileMissing(t *testing.T) {
	if _, _, err := File(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
