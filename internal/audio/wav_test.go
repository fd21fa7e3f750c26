package audio

import (
	"os"
	"testing"
	"time"
)

func patternBuffer(sampleRate int, totalMS int64) *Buffer {
	n := int(totalMS * int64(sampleRate) / 1000)
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i%2000 - 1000)
	}
	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   time.Duration(totalMS) * time.Millisecond,
	}
}

func TestExportReadRoundTrip(t *testing.T) {
	buf := patternBuffer(10000, 1000)
	seg, err := Export(buf, 3, TimeRange{StartMS: 100, EndMS: 300})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	defer seg.Release()

	if seg.Index != 3 {
		t.Errorf("Index = %d, want 3", seg.Index)
	}

	samples, rate, err := ReadWAV(seg.Path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if rate != 10000 {
		t.Errorf("sample rate = %d, want 10000", rate)
	}
	if want := 2000; len(samples) != want { // 200ms at 10kHz
		t.Fatalf("got %d samples, want %d", len(samples), want)
	}
	for i, s := range samples {
		if s != buf.Samples[1000+i] {
			t.Fatalf("sample %d = %d, want %d", i, s, buf.Samples[1000+i])
		}
	}
}

func TestReleaseRemovesFileAndIsIdempotent(t *testing.T) {
	buf := patternBuffer(10000, 500)
	seg, err := Export(buf, 0, TimeRange{StartMS: 0, EndMS: 500})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	path := seg.Path
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("exported file missing before release: %v", err)
	}

	seg.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after Release: %v", err)
	}
	seg.Release() // must not panic or error
}

func TestExportRejectsOutOfBoundsRange(t *testing.T) {
	buf := patternBuffer(10000, 500)
	if _, err := Export(buf, 0, TimeRange{StartMS: 400, EndMS: 900}); err == nil {
		t.Error("expected error for range past buffer end")
	}
	if _, err := Export(buf, 0, TimeRange{StartMS: 300, EndMS: 300}); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "garbage-*.wav")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("this is not a wav file at all")
	f.Close()

	if _, _, err := ReadWAV(f.Name()); err == nil {
		t.Error("expected error for non-WAV content")
	}
}
