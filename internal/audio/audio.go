package audio

import (
	"fmt"
	"time"
)

// Buffer holds a fully decoded recording as mono PCM samples.
// It is immutable once loaded; segments reference it, they do not own it.
type Buffer struct {
	Samples    []int16
	SampleRate int
	Channels   int // always 1 after load
	Duration   time.Duration
}

// DurationMS returns the total buffer duration in milliseconds.
func (b *Buffer) DurationMS() int64 {
	return int64(len(b.Samples)) * 1000 / int64(b.SampleRate)
}

// TimeRange is a half-open [StartMS, EndMS) interval into a Buffer.
type TimeRange struct {
	StartMS int64
	EndMS   int64
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%d.%03ds-%d.%03ds",
		r.StartMS/1000, r.StartMS%1000, r.EndMS/1000, r.EndMS%1000)
}

// DurationMS returns the range length in milliseconds.
func (r TimeRange) DurationMS() int64 {
	return r.EndMS - r.StartMS
}
