package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Segment is one exported track candidate: a time range materialized as a
// self-contained WAV file. The file is a transient resource scoped to the
// resolution of this one segment; Release removes it and is safe to call on
// every exit path, any number of times.
type Segment struct {
	Index int
	Range TimeRange
	Path  string
}

// Release deletes the exported file. Idempotent.
func (s *Segment) Release() {
	if s.Path == "" {
		return
	}
	os.Remove(s.Path)
	s.Path = ""
}

// Export writes the samples covered by r to a temporary PCM16 mono WAV file
// that downstream analysis can decode on its own, without the shared buffer.
func Export(buf *Buffer, index int, r TimeRange) (*Segment, error) {
	start := int(r.StartMS * int64(buf.SampleRate) / 1000)
	end := int(r.EndMS * int64(buf.SampleRate) / 1000)
	if start < 0 || end > len(buf.Samples) || start >= end {
		return nil, fmt.Errorf("range %v outside buffer", r)
	}

	f, err := os.CreateTemp("", fmt.Sprintf("aircheck-%04d-*.wav", index))
	if err != nil {
		return nil, fmt.Errorf("create segment file: %w", err)
	}

	if err := writeWAV(f, buf.Samples[start:end], buf.SampleRate); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write segment %d: %w", index, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close segment %d: %w", index, err)
	}

	return &Segment{Index: index, Range: r, Path: f.Name()}, nil
}

func writeWAV(w io.Writer, samples []int16, sampleRate int) error {
	bw := bufio.NewWriter(w)
	dataSize := len(samples) * 2
	byteRate := sampleRate * 2

	// RIFF header
	bw.WriteString("RIFF")
	binary.Write(bw, binary.LittleEndian, uint32(36+dataSize))
	bw.WriteString("WAVE")
	// fmt chunk
	bw.WriteString("fmt ")
	binary.Write(bw, binary.LittleEndian, uint32(16))         // chunk size
	binary.Write(bw, binary.LittleEndian, uint16(1))          // PCM
	binary.Write(bw, binary.LittleEndian, uint16(1))          // mono
	binary.Write(bw, binary.LittleEndian, uint32(sampleRate)) // sample rate
	binary.Write(bw, binary.LittleEndian, uint32(byteRate))   // byte rate
	binary.Write(bw, binary.LittleEndian, uint16(2))          // block align
	binary.Write(bw, binary.LittleEndian, uint16(16))         // bits per sample
	// data chunk
	bw.WriteString("data")
	binary.Write(bw, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		if err := binary.Write(bw, binary.LittleEndian, s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadWAV parses a PCM16 mono WAV file back into samples. This is the decode
// side of Export; the fingerprinter uses it so exported segments really are
// independently decodable.
func ReadWAV(path string) ([]int16, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%s: not a WAV file", path)
	}

	var sampleRate, channels, bits int
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("%s: short fmt chunk", path)
			}
			channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
		case "data":
			if sampleRate <= 0 || bits != 16 || channels != 1 {
				return nil, 0, fmt.Errorf("%s: want PCM16 mono, got %d-bit %d-channel", path, bits, channels)
			}
			n := size / 2
			samples := make([]int16, n)
			for i := 0; i < n; i++ {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[body+i*2 : body+i*2+2]))
			}
			return samples, sampleRate, nil
		}
		// chunks are word-aligned
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}
	return nil, 0, fmt.Errorf("%s: no data chunk", path)
}
