// Package fingerprint computes compact acoustic fingerprints of exported
// track segments for lookup against a recognition service.
//
// The shape is the usual landmark scheme: short-time FFT, per-frame spectral
// peaks, anchor/target peak pairs hashed into a stream of 32-bit values. The
// encoded stream is what goes over the wire; the service side is free to
// index it however it likes.
package fingerprint

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	xxhash "github.com/OneOfOne/xxhash"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/satindergrewal/aircheck/internal/audio"
)

const (
	frameSize = 2048
	hopSize   = 1024
	minPeakDB = -55.0

	peakNeighborT = 2
	peakNeighborF = 15
	topKPerFrame  = 5

	pairMinDT         = 1
	pairMaxDT         = 60
	maxPairsPerAnchor = 4

	// Fingerprint at most the first two minutes of a segment; enough to
	// identify a track and keeps lookup payloads bounded.
	maxSeconds = 120
)

// ErrTooShort reports a segment with too little audio to fingerprint.
var ErrTooShort = errors.New("segment too short to fingerprint")

// File fingerprints an exported segment WAV. It returns the encoded
// fingerprint and the full segment duration in seconds.
func File(path string) (string, float64, error) {
	samples, sampleRate, err := audio.ReadWAV(path)
	if err != nil {
		return "", 0, fmt.Errorf("read segment: %w", err)
	}
	duration := float64(len(samples)) / float64(sampleRate)

	if limit := maxSeconds * sampleRate; len(samples) > limit {
		samples = samples[:limit]
	}
	if len(samples) < frameSize {
		return "", 0, ErrTooShort
	}

	spec := stft(samples, frameSize, hopSize)
	peaks := spectralPeaks(spec, minPeakDB, peakNeighborT, peakNeighborF, topKPerFrame)
	hashes := landmarkHashes(peaks, pairMinDT, pairMaxDT, maxPairsPerAnchor)
	if len(hashes) == 0 {
		return "", 0, fmt.Errorf("no spectral landmarks in %s", path)
	}

	return encode(hashes), duration, nil
}

type peak struct {
	t, f int
	mag  float64
}

// stft returns the positive-frequency half of a Hann-windowed STFT.
func stft(samples []int16, n, hop int) [][]complex128 {
	win := hann(n)
	fft := fourier.NewFFT(n)

	frames := 1 + (len(samples)-n)/hop
	spec := make([][]complex128, frames)
	buf := make([]float64, n)
	for i := 0; i < frames; i++ {
		start := i * hop
		for k := 0; k < n; k++ {
			buf[k] = float64(samples[start+k]) / 32768.0 * win[k]
		}
		out := fft.Coefficients(nil, buf)
		spec[i] = out[:n/2]
	}
	return spec
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// spectralPeaks keeps the topK local maxima per frame above minDB, using a
// time-frequency neighborhood test.
func spectralPeaks(spec [][]complex128, minDB float64, neighT, neighF, topK int) []peak {
	mags := make([][]float64, len(spec))
	for t := range spec {
		row := make([]float64, len(spec[t]))
		for f := range spec[t] {
			row[f] = 20 * math.Log10(cmplx.Abs(spec[t][f])+1e-12)
		}
		mags[t] = row
	}

	var peaks []peak
	for t := range mags {
		frame := framePeaks(t, mags, minDB, neighT, neighF)
		if len(frame) > topK {
			sort.Slice(frame, func(i, j int) bool { return frame[i].mag > frame[j].mag })
			frame = frame[:topK]
			sort.Slice(frame, func(i, j int) bool { return frame[i].f < frame[j].f })
		}
		peaks = append(peaks, frame...)
	}
	return peaks
}

func framePeaks(t int, mags [][]float64, minDB float64, neighT, neighF int) []peak {
	row := mags[t]
	var out []peak
	for f := 1; f < len(row)-1; f++ {
		v := row[f]
		if v < minDB {
			continue
		}
		ok := true
		for dt := -neighT; dt <= neighT && ok; dt++ {
			tt := t + dt
			if tt < 0 || tt >= len(mags) {
				continue
			}
			neighbor := mags[tt]
			lo, hi := f-neighF, f+neighF
			if lo < 0 {
				lo = 0
			}
			if hi > len(neighbor)-1 {
				hi = len(neighbor) - 1
			}
			for ff := lo; ff <= hi; ff++ {
				if dt == 0 && ff == f {
					continue
				}
				if neighbor[ff] > v {
					ok = false
					break
				}
			}
		}
		if ok {
			out = append(out, peak{t: t, f: f, mag: v})
		}
	}
	return out
}

// landmarkHashes pairs each anchor peak with up to maxPairs later peaks in
// the [minDT, maxDT] frame window and mixes each (f1, f2, dt) triple into a
// 32-bit hash. Output order follows anchor time, so equal audio yields equal
// streams.
func landmarkHashes(peaks []peak, minDT, maxDT, maxPairs int) []uint32 {
	byT := map[int][]peak{}
	minT, maxT := math.MaxInt32, -1
	for _, p := range peaks {
		byT[p.t] = append(byT[p.t], p)
		if p.t < minT {
			minT = p.t
		}
		if p.t > maxT {
			maxT = p.t
		}
	}

	var hashes []uint32
	var triple [12]byte
	for t := minT; t <= maxT; t++ {
		for _, a := range byT[t] {
			made := 0
			for dt := minDT; dt <= maxDT && t+dt <= maxT && made < maxPairs; dt++ {
				for _, b := range byT[t+dt] {
					binary.LittleEndian.PutUint32(triple[0:], uint32(a.f))
					binary.LittleEndian.PutUint32(triple[4:], uint32(b.f))
					binary.LittleEndian.PutUint32(triple[8:], uint32(dt))
					hashes = append(hashes, xxhash.Checksum32(triple[:]))
					made++
					if made >= maxPairs {
						break
					}
				}
			}
		}
	}
	return hashes
}

// encode packs the hash stream as URL-safe base64 of little-endian uint32s.
func encode(hashes []uint32) string {
	raw := make([]byte, len(hashes)*4)
	for i, h := range hashes {
		binary.LittleEndian.PutUint32(raw[i*4:], h)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}
