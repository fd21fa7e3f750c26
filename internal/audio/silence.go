package audio

import "math"

// RMS windows per second for the silence scan. 10ms windows are fine-grained
// enough that detected boundaries land within one window of the true gap edges.
const scanWindowsPerSec = 100

// DetectNonSilent scans the buffer for contiguous non-silent spans and returns
// them as ordered TimeRanges. A run of sub-threshold windows at least
// minSilenceMS long splits two spans; each detected span is padded by
// keepSilenceMS on both ends and clamped to the buffer bounds. If no spans are
// detected the whole buffer is returned as a single range, so a non-empty
// input never yields zero segments.
//
// thresholdDB is dBFS relative to int16 full scale (e.g. -40).
func DetectNonSilent(buf *Buffer, minSilenceMS int64, thresholdDB float64, keepSilenceMS int64) []TimeRange {
	totalMS := buf.DurationMS()
	if len(buf.Samples) == 0 {
		return nil
	}

	win := buf.SampleRate / scanWindowsPerSec
	if win < 1 {
		win = 1
	}

	silent := classifyWindows(buf.Samples, win, thresholdDB)

	// Qualifying silent runs, in sample offsets. A run qualifies when it
	// covers at least minSilenceMS of audio.
	type run struct{ start, end int }
	var splits []run
	minRunSamples := minSilenceMS * int64(buf.SampleRate) / 1000
	runStart := -1
	for i := 0; i <= len(silent); i++ {
		if i < len(silent) && silent[i] {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			startSample := runStart * win
			endSample := i * win
			if endSample > len(buf.Samples) {
				endSample = len(buf.Samples)
			}
			if int64(endSample-startSample) >= minRunSamples {
				splits = append(splits, run{startSample, endSample})
			}
			runStart = -1
		}
	}

	msAt := func(sample int) int64 {
		return int64(sample) * 1000 / int64(buf.SampleRate)
	}

	// Non-silent spans are the complement of the qualifying runs. Leading and
	// trailing silence is trimmed only when the run itself qualifies.
	var spans []TimeRange
	cursor := 0
	for _, s := range splits {
		if s.start > cursor {
			spans = append(spans, TimeRange{StartMS: msAt(cursor), EndMS: msAt(s.start)})
		}
		cursor = s.end
	}
	if cursor < len(buf.Samples) {
		spans = append(spans, TimeRange{StartMS: msAt(cursor), EndMS: totalMS})
	}

	if len(spans) == 0 {
		return []TimeRange{{StartMS: 0, EndMS: totalMS}}
	}

	// Pad with kept silence so quiet lead-ins and fade-outs survive, clamped
	// to the buffer. Neighbors may touch after padding, same as the gap the
	// padding was carved from; ordering by start is preserved.
	for i := range spans {
		spans[i].StartMS -= keepSilenceMS
		if spans[i].StartMS < 0 {
			spans[i].StartMS = 0
		}
		spans[i].EndMS += keepSilenceMS
		if spans[i].EndMS > totalMS {
			spans[i].EndMS = totalMS
		}
	}
	return spans
}

// classifyWindows marks each RMS window as silent or not.
func classifyWindows(samples []int16, win int, thresholdDB float64) []bool {
	nWin := (len(samples) + win - 1) / win
	silent := make([]bool, nWin)
	for i := 0; i < nWin; i++ {
		start := i * win
		end := start + win
		if end > len(samples) {
			end = len(samples)
		}
		silent[i] = windowDBFS(samples[start:end]) < thresholdDB
	}
	return silent
}

// windowDBFS returns the RMS level of a window in dB relative to full scale.
// An all-zero window reports -120dB, below any sensible threshold.
func windowDBFS(w []int16) float64 {
	if len(w) == 0 {
		return -120
	}
	var sum float64
	for _, s := range w {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(w)))
	if rms == 0 {
		return -120
	}
	return 20 * math.Log10(rms/32768.0)
}
