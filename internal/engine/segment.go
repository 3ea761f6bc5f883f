package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/petems/keyclack/internal/soundpack"
)

var (
	errBadInterval  = errors.New("bad interval")
	errStartBeyond  = errors.New("start beyond end of audio")
	errOverrun      = errors.New("interval overruns audio")
	errEmptySegment = errors.New("empty segment")
)

// sliceSegment copies the samples covered by iv out of buf. Intervals that
// run past the end of the audio, even within tolerance, are clamped when
// clampOverrun is set and rejected otherwise. The returned slice never aliases buf.
func sliceSegment(buf *soundpack.Buffer, iv soundpack.Interval, clampOverrun bool) ([]float32, error) {
	total := buf.DurationMs()
	start, end := float64(iv.StartMs), float64(iv.EndMs)

	// negated comparisons also catch NaN
	if !(start >= 0) || !(end > start) {
		return nil, fmt.Errorf("%w: [%.1f, %.1f]ms", errBadInterval, start, end)
	}
	if start >= total+soundpack.ToleranceMs {
		return nil, fmt.Errorf("%w: start %.1fms, audio is %.1fms", errStartBeyond, start, total)
	}
	if end > total+soundpack.ToleranceMs {
		if !clampOverrun {
			return nil, fmt.Errorf("%w: end %.1fms, audio is %.1fms", errOverrun, end, total)
		}
		end = total
		if end-start <= soundpack.ToleranceMs {
			return nil, fmt.Errorf("%w: only %.1fms left after clamping", errOverrun, end-start)
		}
	}

	n := len(buf.Samples)
	startIdx := sampleIndex(start, buf)
	endIdx := sampleIndex(end, buf)
	if endIdx > n {
		if !clampOverrun {
			return nil, fmt.Errorf("%w: sample %d of %d", errOverrun, endIdx, n)
		}
		endIdx = n
	}
	if startIdx >= endIdx {
		return nil, fmt.Errorf("%w: samples %d..%d of %d", errEmptySegment, startIdx, endIdx, n)
	}

	out := make([]float32, endIdx-startIdx)
	copy(out, buf.Samples[startIdx:endIdx])
	return out, nil
}

// sampleIndex converts a millisecond offset to a frame-aligned index into
// the interleaved samples
func sampleIndex(ms float64, buf *soundpack.Buffer) int {
	frame := math.Round(ms / 1000 * float64(buf.SampleRate))
	if frame < 0 {
		return 0
	}
	return int(frame) * int(buf.Channels)
}
