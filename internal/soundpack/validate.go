package soundpack

import (
	"fmt"
	"sort"
)

// Issue is a single validation finding. Index is -1 for pack-level issues.
type Issue struct {
	Key     string
	Index   int
	Message string
}

func (i Issue) String() string {
	if i.Key == "" {
		return i.Message
	}
	return fmt.Sprintf("%s[%d]: %s", i.Key, i.Index, i.Message)
}

// Report collects the findings of Validate
type Report struct {
	DurationMs float64
	Keys       int
	Errors     []Issue
	Warnings   []Issue
}

// OK reports whether no errors were found
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(key string, idx int, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Key: key, Index: idx, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(key string, idx int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Key: key, Index: idx, Message: fmt.Sprintf(format, args...)})
}

// Validate checks a pack's structure and, when buf is non-nil, every
// interval against the decoded audio duration.
func Validate(p *Pack, buf *Buffer) *Report {
	r := &Report{Keys: len(p.Defs)}

	if p.Name == "" {
		r.errorf("", -1, "missing name")
	}
	if p.SourceName() == "" {
		r.errorf("", -1, "missing source")
	}
	if len(p.Defs) == 0 {
		r.errorf("", -1, "defs is empty")
	}
	if buf != nil {
		r.DurationMs = buf.DurationMs()
	}

	keys := make([]string, 0, len(p.Defs))
	for k := range p.Defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		ivs := p.Defs[key]
		switch {
		case len(ivs) == 0:
			r.errorf(key, -1, "no intervals")
			continue
		case len(ivs) > 2:
			r.errorf(key, -1, "%d intervals, expected 1 or 2", len(ivs))
			continue
		}

		for i, iv := range ivs {
			if iv.StartMs < 0 {
				r.errorf(key, i, "negative start %.1fms", iv.StartMs)
				continue
			}
			if iv.EndMs <= iv.StartMs {
				r.errorf(key, i, "non-positive duration %.1fms..%.1fms", iv.StartMs, iv.EndMs)
				continue
			}
			if buf == nil {
				continue
			}

			start, end := float64(iv.StartMs), float64(iv.EndMs)
			switch {
			case start >= r.DurationMs+ToleranceMs:
				r.errorf(key, i, "start %.1fms exceeds audio duration %.1fms", start, r.DurationMs)
			case end > r.DurationMs+ToleranceMs:
				r.warnf(key, i, "end %.1fms exceeds audio duration %.1fms by %.1fms", end, r.DurationMs, end-r.DurationMs)
			}
		}
	}
	return r
}
