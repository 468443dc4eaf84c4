package activity

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxDuration is the value saturating arithmetic clamps to.
const MaxDuration = time.Duration(math.MaxInt64)

// ErrInvalidClock is returned for elapsed-time values not in HH:MM:SS form.
var ErrInvalidClock = errors.New("duration was not in HH:MM:SS format")

// ParseClock decodes an elapsed time of the form HH:MM:SS. Every field is a
// non-negative decimal integer and none of them is bounded, so "120:00:00"
// is 120 hours and "00:90:00" is 90 minutes. Values too large for a
// time.Duration clamp to MaxDuration.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	var fields [3]uint64
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 64)
		if errors.Is(err, strconv.ErrRange) && strings.Trim(part, "0123456789") == "" {
			// too wide for uint64; v is already MaxUint64
			err = nil
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		fields[i] = v
	}

	secs := satAddU64(satAddU64(satMulU64(fields[0], 3600), satMulU64(fields[1], 60)), fields[2])
	return secondsToDuration(secs), nil
}

// FormatClock is the canonical HH:MM:SS rendering of d. Hours are not wrapped
// at 24 and sub-second precision is dropped. Negative durations render as zero.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// SaturatingAdd returns a+b for non-negative durations, clamped to MaxDuration
// instead of wrapping.
func SaturatingAdd(a, b time.Duration) time.Duration {
	if b > 0 && a > MaxDuration-b {
		return MaxDuration
	}
	return a + b
}

// SaturatingSum folds durations with SaturatingAdd.
func SaturatingSum(durations iter.Seq[time.Duration]) time.Duration {
	var total time.Duration
	for d := range durations {
		total = SaturatingAdd(total, d)
	}
	return total
}

func secondsToDuration(secs uint64) time.Duration {
	if secs > uint64(MaxDuration/time.Second) {
		return MaxDuration
	}
	return time.Duration(secs) * time.Second
}

func satAddU64(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func satMulU64(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
