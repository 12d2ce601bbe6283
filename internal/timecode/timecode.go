// Package timecode converts between ffmpeg-style time strings and seconds.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts a time string to seconds. Accepted forms are "SS",
// "MM:SS" and "HH:MM:SS", each with an optional fractional part
// (e.g. "00:00:03.250" -> 3.25).
func Parse(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty time string")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time string %q", s)
	}

	total := 0.0
	for i, part := range parts {
		last := i == len(parts)-1

		var v float64
		var err error
		if last {
			v, err = strconv.ParseFloat(part, 64)
		} else {
			var n int
			n, err = strconv.Atoi(part)
			v = float64(n)
		}
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time string %q", s)
		}

		total = total*60 + v
	}
	return total, nil
}

// FormatSeconds renders seconds as "HH:MM:SS.mmm", the form ffmpeg accepts
// for -ss and -to. Rounding to milliseconds happens before the hour/minute
// split so a value like 59.9996 carries into the minute instead of
// rendering a seconds field of 60.
func FormatSeconds(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	secs := float64(ms%60000) / 1000
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}
