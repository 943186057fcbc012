// Package humanfmt renders byte counts and durations for operators.
package humanfmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with 1024-based units and two decimals, e.g. "1.50 KB".
func FormatBytes(n int64) string {
	if n == 0 {
		return "0 B"
	}
	sign, mag := "", uint64(n)
	if n < 0 {
		// -(n+1) cannot overflow, even for math.MinInt64.
		sign, mag = "-", uint64(-(n+1))+1
	}

	value := float64(mag)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%s%.2f %s", sign, value, byteUnits[unit])
}

// FormatDuration renders d using its coarsest unit among days, hours,
// minutes and seconds, followed by the next finer unit when there is one,
// e.g. "1 hour, 30 minutes".
func FormatDuration(d time.Duration) string {
	// Negating whole seconds cannot overflow.
	seconds := int64(d / time.Second)
	if seconds < 0 {
		return "-" + formatSeconds(-seconds)
	}
	return formatSeconds(seconds)
}

func formatSeconds(seconds int64) string {
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return plural(days, "day") + ", " + plural(hours%24, "hour")
	case hours > 0:
		return plural(hours, "hour") + ", " + plural(minutes%60, "minute")
	case minutes > 0:
		return plural(minutes, "minute") + ", " + plural(seconds%60, "second")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ParseSize parses operator input such as "512MiB", "10 GB" or "1048576".
// Negative sizes are rejected.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative size %q", s)
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > uint64(1<<63-1) {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return int64(n), nil
}
