// Package timefmt formats playback clocks, publish dates, ISO-8601 durations
// and audience counts for display.
package timefmt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/goodsign/monday"
)

// shortMonths follows the browser ro-RO abbreviations ("sept.", trailing
// dots), which differ from the locale tables used for long dates.
var shortMonths = [...]string{
	"ian.", "feb.", "mar.", "apr.", "mai", "iun.",
	"iul.", "aug.", "sept.", "oct.", "nov.", "dec.",
}

// Clock renders a playback position as mm:ss, or h:mm:ss past the hour.
// Negative and non-finite inputs render as 00:00.
func Clock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Date renders a publish date the way the site shows it, e.g. "5 martie 2024".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return monday.Format(t, "2 January 2006", monday.LocaleRoRO)
}

// ShortDate renders e.g. "05 mar.".
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d %s", t.Day(), shortMonths[t.Month()-1])
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISO(iso string) (hours, minutes, seconds int, ok bool) {
	match := isoDurationPattern.FindStringSubmatch(iso)
	if match == nil || iso == "PT" {
		return 0, 0, 0, false
	}
	parts := make([]int, 3)
	for i := range parts {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return 0, 0, 0, false
		}
		parts[i] = n
	}
	return parts[0], parts[1], parts[2], true
}

// ISODuration converts "PT1H2M3S" into "1:02:03" and "PT4M5S" into "4:05".
func ISODuration(iso string) (string, bool) {
	hours, minutes, seconds, ok := parseISO(iso)
	if !ok {
		return "", false
	}
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds), true
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds), true
}

// ISOSeconds converts an ISO-8601 duration into seconds.
func ISOSeconds(iso string) (float64, bool) {
	hours, minutes, seconds, ok := parseISO(iso)
	if !ok {
		return 0, false
	}
	return float64(hours*3600 + minutes*60 + seconds), true
}

var compactUnits = []struct {
	threshold float64
	suffix    string
}{
	{1_000_000_000, "B"},
	{1_000_000, "M"},
	{1_000, "K"},
}

// CompactNumber abbreviates large counts: 1500 → "1.5K", 123456 → "123K".
func CompactNumber(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	abs := math.Abs(value)
	for _, unit := range compactUnits {
		if abs < unit.threshold {
			continue
		}
		scaled := value / unit.threshold
		if math.Abs(scaled) >= 100 {
			return strconv.FormatFloat(math.Round(scaled), 'f', -1, 64) + unit.suffix
		}
		rounded := math.Round(scaled*10) / 10
		return strconv.FormatFloat(rounded, 'f', -1, 64) + unit.suffix
	}
	return strconv.FormatFloat(math.Round(value), 'f', -1, 64)
}
