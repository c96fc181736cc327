package player

import (
	"slices"
	"time"
)

// QualityPriority is tried in order; the first level the widget offers wins.
var QualityPriority = []string{"hd1080", "hd720", "large", "medium"}

// QualityEnforcementDelays re-apply the preferred level after load or a
// quality change, since the widget may downgrade shortly after start.
var QualityEnforcementDelays = []time.Duration{
	500 * time.Millisecond,
	1500 * time.Millisecond,
	3 * time.Second,
	6 * time.Second,
}

// PreferredQuality picks the first priority level in available. With no
// reported levels the top priority is used as a hint.
func PreferredQuality(priority, available []string) string {
	if len(priority) == 0 {
		return ""
	}
	if len(available) == 0 {
		return priority[0]
	}
	for _, level := range priority {
		if slices.Contains(available, level) {
			return level
		}
	}
	return ""
}
