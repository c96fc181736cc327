package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Text field length limits, counted in characters.
const (
	MaxCommentBodyLength = 1000
	MaxAuthorNameLength  = 100
	MaxEpisodeIDLength   = 64
)

func checkLen(value string, max int, field string) string {
	if utf8.RuneCountInString(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func CommentBody(s string) string { return checkLen(s, MaxCommentBodyLength, "comment") }
func AuthorName(s string) string  { return checkLen(s, MaxAuthorNameLength, "author name") }

// EpisodeID accepts the opaque ids used by the video host: letters, digits,
// '-' and '_'.
func EpisodeID(s string) string {
	if strings.TrimSpace(s) == "" {
		return "episode id is required"
	}
	if msg := checkLen(s, MaxEpisodeIDLength, "episode id"); msg != "" {
		return msg
	}
	for _, r := range s {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "episode id contains invalid characters"
		}
	}
	return ""
}

// Truncate cuts s to at most max characters.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"commentBody": MaxCommentBodyLength,
		"authorName":  MaxAuthorNameLength,
	}
}
