package validate

import (
	"strings"
	"testing"
)

func TestCommentBody(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "Super episod!", ""},
		{"empty", "", ""},
		{"at limit", strings.Repeat("a", MaxCommentBodyLength), ""},
		{"multibyte at limit", strings.Repeat("ș", MaxCommentBodyLength), ""},
		{"over limit", strings.Repeat("a", MaxCommentBodyLength+1), "comment must be 1000 characters or fewer"},
	}
	for _, tt := range tests {
		if got := CommentBody(tt.input); got != tt.want {
			t.Errorf("CommentBody(%q [len=%d]) = %q, want %q", tt.name, len(tt.input), got, tt.want)
		}
	}
}

func TestAuthorName(t *testing.T) {
	if got := AuthorName(strings.Repeat("x", MaxAuthorNameLength+1)); got != "author name must be 100 characters or fewer" {
		t.Errorf("unexpected message %q", got)
	}
	if got := AuthorName("Ana"); got != "" {
		t.Errorf("expected no error, got %q", got)
	}
}

func TestEpisodeID(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"jNQXAC9IVRw", true},
		{"placeholder-1", true},
		{"", false},
		{"../etc", false},
		{strings.Repeat("a", MaxEpisodeIDLength+1), false},
	}
	for _, tt := range tests {
		if got := EpisodeID(tt.input); (got == "") != tt.ok {
			t.Errorf("EpisodeID(%q) = %q, want ok=%v", tt.input, got, tt.ok)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("ăâîșț", 3); got != "ăâî" {
		t.Errorf("expected ăâî, got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
}

func TestFieldLimits(t *testing.T) {
	limits := FieldLimits()
	if limits["commentBody"] != MaxCommentBodyLength {
		t.Errorf("expected commentBody limit %d, got %d", MaxCommentBodyLength, limits["commentBody"])
	}
}
