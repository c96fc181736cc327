package catalog

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	trailerRe  = regexp.MustCompile(`(?i)trailer`)
	brandRe    = regexp.MustCompile(`(?i)(educheia|podcast|episod)`)
	spaceRe    = regexp.MustCompile(`\s+`)
	facebookRe = regexp.MustCompile(`(?i)https?://(?:www\.)?facebook\.com/[\w\-.?=&/%]+`)
)

type Guest struct {
	Name      string
	Topic     string
	EpisodeID string
	Date      string
	Image     string
	Link      string
}

func normalizeTitle(title string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(title, " "))
}

// IsTrailer reports whether the title names a trailer rather than an episode.
func IsTrailer(title string) bool {
	return trailerRe.MatchString(title)
}

// GuestName extracts the guest from a "Guest: topic | tags" title. Trailers
// and titles whose first segment names the show itself have no guest.
func GuestName(title string) (string, bool) {
	t := normalizeTitle(title)
	if t == "" || IsTrailer(t) {
		return "", false
	}
	first, _, _ := strings.Cut(t, ":")
	first = strings.TrimSpace(first)
	if utf8.RuneCountInString(first) < 2 {
		return "", false
	}
	if brandRe.MatchString(first) {
		return "", false
	}
	return first, true
}

// Topic returns the title segment between the first colon and the first
// pipe, capitalized. Titles without a topic segment yield the whole title.
func Topic(title string) string {
	t := normalizeTitle(title)
	if t == "" {
		return ""
	}
	topic := ""
	if parts := strings.Split(t, ":"); len(parts) > 1 {
		head, _, _ := strings.Cut(parts[1], "|")
		topic = strings.TrimSpace(head)
	}
	if topic == "" {
		topic = t
	}
	r, size := utf8.DecodeRuneInString(topic)
	if unicode.IsUpper(r) {
		return topic
	}
	return cases.Upper(language.Romanian).String(topic[:size]) + topic[size:]
}

func guestKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Latest returns the first non-trailer episode with a title.
func Latest(episodes []Episode) (Episode, bool) {
	for _, e := range episodes {
		if strings.TrimSpace(e.Title) != "" && !IsTrailer(e.Title) {
			return e, true
		}
	}
	return Episode{}, false
}

// RecentGuests lists up to limit distinct guests in list order.
func RecentGuests(episodes []Episode, limit int, formatDate func(Episode) string) []Guest {
	guests := make([]Guest, 0)
	seen := make(map[string]struct{})
	for _, e := range episodes {
		if limit > 0 && len(guests) >= limit {
			break
		}
		name, ok := GuestName(e.Title)
		if !ok {
			continue
		}
		key := guestKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		g := Guest{
			Name:      name,
			Topic:     Topic(e.Title),
			EpisodeID: e.ID,
			Image:     guestImage(e),
			Link:      FacebookLink(e.Description, name),
		}
		if formatDate != nil {
			g.Date = formatDate(e)
		}
		guests = append(guests, g)
	}
	return guests
}

func guestImage(e Episode) string {
	for _, k := range []string{"high", "medium", "default"} {
		if t, ok := e.Thumbnails[k]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// CountGuests counts distinct guests, ignoring case.
func CountGuests(episodes []Episode) int {
	seen := make(map[string]struct{})
	for _, e := range episodes {
		if name, ok := GuestName(e.Title); ok {
			seen[guestKey(name)] = struct{}{}
		}
	}
	return len(seen)
}

// FacebookLink finds a profile link in the description or falls back to a
// search for the guest.
func FacebookLink(description, guest string) string {
	if m := facebookRe.FindString(description); m != "" {
		return strings.TrimRight(m, "),.;")
	}
	q := guest
	if q == "" {
		q = "Educheia"
	}
	return "https://www.facebook.com/search/top/?q=" + url.QueryEscape(q)
}
