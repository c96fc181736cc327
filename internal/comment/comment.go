// Package comment stores per-episode comments and drives the comment feed
// shown next to the player.
package comment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/educheia/educheia/internal/auth"
	"github.com/educheia/educheia/internal/validate"
)

const PageSize = 50

var (
	ErrSignInRequired = errors.New("sign in required")
	ErrEmptyBody      = errors.New("comment body is required")
	ErrBodyTooLong    = errors.New("comment body is too long")
	ErrForbidden      = errors.New("not allowed to modify this comment")
	ErrBusy           = errors.New("another comment action is in progress")
	ErrNotFound       = errors.New("comment not found")
	ErrNoEpisode      = errors.New("no episode selected")
)

type Comment struct {
	ID         string     `json:"id"`
	EpisodeID  string     `json:"episodeId"`
	AuthorUID  string     `json:"authorUid"`
	AuthorName string     `json:"authorName"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// CanModify reports whether id may edit or delete c.
func CanModify(c Comment, id auth.Identity) bool {
	if id.UID == "" {
		return false
	}
	return id.Admin || id.UID == c.AuthorUID
}

// Store is a per-episode comment collection. Implementations assign ids and
// creation timestamps.
type Store interface {
	List(ctx context.Context, episodeID string, limit int) ([]Comment, error)
	Create(ctx context.Context, c Comment) (Comment, error)
	Get(ctx context.Context, episodeID, id string) (Comment, error)
	UpdateBody(ctx context.Context, episodeID, id, body string) error
	Delete(ctx context.Context, episodeID, id string) error
}

// NormalizeBody trims body and checks its length.
func NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyBody
	}
	if validate.CommentBody(body) != "" {
		return "", ErrBodyTooLong
	}
	return body, nil
}

func authorName(id auth.Identity) string {
	name := id.DisplayName
	if strings.TrimSpace(name) == "" {
		name = auth.DisplayName("", id.Email)
	}
	return validate.Truncate(name, validate.MaxAuthorNameLength)
}
