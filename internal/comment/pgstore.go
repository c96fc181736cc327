package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/educheia/educheia/internal/database"
)

type PGStore struct {
	db database.DBTX
}

func NewPGStore(db database.DBTX) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) List(ctx context.Context, episodeID string, limit int) ([]Comment, error) {
	if limit <= 0 || limit > PageSize {
		limit = PageSize
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, episode_id, author_uid, author_name, body, created_at, updated_at
		 FROM episode_comments WHERE episode_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		episodeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		var updatedAt *time.Time
		if err := rows.Scan(&c.ID, &c.EpisodeID, &c.AuthorUID, &c.AuthorName, &c.Body, &c.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.UpdatedAt = updatedAt
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (s *PGStore) Create(ctx context.Context, c Comment) (Comment, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO episode_comments (episode_id, author_uid, author_name, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		c.EpisodeID, c.AuthorUID, c.AuthorName, c.Body,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// validID reports whether id can name a row; ids are UUID columns, so
// anything else is simply not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *PGStore) Get(ctx context.Context, episodeID, id string) (Comment, error) {
	if !validID(id) {
		return Comment{}, ErrNotFound
	}
	var c Comment
	var updatedAt *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT id, episode_id, author_uid, author_name, body, created_at, updated_at
		 FROM episode_comments WHERE id = $1 AND episode_id = $2`,
		id, episodeID,
	).Scan(&c.ID, &c.EpisodeID, &c.AuthorUID, &c.AuthorName, &c.Body, &c.CreatedAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, fmt.Errorf("get comment: %w", err)
	}
	c.UpdatedAt = updatedAt
	return c, nil
}

func (s *PGStore) UpdateBody(ctx context.Context, episodeID, id, body string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE episode_comments SET body = $1, updated_at = now() WHERE id = $2 AND episode_id = $3`,
		body, id, episodeID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, episodeID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx,
		`DELETE FROM episode_comments WHERE id = $1 AND episode_id = $2`,
		id, episodeID,
	)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
