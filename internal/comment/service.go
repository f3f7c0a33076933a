// Package comment implements the anonymous, append-only comment log. No
// update or delete exists, and the commenter's identity is never accepted by
// the API, so it cannot be stored or leaked.
package comment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/confessbot/internal/logging"
	"github.com/m3rciful/confessbot/internal/model"
	"github.com/m3rciful/confessbot/internal/storage"
)

// PageSize is the fixed number of comments per page.
const PageSize = 10

// Page is one slice of a confession's comment log.
type Page struct {
	Comments []model.Comment
	Total    int
	Number   int
}

// HasNext reports whether another page follows this one.
func (p Page) HasNext() bool {
	return (p.Number+1)*PageSize < p.Total
}

// Service is the comment log.
type Service struct {
	repo storage.Repository
	log  *slog.Logger
}

// NewService wires the comment log.
func NewService(repo storage.Repository) *Service {
	return &Service{repo: repo, log: logging.Component("comment")}
}

// Add appends an anonymous comment to an existing confession.
func (s *Service) Add(ctx context.Context, confessionID int64, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &model.ValidationError{Reason: "comment text is empty"}
	}
	if _, err := s.repo.GetConfession(ctx, confessionID); err != nil {
		return nil, err
	}
	c, err := s.repo.InsertComment(ctx, confessionID, text)
	if err != nil {
		return nil, err
	}
	s.log.Info("comment added",
		slog.String("event", "comment.add"),
		slog.Int64("confession_id", confessionID),
		slog.Int64("comment_id", c.ID),
	)
	return c, nil
}

// List returns the zero-based page of a confession's comments in ascending id
// order plus the total count. Pages beyond the end yield an empty slice, not
// an error. Ordering on the append-only id keeps already-delivered pages
// stable under concurrent appends.
func (s *Service) List(ctx context.Context, confessionID int64, page int) (Page, error) {
	if page < 0 {
		page = 0
	}
	total, err := s.repo.CountComments(ctx, confessionID)
	if err != nil {
		return Page{}, err
	}
	comments, err := s.repo.ListComments(ctx, confessionID, PageSize, page*PageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{Comments: comments, Total: total, Number: page}, nil
}
