package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"heritage_hunter/internal/adapters/observability"
	"heritage_hunter/internal/domain"
)

type VisitService struct {
	repo     domain.PubRepository
	datasets *DatasetService
}

func NewVisitService(r domain.PubRepository, d *DatasetService) *VisitService {
	return &VisitService{repo: r, datasets: d}
}

// ParseVisit validates a save request: pub id required, date empty or YYYY-MM-DD,
// content trimmed and at most MaxPostContent runes.
func ParseVisit(in domain.VisitInput) (content string, date *time.Time, err error) {
	if in.PubID <= 0 {
		return "", nil, fmt.Errorf("%w: pub_id is required", domain.ErrInvalidInput)
	}
	if d := strings.TrimSpace(in.DateVisited); d != "" {
		t, perr := time.Parse(domain.InputDateLayout, d)
		if perr != nil {
			return "", nil, fmt.Errorf("%w: date_visited must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		date = &t
	}
	content = strings.TrimSpace(in.Content)
	if utf8.RuneCountInString(content) > domain.MaxPostContent {
		return "", nil, fmt.Errorf("%w: content exceeds %d characters", domain.ErrInvalidInput, domain.MaxPostContent)
	}
	return content, date, nil
}

func (s *VisitService) SaveVisit(ctx context.Context, userID int64, in domain.VisitInput) (err error) {
	defer func() { observability.ObserveVisit("save", err) }()

	content, date, err := ParseVisit(in)
	if err != nil {
		return err
	}
	if err := s.repo.SaveVisit(ctx, userID, in.PubID, content, date); err != nil {
		return fmt.Errorf("save visit pub=%d: %w", in.PubID, err)
	}
	s.datasets.Invalidate(ctx, userID)
	return nil
}

func (s *VisitService) DeleteVisit(ctx context.Context, userID, pubID int64) (err error) {
	defer func() { observability.ObserveVisit("delete", err) }()

	if pubID <= 0 {
		return fmt.Errorf("%w: pub_id is required", domain.ErrInvalidInput)
	}
	if err := s.repo.DeleteVisit(ctx, userID, pubID); err != nil {
		return fmt.Errorf("delete visit pub=%d: %w", pubID, err)
	}
	s.datasets.Invalidate(ctx, userID)
	return nil
}
