package categorize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chdeimos/moneyo/internal/ledger"
)

var ErrInvalidRule = errors.New("raw_pattern and category_id are required")

// Repository stores rules mapping a raw description fragment to a category.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=categorize
type Repository interface {
	FindCategory(ctx context.Context, rawDescription string) (*uuid.UUID, error)
	CreateRule(ctx context.Context, rawPattern string, categoryID uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the category of the longest rule contained in
// rawDescription, or nil when no rule matches.
func (s *Service) Suggest(ctx context.Context, rawDescription string) (*uuid.UUID, error) {
	return s.repo.FindCategory(ctx, rawDescription)
}

// Learn remembers that descriptions containing rawPattern belong to
// categoryID.
func (s *Service) Learn(ctx context.Context, rawPattern string, categoryID uuid.UUID) error {
	rawPattern = strings.TrimSpace(rawPattern)
	if rawPattern == "" || categoryID == uuid.Nil {
		return ErrInvalidRule
	}

	return s.repo.CreateRule(ctx, rawPattern, categoryID)
}

// Apply fills in the category of every uncategorized row a rule matches.
// It returns how many rows were categorized.
func (s *Service) Apply(ctx context.Context, params []ledger.CreateParams) (int, error) {
	n := 0

	for i := range params {
		if params[i].CategoryID != nil || params[i].Description == "" {
			continue
		}

		id, err := s.repo.FindCategory(ctx, params[i].Description)
		if err != nil {
			return n, fmt.Errorf("categorizing %q: %w", params[i].Description, err)
		}

		if id != nil {
			params[i].CategoryID = id
			n++
		}
	}

	return n, nil
}
