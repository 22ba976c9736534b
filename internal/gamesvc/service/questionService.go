package service

import (
	"context"
	"fmt"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/gamesvc/store"
)

type QuestionService struct {
	questionStore *store.QuestionStore
}

func NewQuestionService(questionStore *store.QuestionStore) *QuestionService {
	return &QuestionService{questionStore: questionStore}
}

func (s *QuestionService) GetByID(ctx context.Context, id string) (*models.Question, error) {
	return s.questionStore.GetByID(ctx, id)
}

func (s *QuestionService) Exists(ctx context.Context, id string) (bool, error) {
	return s.questionStore.Exists(ctx, id)
}

func (s *QuestionService) List(ctx context.Context) ([]models.Question, error) {
	return s.questionStore.List(ctx)
}

// Create validates the option-count and correct-index invariants before
// inserting.
func (s *QuestionService) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	if q.QuestionText == "" {
		return nil, fmt.Errorf("question text cannot be empty")
	}
	for _, opt := range q.Options {
		if opt == "" {
			return nil, fmt.Errorf("question options cannot be empty")
		}
	}
	if !q.Valid() {
		return nil, fmt.Errorf("question must have 3-4 options and a correct_option inside that range")
	}

	return s.questionStore.Create(ctx, q)
}

// CreateBatch inserts imported questions one by one, returning how many made
// it in.
func (s *QuestionService) CreateBatch(ctx context.Context, questions []models.Question) (int, error) {
	inserted := 0
	for i := range questions {
		if _, err := s.Create(ctx, &questions[i]); err != nil {
			return inserted, fmt.Errorf("import row %d: %w", i+1, err)
		}
		inserted++
	}
	return inserted, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	return s.questionStore.Delete(ctx, id)
}
