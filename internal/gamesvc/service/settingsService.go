package service

import (
	"context"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/gamesvc/store"
)

type SettingsService struct {
	settingsStore *store.SettingsStore
}

func NewSettingsService(settingsStore *store.SettingsStore) *SettingsService {
	return &SettingsService{settingsStore: settingsStore}
}

// Get returns the singleton settings row with scoring defaults applied, so a
// half-configured row still produces sane timers and point values.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	st, err := s.settingsStore.Get(ctx)
	if err != nil {
		return nil, err
	}

	if st.QuestionTimer <= 0 {
		st.QuestionTimer = models.DefaultQuestionTimer
	}
	if st.PointsBase <= 0 {
		st.PointsBase = models.DefaultPointsBase
	}
	if st.PointsFactor <= 0 {
		st.PointsFactor = models.DefaultPointsFactor
	}

	return st, nil
}

func (s *SettingsService) Update(ctx context.Context, st *models.Settings) error {
	return s.settingsStore.Update(ctx, st)
}
