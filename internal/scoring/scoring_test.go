package scoring

import (
	"testing"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
)

func testSettings() *models.Settings {
	return &models.Settings{
		QuestionTimer: 20,
		PointsBase:    1000,
		PointsFactor:  10,
	}
}

func TestScoreCorrectWithinTimer(t *testing.T) {
	// 15 seconds remaining at 10 points per second on top of the base
	assert.Equal(t, 1150, Score(true, 5, testSettings()))
}

func TestScoreCorrectAfterTimer(t *testing.T) {
	// late answers clamp at the base, never negative
	assert.Equal(t, 1000, Score(true, 25, testSettings()))
	assert.Equal(t, 1000, Score(true, 20, testSettings()))
	assert.Equal(t, 1000, Score(true, 10000, testSettings()))
}

func TestScoreIncorrectIsZero(t *testing.T) {
	assert.Equal(t, 0, Score(false, 0, testSettings()))
	assert.Equal(t, 0, Score(false, 5, testSettings()))
	assert.Equal(t, 0, Score(false, 25, testSettings()))
}

func TestScoreMatchesFormulaAndNeverIncreases(t *testing.T) {
	s := testSettings()

	prev := Score(true, 0, s)
	assert.Equal(t, 1200, prev) // full timer remaining

	for elapsed := 0.0; elapsed <= float64(s.QuestionTimer); elapsed += 0.25 {
		got := Score(true, elapsed, s)

		remaining := float64(s.QuestionTimer) - elapsed
		want := s.PointsBase + int(remaining*float64(s.PointsFactor))
		assert.Equal(t, want, got, "elapsed=%v", elapsed)

		assert.LessOrEqual(t, got, prev, "score must not increase with elapsed time")
		assert.GreaterOrEqual(t, got, s.PointsBase)
		prev = got
	}
}

func TestScoreFlooredBonus(t *testing.T) {
	// 13.5s remaining -> floor(13.5 * 10) = 135
	assert.Equal(t, 1135, Score(true, 6.5, testSettings()))
}
