// Package scoring computes the points awarded for a single answer.
package scoring

import (
	"math"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
)

// Score returns the awarded points for an answer. An incorrect answer is
// always worth 0. A correct answer earns the base plus a linear bonus for
// every second left on the question timer, clamped at the base for answers
// that arrive after the timer ran out.
//
// elapsedSeconds is measured by the participant from the moment its client
// first rendered the question, which absorbs per-client notification skew.
func Score(correct bool, elapsedSeconds float64, settings *models.Settings) int {
	if !correct {
		return 0
	}

	remaining := float64(settings.QuestionTimer) - elapsedSeconds
	if remaining < 0 {
		remaining = 0
	}

	return settings.PointsBase + int(math.Floor(remaining*float64(settings.PointsFactor)))
}
