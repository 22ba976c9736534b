package models

import "time"

type Question struct {
	ID            string    `json:"id"` // uuid
	QuestionText  string    `json:"question_text"`
	Options       []string  `json:"options"`        // 3 or 4 answer options
	CorrectOption int       `json:"correct_option"` // zero-based index into Options
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Valid reports whether the question satisfies the option-count and
// correct-index invariants.
func (q *Question) Valid() bool {
	if len(q.Options) < 3 || len(q.Options) > 4 {
		return false
	}
	return q.CorrectOption >= 0 && q.CorrectOption < len(q.Options)
}
