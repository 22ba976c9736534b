package models

import "time"

// Settings is the singleton configuration row (id is always 1).
type Settings struct {
	ID             int64     `json:"id"`
	GameTitle      string    `json:"game_title"`
	LogoURL        string    `json:"logo_url"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	QuestionTimer  int       `json:"question_timer"` // seconds a question stays open
	PointsBase     int       `json:"points_base"`    // floor award for a correct answer
	PointsFactor   int       `json:"points_factor"`  // points per remaining second
	QuestionsLimit int       `json:"questions_limit"`
	AdminPassword  string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const SettingsID = 1

const (
	DefaultQuestionTimer = 20
	DefaultPointsBase    = 1000
	DefaultPointsFactor  = 10
)
