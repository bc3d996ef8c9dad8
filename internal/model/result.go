package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerMap maps a 0-based question index to the selected option value.
// A question absent from the map is unanswered.
type AnswerMap map[int]string

// Copy returns an independent copy of the map.
func (a AnswerMap) Copy() AnswerMap {
	out := make(AnswerMap, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ResultRecord is the scored outcome of a completed exam attempt. It is
// created exactly once, at submission, and handed off to the results
// display through a single-use slot.
type ResultRecord struct {
	TestName       string    `json:"testName"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectCount   int       `json:"correctAnswers"`
	ScorePercent   int       `json:"score"`
	Answers        AnswerMap `json:"selectedAnswers"`
}

// ResultRow is a durably persisted exam result.
type ResultRow struct {
	ID             uuid.UUID `json:"id"`
	SessionID      uuid.UUID `json:"session_id"`
	TestID         string    `json:"test_id"`
	TestName       string    `json:"test_name"`
	TotalQuestions int       `json:"total_questions"`
	CorrectCount   int       `json:"correct_count"`
	ScorePercent   int       `json:"score_percent"`
	Answers        AnswerMap `json:"answers"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
