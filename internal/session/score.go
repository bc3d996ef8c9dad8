package session

import (
	"math"

	"github.com/prepforge/prepforge-backend/internal/model"
)

// Score grades the answer map against the test definition. Answers compare
// with exact value equality; an absent answer counts as incorrect, never as
// an error. The percentage rounds half up (12.5% → 13%).
func Score(test *model.TestDefinition, answers model.AnswerMap) *model.ResultRecord {
	correct := 0
	for i, q := range test.Questions {
		if selected, ok := answers[i]; ok && selected == q.Answer {
			correct++
		}
	}

	total := len(test.Questions)
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return &model.ResultRecord{
		TestName:       test.TestName,
		TotalQuestions: total,
		CorrectCount:   correct,
		ScorePercent:   percent,
		Answers:        answers.Copy(),
	}
}
