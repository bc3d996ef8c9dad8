package model

// PracticeQuestion is a question from the free-practice bank. Options are
// keyed by option letter. The bank has no timer or fullscreen coupling and
// is never graded server-side, so CorrectAnswer may be absent.
type PracticeQuestion struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correctAnswer,omitempty"`
}
