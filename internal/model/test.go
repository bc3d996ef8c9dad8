package model

// Question is a single multiple-choice question. Answer holds the correct
// option value and is compared with exact equality at scoring time.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// TestDefinition is an immutable generated test. DurationMinutes is authored
// in minutes; it is converted to seconds exactly once when a session
// activates. Questions keeps presentation order and is never reshuffled
// after load.
type TestDefinition struct {
	TestName        string     `json:"testName"`
	DurationMinutes int        `json:"duration"`
	Questions       []Question `json:"questions"`
}

// GenerateTestRequest is the payload for generating a new test.
type GenerateTestRequest struct {
	TestName          string `json:"testName" binding:"required,min=3,max=255"`
	Description       string `json:"description" binding:"required,min=3,max=2000"`
	NumQuestions      int    `json:"numQuestions" binding:"required,min=1,max=65"`
	Duration          int    `json:"duration" binding:"required,min=1,max=480"`
	LevelOfDifficulty string `json:"levelOfDifficulty" binding:"omitempty,oneof=easy medium hard"`
}

// TestResponse is the wire shape returned by the generate and retrieval
// endpoints.
type TestResponse struct {
	TestID    string     `json:"testId"`
	TestName  string     `json:"testName"`
	Duration  int        `json:"duration"`
	Questions []Question `json:"questions,omitempty"`
}
