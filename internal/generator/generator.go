package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Generator produces test definitions with an OpenAI-compatible LLM.
type Generator struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

// New creates a Generator. baseURL may be empty to use the default OpenAI
// endpoint.
func New(baseURL, apiKey, modelName string, log zerolog.Logger) *Generator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Generator{
		api:   openai.NewClientWithConfig(cfg),
		model: modelName,
		log:   log.With().Str("component", "generator").Logger(),
	}
}

// generatedPayload is the JSON object the LLM is instructed to return.
type generatedPayload struct {
	Questions []model.Question `json:"questions"`
}

// Generate asks the LLM for the requested number of questions and returns a
// validated definition. Unparseable or invalid output is an error; the
// caller decides whether to surface it, there are no silent retries.
func (g *Generator) Generate(ctx context.Context, req model.GenerateTestRequest) (*model.TestDefinition, error) {
	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Description},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	g.log.Debug().Str("raw", raw).Msg("LLM response")

	questions, err := parseQuestions(raw, req.NumQuestions)
	if err != nil {
		return nil, err
	}

	return &model.TestDefinition{
		TestName:        req.TestName,
		DurationMinutes: req.Duration,
		Questions:       questions,
	}, nil
}

// buildSystemPrompt renders the generation instructions for one request.
func buildSystemPrompt(req model.GenerateTestRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an exam author. Generate multiple-choice practice questions for the topic the user describes.\n\n")
	fmt.Fprintf(&sb, "NUMBER OF QUESTIONS: %d\n", req.NumQuestions)
	if req.LevelOfDifficulty != "" {
		fmt.Fprintf(&sb, "DIFFICULTY: %s\n", req.LevelOfDifficulty)
	}
	sb.WriteString("\nRULES:\n")
	sb.WriteString("- Every question is single-select with exactly one correct answer.\n")
	sb.WriteString("- Provide 4 answer options per question.\n")
	sb.WriteString("- The answer field must exactly equal one of the options.\n")
	sb.WriteString("\nRespond ONLY with a JSON object of this shape:\n")
	sb.WriteString(`{"questions": [{"question": "<text>", "options": ["<a>", "<b>", "<c>", "<d>"], "answer": "<correct option>"}]}`)
	return sb.String()
}

// parseQuestions decodes and validates the LLM output. A surplus of
// questions is trimmed to the requested count; a shortfall is an error.
func parseQuestions(raw string, want int) ([]model.Question, error) {
	var payload generatedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w", err)
	}

	if len(payload.Questions) < want {
		return nil, fmt.Errorf("LLM returned %d questions, want %d", len(payload.Questions), want)
	}
	questions := payload.Questions[:want]

	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d: empty text", i)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d: only %d options", i, len(q.Options))
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.Answer {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("question %d: answer %q is not among the options", i, q.Answer)
		}
	}
	return questions, nil
}
