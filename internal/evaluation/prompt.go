package evaluation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/intervia/interview-api/pkg/model"
)

var (
	// ErrNoValidAnswers means every transcript was empty or whitespace. The
	// pipeline must stop here, before any external call.
	ErrNoValidAnswers = errors.New("no valid answers to evaluate")

	// ErrInvalidCategory means the session has no category label to anchor
	// the evaluation context.
	ErrInvalidCategory = errors.New("invalid interview category")
)

// SystemPrompt is the fixed role message sent with every evaluation request.
const SystemPrompt = "You are a technical interview evaluator."

// resultSchema is appended verbatim to every prompt so the parser can rely
// on a stable contract. Keep in sync with ParseResult.
const resultSchema = `{
  "summary": "Friendly message addressed to the candidate.",
  "full_report": {
    "knowledge_level": "Assessment of overall technical command.",
    "communication": "How the candidate communicates and articulates technical ideas.",
    "strengths": ["List of positive points identified."],
    "improvement_areas": ["List of points that need to evolve."],
    "growth_potential": "Direct comment on future potential or adaptability."
  },
  "score": 0-100
}`

// BuildPrompt assembles the evaluation prompt from the ordered answers of a
// session. Blank transcripts are skipped; the numbering keeps each answer's
// original position so the output is deterministic for the same input.
func BuildPrompt(category string, answers []model.AnswerWithQuestion) (string, error) {
	if strings.TrimSpace(category) == "" {
		return "", ErrInvalidCategory
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The interview level is: %s.\n", category)
	b.WriteString("The summary is the only part addressed to the candidate: keep it impartial, do not reveal whether they did well or poorly, but point out what they got right and wrong following the sandwich feedback structure. Everything else is written for the reviewer. If the candidate shows little or no growth potential, tell the reviewer directly and honestly that they do not seem to fit the role.\n")
	b.WriteString("Take this context into account when evaluating the technical interview answers below and return exclusively a structured JSON object with the following fields:\n\n")
	b.WriteString(resultSchema)
	b.WriteString("\n\nDo not include any text outside the JSON. Only the raw JSON.\n\n")

	valid := 0
	for i, answer := range answers {
		transcript := strings.TrimSpace(answer.Transcript)
		if transcript == "" {
			continue
		}

		question := answer.Question
		if question == "" {
			question = "[question unavailable]"
		}

		fmt.Fprintf(&b, "Question %d: %s\n", i+1, question)
		fmt.Fprintf(&b, "Answer: %s\n\n", transcript)
		valid++
	}

	if valid == 0 {
		return "", ErrNoValidAnswers
	}

	return b.String(), nil
}
