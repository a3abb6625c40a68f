package model

// EvaluationResult is the parsed output of the external evaluation service.
// Fallback is true when the raw response could not be decoded at all and
// every field carries its placeholder value.
type EvaluationResult struct {
	Summary    string     `json:"summary"`
	FullReport FullReport `json:"full_report"`
	Score      float64    `json:"score"`
	Fallback   bool       `json:"-"`
}
