package evaluation

import (
	"strings"

	"github.com/intervia/interview-api/pkg/model"
	"github.com/tidwall/gjson"
)

// Fallback values substituted when the evaluation service returns something
// the parser cannot use. A partially wrong evaluation is preferred over
// losing a completed interview's result.
const (
	FallbackSummary = "Summary not available."
	FallbackSection = "Not available."
)

func fallbackReport() model.FullReport {
	return model.FullReport{
		KnowledgeLevel:   FallbackSection,
		Communication:    FallbackSection,
		Strengths:        []string{},
		ImprovementAreas: []string{},
		GrowthPotential:  FallbackSection,
	}
}

// ParseResult converts the raw evaluation text into a structured result.
// It never fails: missing or malformed fields degrade to fallback values,
// field by field. A score is accepted only when it is a JSON number inside
// [0,100]; anything else becomes 0, never clamped.
func ParseResult(raw string) model.EvaluationResult {
	doc := extractJSON(raw)
	if doc == "" || !gjson.Valid(doc) {
		return model.EvaluationResult{
			Summary:    FallbackSummary,
			FullReport: fallbackReport(),
			Score:      0,
			Fallback:   true,
		}
	}

	parsed := gjson.Parse(doc)
	if !parsed.IsObject() {
		return model.EvaluationResult{
			Summary:    FallbackSummary,
			FullReport: fallbackReport(),
			Score:      0,
			Fallback:   true,
		}
	}

	result := model.EvaluationResult{
		Summary:    FallbackSummary,
		FullReport: fallbackReport(),
		Score:      0,
	}

	if s := parsed.Get("summary"); s.Type == gjson.String && strings.TrimSpace(s.String()) != "" {
		result.Summary = strings.TrimSpace(s.String())
	}

	if report := parsed.Get("full_report"); report.IsObject() {
		result.FullReport.KnowledgeLevel = sectionOr(report.Get("knowledge_level"), FallbackSection)
		result.FullReport.Communication = sectionOr(report.Get("communication"), FallbackSection)
		result.FullReport.Strengths = stringList(report.Get("strengths"))
		result.FullReport.ImprovementAreas = stringList(report.Get("improvement_areas"))
		result.FullReport.GrowthPotential = sectionOr(report.Get("growth_potential"), FallbackSection)
	}

	if score := parsed.Get("score"); score.Type == gjson.Number {
		if v := score.Float(); v >= 0 && v <= 100 {
			result.Score = v
		}
	}

	return result
}

func sectionOr(v gjson.Result, fallback string) string {
	if v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
		return strings.TrimSpace(v.String())
	}
	return fallback
}

func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return []string{}
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
	}
	return out
}

// extractJSON isolates the outermost JSON object from raw model output,
// which may arrive wrapped in markdown fences or surrounded by prose.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
