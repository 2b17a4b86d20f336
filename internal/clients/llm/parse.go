package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aristath/lifecandle/internal/domain"
)

var fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON strips prose and code fences around the JSON object in content.
// A fenced block wins; otherwise the span from the first '{' to the last '}'.
func ExtractJSON(content string) string {
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		return content[start : end+1]
	}
	return content
}

// upstreamPayload mirrors the model's output. Pointers tell absent from zero.
type upstreamPayload struct {
	ChartPoints      json.RawMessage `json:"chartPoints"`
	Bazi             []string        `json:"bazi"`
	Summary          *string         `json:"summary"`
	SummaryScore     *float64        `json:"summaryScore"`
	Personality      *string         `json:"personality"`
	PersonalityScore *float64        `json:"personalityScore"`
	Industry         *string         `json:"industry"`
	IndustryScore    *float64        `json:"industryScore"`
	Geomancy         *string         `json:"geomancy"`
	GeomancyScore    *float64        `json:"geomancyScore"`
	Wealth           *string         `json:"wealth"`
	WealthScore      *float64        `json:"wealthScore"`
	Marriage         *string         `json:"marriage"`
	MarriageScore    *float64        `json:"marriageScore"`
	Health           *string         `json:"health"`
	HealthScore      *float64        `json:"healthScore"`
	Family           *string         `json:"family"`
	FamilyScore      *float64        `json:"familyScore"`
	Crypto           *string         `json:"crypto"`
	CryptoScore      *float64        `json:"cryptoScore"`
	CryptoYear       *string         `json:"cryptoYear"`
	CryptoStyle      *string         `json:"cryptoStyle"`
}

const defaultScore = 5

func str(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func score(v *float64) float64 {
	if v == nil {
		return defaultScore
	}
	return *v
}

// ParseResult decodes model output into a complete AnalysisResult. A missing
// or non-array chartPoints is an upstream failure; report fields are backfilled.
func ParseResult(content string) (domain.AnalysisResult, error) {
	var p upstreamPayload
	if err := json.Unmarshal([]byte(ExtractJSON(content)), &p); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: model output is not valid JSON: %v", domain.ErrUpstream, err)
	}

	raw := bytes.TrimSpace(p.ChartPoints)
	if len(raw) == 0 || raw[0] != '[' {
		return domain.AnalysisResult{}, fmt.Errorf("%w: model output is missing chartPoints", domain.ErrUpstream)
	}
	var points []domain.ChartPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: malformed chartPoints: %v", domain.ErrUpstream, err)
	}

	pillars := p.Bazi
	if pillars == nil {
		pillars = []string{}
	}

	return domain.AnalysisResult{
		Timeline: points,
		Report: domain.NarrativeReport{
			Pillars:          pillars,
			Summary:          str(p.Summary, "无摘要"),
			SummaryScore:     score(p.SummaryScore),
			Personality:      str(p.Personality, "无性格分析"),
			PersonalityScore: score(p.PersonalityScore),
			Industry:         str(p.Industry, "无"),
			IndustryScore:    score(p.IndustryScore),
			Geomancy:         str(p.Geomancy, "建议多亲近自然，保持心境平和。"),
			GeomancyScore:    score(p.GeomancyScore),
			Wealth:           str(p.Wealth, "无"),
			WealthScore:      score(p.WealthScore),
			Marriage:         str(p.Marriage, "无"),
			MarriageScore:    score(p.MarriageScore),
			Health:           str(p.Health, "无"),
			HealthScore:      score(p.HealthScore),
			Family:           str(p.Family, "无"),
			FamilyScore:      score(p.FamilyScore),
			Crypto:           str(p.Crypto, "暂无交易分析"),
			CryptoScore:      score(p.CryptoScore),
			CryptoYear:       str(p.CryptoYear, "待定"),
			CryptoStyle:      str(p.CryptoStyle, "现货定投"),
		},
	}, nil
}
