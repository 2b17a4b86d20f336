// Package domain provides the core analysis models shared by every layer.
package domain

// Gender of the chart subject
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Valid reports whether g is one of the declared genders
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ChartPoint is one yearly candle of the life timeline.
// JSON names follow the wire format consumed by the frontend.
type ChartPoint struct {
	Age         int     `json:"age"`
	Year        int     `json:"year"`
	CycleTerm   string  `json:"ganZhi"`
	DecadePhase string  `json:"superLuck"`
	Open        float64 `json:"open"`
	Close       float64 `json:"close"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
}

// NarrativeReport is the scored text report attached to a timeline
type NarrativeReport struct {
	Pillars          []string `json:"bazi"`
	Summary          string   `json:"summary"`
	SummaryScore     float64  `json:"summaryScore"`
	Personality      string   `json:"personality"`
	PersonalityScore float64  `json:"personalityScore"`
	Industry         string   `json:"industry"`
	IndustryScore    float64  `json:"industryScore"`
	Geomancy         string   `json:"geomancy"`
	GeomancyScore    float64  `json:"geomancyScore"`
	Wealth           string   `json:"wealth"`
	WealthScore      float64  `json:"wealthScore"`
	Marriage         string   `json:"marriage"`
	MarriageScore    float64  `json:"marriageScore"`
	Health           string   `json:"health"`
	HealthScore      float64  `json:"healthScore"`
	Family           string   `json:"family"`
	FamilyScore      float64  `json:"familyScore"`
	Crypto           string   `json:"crypto"`
	CryptoScore      float64  `json:"cryptoScore"`
	CryptoYear       string   `json:"cryptoYear"`
	CryptoStyle      string   `json:"cryptoStyle"`
}

// AnalysisResult is the complete output for one request. Treat as immutable once built.
type AnalysisResult struct {
	Timeline []ChartPoint    `json:"chartData"`
	Report   NarrativeReport `json:"analysis"`
}
