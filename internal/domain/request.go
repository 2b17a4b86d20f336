package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fallbacks used when numeric request fields cannot be parsed
const (
	DefaultBirthYear = 2024
	DefaultStartAge  = 1
)

// FlexInt holds a numeric field that may arrive as a JSON number or as text.
// The literal text is kept so that it can be fingerprinted and echoed back.
type FlexInt string

// UnmarshalJSON accepts numbers, strings and null
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexInt(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected number or string: %w", err)
		}
		*f = FlexInt(n.String())
	}
	return nil
}

// MarshalJSON emits a number when the text is an integer, otherwise a string
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(f)); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// maxFlexInt bounds accepted values so that derived years cannot overflow
const maxFlexInt = math.MaxInt32

// Int parses the value as an integer. Integral floats such as "1990.0" are
// accepted; anything outside ±maxFlexInt is not.
func (f FlexInt) Int() (int, bool) {
	s := strings.TrimSpace(string(f))
	if n, err := strconv.Atoi(s); err == nil {
		if n > maxFlexInt || n < -maxFlexInt {
			return 0, false
		}
		return n, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > maxFlexInt {
		return 0, false
	}
	return int(v), true
}

// IntOr coerces the value to an integer, returning fallback when it is not integral.
func (f FlexInt) IntOr(fallback int) int {
	if n, ok := f.Int(); ok {
		return n
	}
	return fallback
}

// Canonical returns the decimal form of an integral value, or the trimmed
// text when it does not parse.
func (f FlexInt) Canonical() string {
	if n, ok := f.Int(); ok {
		return strconv.Itoa(n)
	}
	return strings.TrimSpace(string(f))
}

// AnalysisRequest is the structured input of one analysis
type AnalysisRequest struct {
	Name        string  `json:"name,omitempty"`
	Gender      Gender  `json:"gender"`
	BirthYear   FlexInt `json:"birthYear"`
	YearPillar  string  `json:"yearPillar"`
	MonthPillar string  `json:"monthPillar"`
	DayPillar   string  `json:"dayPillar"`
	HourPillar  string  `json:"hourPillar"`
	StartAge    FlexInt `json:"startAge"`
	FirstPhase  string  `json:"firstSuperLuck"`
	ModelName   string  `json:"modelName,omitempty"`
	APIBaseURL  string  `json:"apiBaseUrl,omitempty"`
	APIKey      string  `json:"apiKey,omitempty"`
}

// UnmarshalJSON also accepts firstDaYun as an alias of firstSuperLuck
func (r *AnalysisRequest) UnmarshalJSON(data []byte) error {
	type plain AnalysisRequest
	var aux struct {
		plain
		FirstDaYun string `json:"firstDaYun"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = AnalysisRequest(aux.plain)
	if r.FirstPhase == "" {
		r.FirstPhase = aux.FirstDaYun
	}
	return nil
}

// Pillars returns the four chart pillars in year, month, day, hour order
func (r AnalysisRequest) Pillars() []string {
	return []string{r.YearPillar, r.MonthPillar, r.DayPillar, r.HourPillar}
}

// ResolvedBirthYear returns the birth year or DefaultBirthYear
func (r AnalysisRequest) ResolvedBirthYear() int {
	return r.BirthYear.IntOr(DefaultBirthYear)
}

// ResolvedStartAge returns the start age or DefaultStartAge
func (r AnalysisRequest) ResolvedStartAge() int {
	return r.StartAge.IntOr(DefaultStartAge)
}

// Validate checks the fields the request layer requires
func (r AnalysisRequest) Validate() error {
	if !r.Gender.Valid() {
		return fmt.Errorf("%w: gender must be %q or %q", ErrInvalidInput, GenderMale, GenderFemale)
	}
	required := []struct{ name, value string }{
		{"yearPillar", r.YearPillar},
		{"monthPillar", r.MonthPillar},
		{"dayPillar", r.DayPillar},
		{"hourPillar", r.HourPillar},
		{"firstSuperLuck", r.FirstPhase},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	return nil
}
