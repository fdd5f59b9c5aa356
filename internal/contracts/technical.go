package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Technical categories, in report order
const (
	CategoryTrend      = "trend_strength"
	CategoryMomentum   = "momentum"
	CategoryVolatility = "volatility"
	CategoryStructure  = "price_structure"
	CategoryVolume     = "volume_price"
)

// CategoryOrder lists categories in the order they are reported
var CategoryOrder = []string{
	CategoryTrend,
	CategoryMomentum,
	CategoryVolatility,
	CategoryStructure,
	CategoryVolume,
}

// IndicatorResult is the score of one technical indicator.
// Diagnostics are flattened into the JSON object next to score.
type IndicatorResult struct {
	Score       float64                `json:"score"`
	MaxScore    float64                `json:"max_score"`
	Explanation string                 `json:"explanation"`
	Diagnostics map[string]interface{} `json:"-"`
}

// Insufficient returns a zero score result with an explanation
func Insufficient(maxScore float64, explanation string) IndicatorResult {
	return IndicatorResult{MaxScore: maxScore, Explanation: explanation}
}

// With adds a diagnostic value
func (r IndicatorResult) With(key string, value interface{}) IndicatorResult {
	if r.Diagnostics == nil {
		r.Diagnostics = make(map[string]interface{})
	}
	r.Diagnostics[key] = value
	return r
}

// MarshalJSON flattens diagnostics into the object
func (r IndicatorResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Diagnostics)+3)
	for k, v := range r.Diagnostics {
		out[k] = v
	}
	out["score"] = r.Score
	out["max_score"] = r.MaxScore
	out["explanation"] = r.Explanation
	return json.Marshal(out)
}

// UnmarshalJSON splits known keys from diagnostics
func (r *IndicatorResult) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode indicator result: %w", err)
	}
	*r = IndicatorResult{}
	for k, v := range raw {
		switch k {
		case "score":
			r.Score, _ = v.(float64)
		case "max_score":
			r.MaxScore, _ = v.(float64)
		case "explanation":
			r.Explanation, _ = v.(string)
		default:
			if r.Diagnostics == nil {
				r.Diagnostics = make(map[string]interface{})
			}
			r.Diagnostics[k] = v
		}
	}
	return nil
}

// CategoryResult aggregates the indicators of one category
type CategoryResult struct {
	Category     string                     `json:"category"`
	MaxPoints    float64                    `json:"max_points"`
	EarnedPoints float64                    `json:"earned_points"`
	Indicators   map[string]IndicatorResult `json:"indicators"`
}

// NewCategoryResult creates an empty category
func NewCategoryResult(category string) *CategoryResult {
	return &CategoryResult{
		Category:   category,
		Indicators: make(map[string]IndicatorResult),
	}
}

// Add records an indicator and accumulates its points.
// Score is clamped to [0, MaxScore] so a category never earns above its max.
func (c *CategoryResult) Add(name string, r IndicatorResult) {
	if r.Score > r.MaxScore || r.Score < 0 {
		r = r.With("uncapped_score", r.Score)
		r.Score = math.Max(0, math.Min(r.Score, r.MaxScore))
	}
	c.Indicators[name] = r
	c.MaxPoints += r.MaxScore
	c.EarnedPoints += r.Score
}

// DateRange is the first and last bar of a series
type DateRange struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

// DataInfo describes the series a score was computed from
type DataInfo struct {
	TotalDays   int       `json:"total_days"`
	DateRange   DateRange `json:"date_range"`
	LatestPrice float64   `json:"latest_price"`
}

// CompositeScore is the technical score of one series
type CompositeScore struct {
	Error           bool                       `json:"error"`
	Message         string                     `json:"message,omitempty"`
	TotalScore      float64                    `json:"total_score"`
	MaxScore        float64                    `json:"max_score"`
	ScorePercentage float64                    `json:"score_percentage"`
	Categories      map[string]*CategoryResult `json:"categories"`
	DataInfo        *DataInfo                  `json:"data_info,omitempty"`
}

// InsufficientScore builds the gating error result
func InsufficientScore(required, got int) *CompositeScore {
	return &CompositeScore{
		Error:      true,
		Message:    fmt.Sprintf("Insufficient data for technical analysis. Need at least %d days, got %d", required, got),
		Categories: map[string]*CategoryResult{},
	}
}

// Summary renders a plain-text breakdown
func (s *CompositeScore) Summary() string {
	if s.Error {
		return "ERROR: " + s.Message
	}

	rule := strings.Repeat("-", 60)
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("TECHNICAL SCORE SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total Score: %.1f / %g\n", s.TotalScore, s.MaxScore)
	if s.DataInfo != nil {
		fmt.Fprintf(&b, "Data Points: %d days\n", s.DataInfo.TotalDays)
	}
	b.WriteString("\nCategory Breakdown:\n")
	for _, name := range CategoryOrder {
		cat, ok := s.Categories[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %-20s : %5.1f / %g\n", titleCase(cat.Category), cat.EarnedPoints, cat.MaxPoints)
	}
	b.WriteString(rule)
	return b.String()
}

func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// TechnicalReport is the persisted form of a CompositeScore
type TechnicalReport struct {
	Metadata ReportMetadata  `json:"metadata"`
	Score    *CompositeScore `json:"score"`
}

// ReportMetadata identifies what produced a report file
type ReportMetadata struct {
	Symbol         string    `json:"symbol"`
	GeneratedAt    time.Time `json:"generated_at"`
	SourceDataFile string    `json:"source_data_file"`
	ScoringVersion string    `json:"scoring_version"`
	ConfigHash     string    `json:"config_hash,omitempty"`
}
