package s1_fundamentals

import (
	"fmt"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/numeric"
)

// BenchmarkSource resolves a raw sector to its fundamental metric stats
type BenchmarkSource interface {
	MetricBenchmarks(sector string) (contracts.SectorMetricBenchmarks, bool)
}

// Report order of each category's metrics
var (
	profitabilityMetrics = []string{MetricROIC, MetricROE, MetricOperatingMargin, MetricGrossMargin, MetricNetMargin}
	growthMetrics        = []string{MetricFCFCAGR, MetricNetIncomeCAGR, MetricRevenueCAGR, MetricEarningsQuality, MetricFCFToDebt}
	capitalMetrics       = []string{MetricShareDilution, MetricCapexIntensity, MetricSBCImpact}
)

// Scorer rates a company's fundamentals on a 0-100 scale against its
// sector benchmark
// ⭐ SSOT: 재무 종합 점수 조립은 여기서만
type Scorer struct {
	cfg     Config
	metrics *MetricsCalculator
	metric  *MetricScorer
	bench   BenchmarkSource
	logger  *logger.Logger
}

// NewScorer creates a fundamental scorer
func NewScorer(cfg Config, bench BenchmarkSource, log *logger.Logger) *Scorer {
	return &Scorer{
		cfg:     cfg,
		metrics: NewMetricsCalculator(cfg, log),
		metric:  NewMetricScorer(cfg.Thresholds, log),
		bench:   bench,
		logger:  log,
	}
}

// Config returns the weights and thresholds in use
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score derives every metric and scores the three categories. A panic
// inside a calculation yields an error score instead of propagating.
func (s *Scorer) Score(data *contracts.StockData) (res *contracts.FinancialScore) {
	if data == nil {
		return contracts.FailedFinancialScore("", "", "No stock data")
	}
	sector, ok := data.Sector()
	if !ok {
		return contracts.FailedFinancialScore(data.Symbol, "", "No sector in profile")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"symbol": data.Symbol,
		"sector": sector,
	})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("Fundamental scoring failed")
			res = contracts.FailedFinancialScore(data.Symbol, sector, "Fundamental scoring failed: %v", r)
		}
	}()

	if s.bench == nil {
		return contracts.FailedFinancialScore(data.Symbol, sector, "Unknown sector: %s", sector)
	}
	set, ok := s.bench.MetricBenchmarks(sector)
	if !ok {
		log.Warn("Sector not in benchmark")
		return contracts.FailedFinancialScore(data.Symbol, sector, "Unknown sector: %s", sector)
	}
	log.Info("Scoring company fundamentals")

	tier2 := s.cfg.Tier2
	if set.Tier2 != nil {
		tier2 = *set.Tier2
	}
	weights := s.cfg.WeightsFor(set.Sector)
	metrics := s.metrics.Calculate(data)

	res = &contracts.FinancialScore{
		Symbol:           data.Symbol,
		Sector:           sector,
		NormalizedSector: set.Sector,
		Categories:       make(map[string]*contracts.FundamentalCategory, 3),
		Metrics:          metrics,
		Warnings:         []string{},
	}

	sc := &categoryScorer{metric: s.metric, bench: set.Metrics, tier2: tier2}
	res.Categories[contracts.CategoryProfitability] = sc.profitability(metrics.Profitability, weights.Profitability)
	res.Categories[contracts.CategoryGrowth] = sc.growth(metrics.Growth, weights.Growth)
	res.Categories[contracts.CategoryCapitalAllocation] = sc.capital(metrics.CapitalAllocation, weights.CapitalAllocation)

	var total float64
	for _, name := range contracts.FundamentalCategoryOrder {
		cat := res.Categories[name]
		total += cat.Score
		res.MaxScore += cat.Max
		res.Warnings = append(res.Warnings, cat.Warnings...)

		log.WithFields(map[string]interface{}{
			"category": name,
			"score":    cat.Score,
			"max":      cat.Max,
		}).Debug("Category scored")
	}
	res.TotalScore = numeric.Round(total, 1)

	log.WithFields(map[string]interface{}{
		"total_score": res.TotalScore,
		"warnings":    len(metrics.Warnings),
	}).Info("Fundamental score completed")

	return res
}

// categoryScorer scores categories for one company against one sector
type categoryScorer struct {
	metric *MetricScorer
	bench  map[string]contracts.MetricBenchmark
	tier2  contracts.Multipliers
}

func newCategory(max float64) *contracts.FundamentalCategory {
	return &contracts.FundamentalCategory{
		Max:      max,
		Metrics:  map[string]contracts.MetricScore{},
		Warnings: []string{},
	}
}

func (c *categoryScorer) finish(cat *contracts.FundamentalCategory, score float64) *contracts.FundamentalCategory {
	cat.Score = numeric.Round(score, 2)
	if cat.Max > 0 {
		cat.Percentage = numeric.Round(score/cat.Max*100, 1)
	}
	return cat
}

// weigh fills the weighted contribution of a scored metric
func weigh(ms contracts.MetricScore, weight float64) (contracts.MetricScore, float64) {
	ms.Weight = weight
	if ms.RawScore == nil {
		return ms, 0
	}
	contribution := *ms.RawScore / 100 * weight
	ms.WeightedScore = numeric.Round(contribution, 2)
	return ms, contribution
}

func disabled(value *float64) contracts.MetricScore {
	return contracts.MetricScore{Value: value, Disabled: true, Interpretation: "Not used for this sector"}
}

// profitability scores against sector benchmarks; metrics the benchmark
// lacks are excluded and the remaining weight is scaled up to the total
func (c *categoryScorer) profitability(m contracts.ProfitabilityMetrics, w CategoryWeights) *contracts.FundamentalCategory {
	cat := newCategory(w.MaxScore)
	values := map[string]*float64{
		MetricROIC:            m.ROIC,
		MetricROE:             m.ROE,
		MetricOperatingMargin: m.OperatingMargin,
		MetricGrossMargin:     m.GrossMargin,
		MetricNetMargin:       m.NetMargin,
	}

	var score, active, possible float64
	for _, name := range profitabilityMetrics {
		possible += w.Metrics[name]
	}
	for _, name := range profitabilityMetrics {
		weight := w.Metrics[name]
		value := values[name]
		if weight == 0 {
			cat.Metrics[name] = disabled(value)
			continue
		}
		mb, ok := c.bench[name]
		if !ok {
			cat.Warnings = append(cat.Warnings, fmt.Sprintf("%s: not available in benchmarks (weight %g excluded)", name, weight))
			continue
		}
		ms, err := c.metric.Score(name, value, mb, c.tier2)
		if err != nil {
			cat.Warnings = append(cat.Warnings, fmt.Sprintf("%s: %v (weight %g excluded)", name, err, weight))
			continue
		}
		active += weight
		if ms.RawScore == nil {
			continue
		}
		ms, contribution := weigh(ms, weight)
		score += contribution
		cat.Metrics[name] = ms
	}

	if active > 0 && active < possible {
		scale := possible / active
		score *= scale
		cat.Warnings = append(cat.Warnings, fmt.Sprintf("Score normalized by %.2fx (missing benchmarks)", scale))
	}
	return c.finish(cat, score)
}

// growth uses absolute thresholds only; missing values earn nothing
func (c *categoryScorer) growth(m contracts.GrowthMetrics, w CategoryWeights) *contracts.FundamentalCategory {
	values := map[string]*float64{
		MetricFCFCAGR:         m.FCFCAGR5Y,
		MetricNetIncomeCAGR:   m.NetIncomeCAGR5Y,
		MetricRevenueCAGR:     m.RevenueCAGR5Y,
		MetricEarningsQuality: m.EarningsQuality3Y,
		MetricFCFToDebt:       m.FCFToDebtRatio,
	}
	return c.finish(c.absoluteCategory(growthMetrics, values, w))
}

// capital scores dilution, capex and SBC on absolute scales; D/E only when
// the sector benchmark carries it
func (c *categoryScorer) capital(m contracts.CapitalAllocationMetrics, w CategoryWeights) *contracts.FundamentalCategory {
	values := map[string]*float64{
		MetricShareDilution:  m.ShareDilutionCAGR5Y,
		MetricCapexIntensity: m.CapexIntensity3Y,
		MetricSBCImpact:      m.SBCImpact3Y,
	}
	cat, score := c.absoluteCategory(capitalMetrics, values, w)

	mb, ok := c.bench[MetricDebtToEquity]
	if !ok || m.DebtToEquity == nil {
		return c.finish(cat, score)
	}
	ms, err := c.metric.Score(MetricDebtToEquity, m.DebtToEquity, mb, c.tier2)
	if err != nil {
		cat.Warnings = append(cat.Warnings, fmt.Sprintf("%s: %v", MetricDebtToEquity, err))
		return c.finish(cat, score)
	}
	ms, contribution := weigh(ms, w.Metrics[MetricDebtToEquity])
	cat.Metrics[MetricDebtToEquity] = ms
	return c.finish(cat, score+contribution)
}

func (c *categoryScorer) absoluteCategory(names []string, values map[string]*float64, w CategoryWeights) (*contracts.FundamentalCategory, float64) {
	cat := newCategory(w.MaxScore)
	absolute := contracts.MetricBenchmark{ScoringMode: contracts.TierAbsolute}

	var score float64
	for _, name := range names {
		value := values[name]
		if value == nil {
			continue
		}
		weight := w.Metrics[name]
		if weight == 0 {
			cat.Metrics[name] = disabled(value)
			continue
		}
		ms, _ := c.metric.Score(name, value, absolute, c.tier2)
		ms, contribution := weigh(ms, weight)
		score += contribution
		cat.Metrics[name] = ms
	}
	return cat, score
}
