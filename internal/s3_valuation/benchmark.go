package s3_valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wonny/equityscore/internal/contracts"
)

// ErrNoBenchmarkData is returned when the benchmark directory holds no dataset
var ErrNoBenchmarkData = errors.New("no benchmark data found")

const benchmarkGlob = "benchmark_data_*.json"

// Benchmark is the per-sector industry dataset.
// Read-only after load; safe for concurrent readers.
type Benchmark struct {
	Sectors  map[string]SectorBenchmark `json:"sectors"`
	Defaults BenchmarkDefaults          `json:"defaults"`
}

// BenchmarkDefaults are dataset-wide scoring defaults
type BenchmarkDefaults struct {
	Tier2Multipliers *contracts.Multipliers `json:"tier2_multipliers,omitempty"`
}

// SectorBenchmark holds one sector's industry metrics
type SectorBenchmark struct {
	Metrics SectorMetrics `json:"metrics"`
}

// SectorMetrics groups multiples, beta and the fundamental metric stats
type SectorMetrics struct {
	ValuationMultiples Multiples `json:"valuation_multiples"`
	Beta               BetaStats `json:"beta"`

	ROIC            *contracts.MetricBenchmark `json:"roic,omitempty"`
	ROE             *contracts.MetricBenchmark `json:"roe,omitempty"`
	OperatingMargin *contracts.MetricBenchmark `json:"operating_margin,omitempty"`
	GrossMargin     *contracts.MetricBenchmark `json:"gross_margin,omitempty"`
	NetMargin       *contracts.MetricBenchmark `json:"net_margin,omitempty"`
	DebtToEquity    *contracts.MetricBenchmark `json:"debt_to_equity,omitempty"`
}

// Fundamentals returns the metric stats present for the sector, by metric name
func (m SectorMetrics) Fundamentals() map[string]contracts.MetricBenchmark {
	out := map[string]contracts.MetricBenchmark{}
	for name, mb := range map[string]*contracts.MetricBenchmark{
		"roic":             m.ROIC,
		"roe":              m.ROE,
		"operating_margin": m.OperatingMargin,
		"gross_margin":     m.GrossMargin,
		"net_margin":       m.NetMargin,
		"debt_to_equity":   m.DebtToEquity,
	} {
		if mb != nil {
			out[name] = *mb
		}
	}
	return out
}

// Multiples are industry valuation multiples
type Multiples struct {
	PECurrent contracts.Field `json:"pe_current"`
	PEForward contracts.Field `json:"pe_forward"`
	PBRatio   contracts.Field `json:"pb_ratio"`
	PSRatio   contracts.Field `json:"ps_ratio"`
	EVEBITDA  contracts.Field `json:"ev_ebitda"`
}

// BetaStats is the beta distribution of a sector
type BetaStats struct {
	Mean contracts.Field `json:"mean"`
}

// Sector returns the benchmark of a normalized sector
func (b *Benchmark) Sector(name string) (SectorBenchmark, bool) {
	if b == nil {
		return SectorBenchmark{}, false
	}
	s, ok := b.Sectors[name]
	return s, ok
}

// SectorNames returns the sector keys, sorted
func (b *Benchmark) SectorNames() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.Sectors))
	for name := range b.Sectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadLatestBenchmark loads the most recently modified benchmark file in dir
func LoadLatestBenchmark(dir string) (*Benchmark, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, benchmarkGlob))
	if err != nil {
		return nil, "", fmt.Errorf("glob benchmark files: %w", err)
	}

	var latest string
	var latestMod int64
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		mod := info.ModTime().UnixNano()
		// ties resolve to the greater name so the choice is stable
		if latest == "" || mod > latestMod || (mod == latestMod && path > latest) {
			latest, latestMod = path, mod
		}
	}
	if latest == "" {
		return nil, "", fmt.Errorf("%w in %s", ErrNoBenchmarkData, dir)
	}

	bench, err := LoadBenchmark(latest)
	if err != nil {
		return nil, "", err
	}
	return bench, latest, nil
}

// LoadBenchmark decodes one benchmark file
func LoadBenchmark(path string) (*Benchmark, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read benchmark: %w", err)
	}
	var bench Benchmark
	if err := json.Unmarshal(raw, &bench); err != nil {
		return nil, fmt.Errorf("decode benchmark %s: %w", filepath.Base(path), err)
	}
	if bench.Sectors == nil {
		bench.Sectors = map[string]SectorBenchmark{}
	}
	return &bench, nil
}

func (b *Benchmark) defaults() BenchmarkDefaults {
	if b == nil {
		return BenchmarkDefaults{}
	}
	return b.Defaults
}
