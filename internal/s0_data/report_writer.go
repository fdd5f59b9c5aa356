package s0_data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// ScoringVersion is stamped into every report file
const ScoringVersion = "1.0"

// ReportWriter persists reports as JSON files in a directory
// ⭐ SSOT: 결과 리포트 파일 규칙은 여기서만
type ReportWriter struct {
	dir        string
	configHash string
	now        func() time.Time
	logger     *logger.Logger
}

// NewReportWriter creates a writer rooted at dir.
// configHash is recorded in metadata when not empty.
func NewReportWriter(dir, configHash string, log *logger.Logger) *ReportWriter {
	return &ReportWriter{
		dir:        dir,
		configHash: configHash,
		now:        time.Now,
		logger:     log,
	}
}

// WithClock replaces the clock used for timestamps
func (w *ReportWriter) WithClock(now func() time.Time) *ReportWriter {
	w.now = now
	return w
}

// reportDate takes the date suffix of the source snapshot name, else today
func (w *ReportWriter) reportDate(sourceFile string) string {
	if sourceFile != "" {
		stem := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
		if idx := strings.LastIndex(stem, "_"); idx >= 0 && idx < len(stem)-1 {
			return stem[idx+1:]
		}
	}
	return w.now().Format("2006-01-02")
}

func (w *ReportWriter) metadata(symbol, sourceFile string) contracts.ReportMetadata {
	if sourceFile != "" {
		sourceFile = filepath.Base(sourceFile)
	}
	return contracts.ReportMetadata{
		Symbol:         symbol,
		GeneratedAt:    w.now(),
		SourceDataFile: sourceFile,
		ScoringVersion: ScoringVersion,
		ConfigHash:     w.configHash,
	}
}

// SaveTechnical writes technical_score_<SYMBOL>_<date>.json
func (w *ReportWriter) SaveTechnical(symbol, sourceFile string, score *contracts.CompositeScore) (string, error) {
	symbol = strings.ToUpper(symbol)
	name := fmt.Sprintf("technical_score_%s_%s.json", symbol, w.reportDate(sourceFile))
	report := contracts.TechnicalReport{
		Metadata: w.metadata(symbol, sourceFile),
		Score:    score,
	}
	return w.write(name, report)
}

// SaveValuation writes valuation_<SYMBOL>_<date>.json.
// The date is the report's valuation date when set.
func (w *ReportWriter) SaveValuation(symbol, sourceFile string, report *contracts.ValuationReport) (string, error) {
	symbol = strings.ToUpper(symbol)
	date := report.ValuationDate
	if date == "" {
		date = w.now().Format("2006-01-02")
	}
	name := fmt.Sprintf("valuation_%s_%s.json", symbol, date)
	file := contracts.ValuationFile{
		Metadata:  w.metadata(symbol, sourceFile),
		Valuation: report,
	}
	return w.write(name, file)
}

// SaveFundamentals writes financial_score_<SYMBOL>_<date>.json
func (w *ReportWriter) SaveFundamentals(symbol, sourceFile string, score *contracts.FinancialScore) (string, error) {
	symbol = strings.ToUpper(symbol)
	name := fmt.Sprintf("financial_score_%s_%s.json", symbol, w.reportDate(sourceFile))
	return w.write(name, contracts.FundamentalsReport{
		Metadata: w.metadata(symbol, sourceFile),
		Score:    score,
	})
}

func (w *ReportWriter) write(name string, v interface{}) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := writeJSON(path, v); err != nil {
		return "", err
	}

	w.logger.WithFields(map[string]interface{}{
		"path": path,
	}).Info("Saved report")

	return path, nil
}
