package s0_data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a symbol
var ErrSnapshotNotFound = errors.New("snapshot not found")

const (
	snapshotPrefix = "initial_data_"
	jsonExt        = ".json"
)

// SnapshotStore reads and writes StockData snapshots in a directory.
// Files are named initial_data_<SYMBOL>_<date>.json.
// ⭐ SSOT: 입력 스냅샷 파일 규칙은 여기서만
type SnapshotStore struct {
	dir    string
	logger *logger.Logger
}

// NewSnapshotStore creates a store rooted at dir
func NewSnapshotStore(dir string, log *logger.Logger) *SnapshotStore {
	return &SnapshotStore{dir: dir, logger: log}
}

// Dir returns the root directory
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// parseSnapshotName splits initial_data_<SYMBOL>_<date>.json
func parseSnapshotName(name string) (symbol, date string, ok bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, jsonExt) {
		return "", "", false
	}
	stem := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), jsonExt)
	idx := strings.LastIndex(stem, "_")
	if idx <= 0 || idx == len(stem)-1 {
		return "", "", false
	}
	return stem[:idx], stem[idx+1:], true
}

// SnapshotName returns the file name for a symbol and date
func SnapshotName(symbol string, date time.Time) string {
	return fmt.Sprintf("%s%s_%s%s", snapshotPrefix, strings.ToUpper(symbol), date.Format("2006-01-02"), jsonExt)
}

func (s *SnapshotStore) files(symbol string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		sym, _, ok := parseSnapshotName(e.Name())
		if !ok {
			continue
		}
		if symbol == "" || sym == symbol {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// LoadLatest loads the lexicographically greatest snapshot of symbol
func (s *SnapshotStore) LoadLatest(symbol string) (*contracts.StockData, string, error) {
	symbol = strings.ToUpper(symbol)
	names, err := s.files(symbol)
	if err != nil {
		return nil, "", err
	}
	if len(names) == 0 {
		return nil, "", fmt.Errorf("%s: %w", symbol, ErrSnapshotNotFound)
	}
	sort.Strings(names)
	name := names[len(names)-1]

	data, err := s.load(filepath.Join(s.dir, name))
	if err != nil {
		return nil, "", err
	}
	if data.Symbol == "" {
		data.Symbol = symbol
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"file":   name,
		"prices": len(data.PriceHistory),
	}).Debug("Loaded snapshot")

	return data, name, nil
}

func (s *SnapshotStore) load(path string) (*contracts.StockData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var data contracts.StockData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &data, nil
}

// ListSymbols returns the distinct symbols present, sorted
func (s *SnapshotStore) ListSymbols() ([]string, error) {
	names, err := s.files("")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	symbols := []string{}
	for _, name := range names {
		sym, _, _ := parseSnapshotName(name)
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Save writes a snapshot for the given date and returns its path
func (s *SnapshotStore) Save(data *contracts.StockData, date time.Time) (string, error) {
	if data.Symbol == "" {
		return "", errors.New("snapshot has no symbol")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(s.dir, SnapshotName(data.Symbol, date))
	if err := writeJSON(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
