package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// PricePoint is one normalized daily bar
// ⭐ SSOT: 지표 계산기에 들어가는 OHLCV 형식은 여기서만 정의
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceRecord is a raw bar as delivered by data acquisition.
// Every field may be absent.
type PriceRecord struct {
	Date          *Timestamp `json:"std_date"`
	Open          Field      `json:"std_open"`
	High          Field      `json:"std_high"`
	Low           Field      `json:"std_low"`
	Close         Field      `json:"std_close"`
	AdjustedClose Field      `json:"std_adjusted_close"`
	Volume        Field      `json:"std_volume"`
}

// Timestamp decodes the date formats emitted by upstream providers and
// drops zone information after converting to UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with the supported layouts
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: naive(t)}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported date format: %q", s)
}

// naive converts to UTC and keeps the wall clock without a zone
func naive(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

// MarshalJSON writes an ISO-8601 timestamp without zone
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}

// UnmarshalJSON parses a date string
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NormalizePrices builds the working series: records without a date or a
// positive close are dropped, duplicates by calendar date keep the last record,
// and the result is sorted ascending. Missing open/high/low fall back to
// close and missing volume to zero. The input slice is not modified.
func NormalizePrices(records []PriceRecord) []PricePoint {
	byDay := make(map[string]PricePoint, len(records))

	for _, r := range records {
		if r.Date == nil || r.Date.IsZero() {
			continue
		}
		closePrice, ok := r.Close.Get()
		// 0 이하 종가는 수익률/ATR% 계산에서 0으로 나누게 됨
		if !ok || closePrice <= 0 {
			continue
		}

		p := PricePoint{
			Date:   r.Date.Time,
			Open:   r.Open.Or(closePrice),
			High:   r.High.Or(closePrice),
			Low:    r.Low.Or(closePrice),
			Close:  closePrice,
			Volume: r.Volume.Or(0),
		}
		byDay[p.Date.Format("2006-01-02")] = p
	}

	points := make([]PricePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points
}

// LatestClose returns the close of the chronologically last valid record
func LatestClose(records []PriceRecord) (float64, bool) {
	points := NormalizePrices(records)
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Close, true
}
