// Package stats records per-exchange metrics (time to first delta, total
// latency, delta counts, failures) and persists them to ~/.fitbuddy/stats.json.
package stats

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arin/fitbuddy/internal/chat"
	"github.com/arin/fitbuddy/internal/config"
)

const (
	fileName   = "stats.json"
	maxRecords = 1000
)

// Record is a single exchange.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Subcommand   string    `json:"subcommand"` // "chat", "ask", "diet"
	FirstDeltaMs int64     `json:"first_delta_ms,omitempty"`
	TotalMs      int64     `json:"total_ms"`
	Deltas       int       `json:"deltas"`
	Bytes        int       `json:"bytes,omitempty"`
	Success      bool      `json:"success"`
	RolledBack   bool      `json:"rolled_back,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Summary is the aggregated stats dashboard.
type Summary struct {
	TotalExchanges  int            `json:"total_exchanges"`
	SuccessRate     float64        `json:"success_rate"`
	RolledBack      int            `json:"rolled_back"`
	AvgFirstDeltaMs int64          `json:"avg_first_delta_ms"`
	AvgTotalMs      int64          `json:"avg_total_ms"`
	AvgDeltas       float64        `json:"avg_deltas"`
	SubcmdBreakdown map[string]int `json:"subcmd_breakdown"`
	TopErrors       []ErrorCount   `json:"top_errors"`
	TodayCount      int            `json:"today_count"`
	ThisWeekCount   int            `json:"this_week_count"`
}

// ErrorCount pairs a failure message with how often it occurred.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

var fileMu sync.Mutex

func statsPath() string {
	return filepath.Join(config.Dir(), fileName)
}

// FromExchange builds a record from the outcome of chat.Session.Submit.
// elapsed is measured by the caller since a failed Submit returns no Result.
func FromExchange(subcommand string, res *chat.Result, err error, elapsed time.Duration) Record {
	r := Record{
		Subcommand: subcommand,
		TotalMs:    elapsed.Milliseconds(),
		Success:    err == nil,
	}
	if res != nil {
		r.FirstDeltaMs = res.FirstDelta.Milliseconds()
		r.TotalMs = res.Duration.Milliseconds()
		r.Deltas = res.Deltas
		r.Bytes = res.Bytes
	}
	if err != nil {
		r.Error = err.Error()
		// Rejected submissions never touched the transcript.
		r.RolledBack = !errors.Is(err, chat.ErrEmptyPrompt) && !errors.Is(err, chat.ErrExchangeInFlight)
	}
	return r
}

// Save appends a new record to the stats file.
func Save(r Record) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	records, _ := loadAll()
	records = append(records, r)

	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	if err := os.MkdirAll(config.Dir(), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(statsPath(), data, 0o600)
}

// LoadAll returns all stored records.
func LoadAll() ([]Record, error) {
	fileMu.Lock()
	defer fileMu.Unlock()
	return loadAll()
}

func loadAll() ([]Record, error) {
	data, err := os.ReadFile(statsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Summarize computes aggregated stats from all records.
func Summarize() (*Summary, error) {
	records, err := LoadAll()
	if err != nil {
		return nil, err
	}
	return summarize(records, time.Now()), nil
}

func summarize(records []Record, now time.Time) *Summary {
	s := &Summary{
		TotalExchanges:  len(records),
		SubcmdBreakdown: map[string]int{},
	}
	if len(records) == 0 {
		return s
	}

	var successCount, firstCount int
	var totalFirst, totalMs int64
	var totalDeltas int
	errFreq := map[string]int{}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)

	for _, r := range records {
		if r.Success {
			successCount++
		}
		if r.RolledBack {
			s.RolledBack++
		}
		if r.FirstDeltaMs > 0 {
			totalFirst += r.FirstDeltaMs
			firstCount++
		}
		totalMs += r.TotalMs
		totalDeltas += r.Deltas
		if r.Subcommand != "" {
			s.SubcmdBreakdown[r.Subcommand]++
		}
		if r.Error != "" {
			errFreq[r.Error]++
		}
		if !r.Timestamp.Before(today) {
			s.TodayCount++
		}
		if r.Timestamp.After(weekAgo) {
			s.ThisWeekCount++
		}
	}

	n := len(records)
	s.SuccessRate = float64(successCount) / float64(n) * 100
	s.AvgTotalMs = totalMs / int64(n)
	s.AvgDeltas = float64(totalDeltas) / float64(n)
	if firstCount > 0 {
		s.AvgFirstDeltaMs = totalFirst / int64(firstCount)
	}
	s.TopErrors = topN(errFreq, 3)
	return s
}

func topN(freq map[string]int, n int) []ErrorCount {
	all := make([]ErrorCount, 0, len(freq))
	for msg, count := range freq {
		all = append(all, ErrorCount{Message: msg, Count: count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Message < all[j].Message
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
