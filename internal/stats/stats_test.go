package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arin/fitbuddy/internal/chat"
)

func setupTestDir(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestSaveAndLoadAll(t *testing.T) {
	setupTestDir(t)

	err := Save(Record{Subcommand: "ask", FirstDeltaMs: 120, TotalMs: 900, Deltas: 14, Success: true})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	records, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Deltas != 14 || records[0].Subcommand != "ask" {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if records[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLoadAll_NoFile(t *testing.T) {
	setupTestDir(t)

	records, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll on missing file should not error: %v", err)
	}
	if records != nil {
		t.Errorf("expected nil records, got %v", records)
	}
}

func TestSave_CapsRecords(t *testing.T) {
	setupTestDir(t)

	for i := 0; i < maxRecords+10; i++ {
		Save(Record{Subcommand: "chat", Success: true})
	}

	records, _ := LoadAll()
	if len(records) != maxRecords {
		t.Errorf("expected %d records, got %d", maxRecords, len(records))
	}
}

func TestSummarize_Empty(t *testing.T) {
	setupTestDir(t)

	s, err := Summarize()
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.TotalExchanges != 0 {
		t.Errorf("expected 0 exchanges, got %d", s.TotalExchanges)
	}
}

func TestSummarize_WithData(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	records := []Record{
		{Timestamp: now.Add(-time.Hour), Subcommand: "chat", FirstDeltaMs: 100, TotalMs: 1000, Deltas: 10, Success: true},
		{Timestamp: now.Add(-2 * time.Hour), Subcommand: "chat", FirstDeltaMs: 300, TotalMs: 2000, Deltas: 20, Success: true},
		{Timestamp: now.AddDate(0, 0, -3), Subcommand: "ask", TotalMs: 300, Success: false, RolledBack: true, Error: "Rate limit exceeded"},
		{Timestamp: now.AddDate(0, 0, -30), Subcommand: "diet", TotalMs: 500, Success: false, RolledBack: true, Error: "Rate limit exceeded"},
	}

	s := summarize(records, now)
	if s.TotalExchanges != 4 {
		t.Errorf("expected 4 exchanges, got %d", s.TotalExchanges)
	}
	if s.SuccessRate != 50 {
		t.Errorf("expected 50%% success rate, got %.0f%%", s.SuccessRate)
	}
	if s.RolledBack != 2 {
		t.Errorf("expected 2 rollbacks, got %d", s.RolledBack)
	}
	if s.AvgFirstDeltaMs != 200 {
		t.Errorf("expected avg first delta 200ms (failures excluded), got %d", s.AvgFirstDeltaMs)
	}
	if s.AvgTotalMs != 950 {
		t.Errorf("expected avg total 950ms, got %d", s.AvgTotalMs)
	}
	if s.SubcmdBreakdown["chat"] != 2 || s.SubcmdBreakdown["ask"] != 1 {
		t.Errorf("unexpected breakdown: %v", s.SubcmdBreakdown)
	}
	if len(s.TopErrors) != 1 || s.TopErrors[0].Count != 2 {
		t.Errorf("unexpected top errors: %+v", s.TopErrors)
	}
	if s.TodayCount != 2 {
		t.Errorf("expected 2 today, got %d", s.TodayCount)
	}
	if s.ThisWeekCount != 3 {
		t.Errorf("expected 3 this week, got %d", s.ThisWeekCount)
	}
}

func TestFromExchange_Success(t *testing.T) {
	res := &chat.Result{Deltas: 3, Bytes: 120, FirstDelta: 250 * time.Millisecond, Duration: 2 * time.Second}
	r := FromExchange("ask", res, nil, 3*time.Second)

	if !r.Success || r.RolledBack {
		t.Errorf("expected clean success, got %+v", r)
	}
	if r.FirstDeltaMs != 250 || r.TotalMs != 2000 {
		t.Errorf("expected latencies from result, got %+v", r)
	}
}

func TestFromExchange_Failure(t *testing.T) {
	r := FromExchange("chat", nil, context.Canceled, 40*time.Millisecond)
	if r.Success || !r.RolledBack {
		t.Errorf("expected rolled back failure, got %+v", r)
	}
	if r.TotalMs != 40 {
		t.Errorf("expected caller elapsed time, got %d", r.TotalMs)
	}
}

func TestFromExchange_RejectedIsNotRollback(t *testing.T) {
	for _, err := range []error{chat.ErrEmptyPrompt, chat.ErrExchangeInFlight} {
		r := FromExchange("chat", nil, err, 0)
		if r.RolledBack {
			t.Errorf("%v should not count as a rollback", err)
		}
	}
	wrapped := FromExchange("chat", nil, errors.Join(errors.New("x"), chat.ErrEmptyPrompt), 0)
	if wrapped.RolledBack {
		t.Error("wrapped rejection should not count as a rollback")
	}
}

func TestTopN_Ordering(t *testing.T) {
	result := topN(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	if len(result) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result))
	}
	if result[0].Message != "c" || result[1].Message != "a" || result[2].Message != "b" {
		t.Errorf("unexpected order: %+v", result)
	}
}
