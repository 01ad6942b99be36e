// Package eod condenses a trading day's suggestion journal into a CSV
// report: one row per suggestion with its final state and pnl, plus a
// totals row with the day's hit rate.
package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"options-advisor/internal/journal"
	"options-advisor/internal/types"
)

type eodSummarizer struct{}

// aggRow collects the journal entries of one suggestion across the day.
type aggRow struct {
	SuggestionID string
	Events       int
	FinalStatus  string
	LastPrice    float64
	PnlPercent   float64
}

func (e *eodSummarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := journal.DailyFilepath(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry journal.Entry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			continue
		}
		row := aggs[entry.SuggestionID]
		if row == nil {
			row = &aggRow{SuggestionID: entry.SuggestionID}
			aggs[entry.SuggestionID] = row
		}
		row.Events++
		// Entries are appended in order, so the last one wins.
		row.FinalStatus = entry.Status
		row.LastPrice = entry.Price
		row.PnlPercent = entry.PnlPercent
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	headers := []string{"suggestion_id", "events", "final_status", "last_price", "pnl_percent"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var wins, losses int
	var totalPnl float64
	for _, k := range keys {
		r := aggs[k]
		switch types.Status(r.FinalStatus) {
		case types.StatusT1Hit, types.StatusT2Hit, types.StatusT3Hit:
			wins++
		case types.StatusSLHit:
			losses++
		}
		totalPnl += r.PnlPercent
		rec := []string{
			r.SuggestionID,
			strconv.Itoa(r.Events),
			r.FinalStatus,
			fmt.Sprintf("%.2f", r.LastPrice),
			fmt.Sprintf("%.2f", r.PnlPercent),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	summary := fmt.Sprintf("wins=%d losses=%d", wins, losses)
	_ = w.Write([]string{"TOTAL", strconv.Itoa(len(keys)), summary, "", fmt.Sprintf("%.2f", totalPnl/float64(len(keys)))})
	return outPath, nil
}

func (e *eodSummarizer) SummarizeToday() (string, error) {
	return e.SummarizeDay(istNow())
}

func (e *eodSummarizer) ShouldRunNow() (bool, string) {
	now := istNow()
	outPath := eodCSVPath(now)
	if now.After(marketCloseTime(now)) {
		if _, err := os.Stat(outPath); os.IsNotExist(err) {
			return true, outPath
		}
	}
	return false, outPath
}
