// Package report renders a finished cohort's outcome breakdown as a table
// or JSON document, independent of the console progress/summary rendering.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/milmed-sim/castrain/pkg/trajectory"
)

// TriageBreakdown aggregates outcome counts for a single triage category.
type TriageBreakdown struct {
	Category   string  `json:"triage_category"`
	Count      int     `json:"count"`
	KIA        int     `json:"kia"`
	RTD        int     `json:"rtd"`
	RemainsR4  int     `json:"remains_role4"`
	Polytrauma int     `json:"polytrauma"`
	MortRate   float64 `json:"mortality_rate"`
}

// Breakdown is the full per-triage outcome table for a cohort.
type Breakdown struct {
	TotalRecords int                `json:"total_records"`
	Rows         []TriageBreakdown `json:"rows"`
}

// Summarize walks records once and aggregates per-triage outcome counts, in
// ascending triage-category order (T1 before T2, etc) for stable rendering.
func Summarize(records []trajectory.Record) Breakdown {
	byCategory := map[string]*TriageBreakdown{}
	for _, r := range records {
		b, ok := byCategory[r.TriageCategory]
		if !ok {
			b = &TriageBreakdown{Category: r.TriageCategory}
			byCategory[r.TriageCategory] = b
		}
		b.Count++
		switch r.FinalStatus {
		case trajectory.StatusKIA:
			b.KIA++
		case trajectory.StatusRTD:
			b.RTD++
		case trajectory.StatusRemainsRole4:
			b.RemainsR4++
		}
		if r.Polytrauma {
			b.Polytrauma++
		}
	}

	rows := make([]TriageBreakdown, 0, len(byCategory))
	for _, b := range byCategory {
		if b.Count > 0 {
			b.MortRate = float64(b.KIA) / float64(b.Count)
		}
		rows = append(rows, *b)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })

	return Breakdown{TotalRecords: len(records), Rows: rows}
}

// WriteTable renders the breakdown as a bordered table to w.
func WriteTable(w io.Writer, b Breakdown) {
	table := tablewriter.NewWriter(w)
	table.Append([]string{"Triage", "Count", "KIA", "RTD", "Remains Role4", "Polytrauma", "Mortality Rate"})

	for _, row := range b.Rows {
		table.Append([]string{
			row.Category,
			fmt.Sprintf("%d", row.Count),
			fmt.Sprintf("%d", row.KIA),
			fmt.Sprintf("%d", row.RTD),
			fmt.Sprintf("%d", row.RemainsR4),
			fmt.Sprintf("%d", row.Polytrauma),
			fmt.Sprintf("%.1f%%", row.MortRate*100),
		})
	}

	table.Render()
}

// WriteJSON renders the breakdown as an indented JSON document to w.
func WriteJSON(w io.Writer, b Breakdown) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
