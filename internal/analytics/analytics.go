// Package analytics derives sales figures from the saved invoice history.
//
// Every function here reads a snapshot and never modifies it. UpdatePayment
// returns a new collection for the caller to persist.
package analytics

import (
	"sort"
	"time"

	"invoicer/internal/core"
)

// MonthTotals holds the invoiced and paid sums of one calendar month.
type MonthTotals struct {
	Invoiced float64
	Paid     float64
}

// YearTotal is the invoiced sum of one calendar year.
type YearTotal struct {
	Year  int
	Total float64
}

// Report bundles everything shown for a selected period.
type Report struct {
	Year     int
	Month    time.Month
	Years    []int
	Monthly  [12]MonthTotals
	Scale    float64
	Yearly   []YearTotal
	Invoices core.Collection
}

// MonthlySeries sums totals and payments per month of year. Index 0 is
// January; months without invoices stay zero.
func MonthlySeries(c core.Collection, year int) [12]MonthTotals {
	var series [12]MonthTotals
	for _, inv := range c {
		y, m, ok := inv.Period()
		if !ok || y != year {
			continue
		}
		series[m-1].Invoiced += inv.TotalAmount
		series[m-1].Paid += inv.AmountPaid
	}
	return series
}

// ChartScale is the largest monthly invoiced value, never below 1, so bar
// heights can be computed as a fraction of it.
func ChartScale(series [12]MonthTotals) float64 {
	scale := 1.0
	for _, m := range series {
		if m.Invoiced > scale {
			scale = m.Invoiced
		}
	}
	return scale
}

// YearlyTotals sums invoice totals per calendar year, most recent year first.
func YearlyTotals(c core.Collection) []YearTotal {
	sums := make(map[int]float64)
	for _, inv := range c {
		y, _, ok := inv.Period()
		if !ok {
			continue
		}
		sums[y] += inv.TotalAmount
	}
	out := make([]YearTotal, 0, len(sums))
	for y, total := range sums {
		out = append(out, YearTotal{Year: y, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

// AvailableYears lists the distinct invoice years plus currentYear, descending.
func AvailableYears(c core.Collection, currentYear int) []int {
	seen := map[int]struct{}{currentYear: {}}
	for _, inv := range c {
		if y, _, ok := inv.Period(); ok {
			seen[y] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// FilterByPeriod returns the invoices dated in year and month, oldest first.
// Invoices sharing a date keep their history order.
func FilterByPeriod(c core.Collection, year int, month time.Month) core.Collection {
	type dated struct {
		inv core.SavedInvoice
		at  time.Time
	}
	var matches []dated
	for _, inv := range c {
		at, err := inv.Date()
		if err != nil {
			continue
		}
		if at.Year() == year && at.Month() == month {
			matches = append(matches, dated{inv: inv, at: at})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].at.Before(matches[j].at) })

	out := make(core.Collection, len(matches))
	for i, m := range matches {
		out[i] = m.inv
	}
	return out
}

// FindInvoice returns the first invoice with the given number.
func FindInvoice(c core.Collection, number string) (core.SavedInvoice, bool) {
	for _, inv := range c {
		if inv.InvoiceNumber == number {
			return inv, true
		}
	}
	return core.SavedInvoice{}, false
}

// UpdatePayment records a payment typed by the user. raw is parsed
// permissively: unparsable or negative input counts as 0.
func UpdatePayment(c core.Collection, number, raw string) core.Collection {
	return UpdatePaymentAmount(c, number, core.ParseAmount(raw))
}

// UpdatePaymentAmount returns a copy of c in which the first invoice numbered
// number has its paid amount set to max(0, amount) and its status recomputed.
// Other records and their order are unchanged. When no invoice matches, the
// copy equals c; use FindInvoice to tell the cases apart.
func UpdatePaymentAmount(c core.Collection, number string, amount float64) core.Collection {
	out := c.Clone()
	for i := range out {
		if out[i].InvoiceNumber == number {
			out[i] = out[i].WithPayment(core.NonNegative(amount))
			break
		}
	}
	return out
}

// Summarize computes the full report for a selected period.
func Summarize(c core.Collection, year int, month time.Month, currentYear int) Report {
	monthly := MonthlySeries(c, year)
	return Report{
		Year:     year,
		Month:    month,
		Years:    AvailableYears(c, currentYear),
		Monthly:  monthly,
		Scale:    ChartScale(monthly),
		Yearly:   YearlyTotals(c),
		Invoices: FilterByPeriod(c, year, month),
	}
}
