// Package merger combines the per-provider canonical batches into one
// time-sorted dataset and verifies the merge lost nothing.
package merger

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/yuqing/billmerge/extractor/common"
)

// Dataset is the combined, time-sorted canonical batch with the derived
// fields populated.
type Dataset struct {
	Transactions []common.Transaction
}

// Merge concatenates the given batches in argument order (WeChat first by
// convention), sorts ascending by transaction time with unparsed times last,
// and fills the derived signed amount and month bucket. Returns nil when
// every batch is empty: nothing to merge is a state, not an error.
func Merge(batches ...*common.Batch) *Dataset {
	expense := viper.GetString("merge.expense_label")

	var rows []common.Transaction
	for _, b := range batches {
		if b != nil {
			rows = append(rows, b.Transactions...)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].Time, rows[j].Time
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.Before(*tj)
	})

	for i := range rows {
		if rows[i].Direction == expense {
			rows[i].SignedAmount = rows[i].Amount.Neg()
		} else {
			rows[i].SignedAmount = rows[i].Amount
		}
		rows[i].Month = monthBucket(rows[i])
	}

	return &Dataset{Transactions: rows}
}

// monthBucket derives the YYYY-MM partition key, scanning the raw time text
// when the parsed time is absent. "" means the row belongs to no month and
// is excluded from by-month output while remaining in totals.
func monthBucket(tx common.Transaction) string {
	if tx.Time != nil {
		return common.MonthKey(*tx.Time)
	}
	return common.MonthFromRaw(tx.RawTime)
}

// Months returns the distinct non-empty month buckets in ascending order.
func (d *Dataset) Months() []string {
	seen := map[string]bool{}
	var months []string
	for _, tx := range d.Transactions {
		if tx.Month != "" && !seen[tx.Month] {
			seen[tx.Month] = true
			months = append(months, tx.Month)
		}
	}
	sort.Strings(months)
	return months
}

// ByMonth returns the rows belonging to the given month bucket, preserving
// the dataset's sort order.
func (d *Dataset) ByMonth(month string) []common.Transaction {
	var rows []common.Transaction
	for _, tx := range d.Transactions {
		if tx.Month == month {
			rows = append(rows, tx)
		}
	}
	return rows
}

// AmountSum totals the unsigned amounts across the dataset.
func (d *Dataset) AmountSum() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range d.Transactions {
		total = total.Add(tx.Amount)
	}
	return total
}

// SignedSum totals the derived signed amounts across the dataset.
func (d *Dataset) SignedSum() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range d.Transactions {
		total = total.Add(tx.SignedAmount)
	}
	return total
}
