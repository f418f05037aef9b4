package merger

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/yuqing/billmerge/extractor/common"
)

// Monetary sums are compared with an absolute tolerance: the original
// aggregates were float-accumulated and 0.01 absorbs that noise.
var tolerance = decimal.New(1, -2)

// Report itemizes the lossless-merge checks: expectations computed
// independently from the pre-merge batches against the aggregates of the
// merged dataset. A reconciliation failure is reported, never raised.
type Report struct {
	ExpectedCount int
	ActualCount   int

	ExpectedAmountSum decimal.Decimal
	ActualAmountSum   decimal.Decimal

	ExpectedSignedSum decimal.Decimal
	ActualSignedSum   decimal.Decimal

	ExpectedBySource map[common.Provider]int
	ActualBySource   map[common.Provider]int

	Discrepancies []string
}

// Consistent reports whether every check passed.
func (r Report) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// Reconcile proves the merged dataset preserved the per-provider batches:
// exact record and provenance counts, amount and signed sums within
// tolerance. The expense sign is re-derived here from the source rows on
// purpose, instead of reading the merge engine's SignedAmount, so the two
// implementations cross-check each other.
func Reconcile(merged *Dataset, batches ...*common.Batch) Report {
	expense := viper.GetString("merge.expense_label")

	rep := Report{
		ExpectedAmountSum: decimal.Zero,
		ActualAmountSum:   decimal.Zero,
		ExpectedSignedSum: decimal.Zero,
		ActualSignedSum:   decimal.Zero,
		ExpectedBySource:  map[common.Provider]int{},
		ActualBySource:    map[common.Provider]int{},
	}

	for _, b := range batches {
		if b == nil {
			continue
		}
		rep.ExpectedCount += len(b.Transactions)
		for _, tx := range b.Transactions {
			rep.ExpectedAmountSum = rep.ExpectedAmountSum.Add(tx.Amount)
			if tx.Direction == expense {
				rep.ExpectedSignedSum = rep.ExpectedSignedSum.Sub(tx.Amount)
			} else {
				rep.ExpectedSignedSum = rep.ExpectedSignedSum.Add(tx.Amount)
			}
			rep.ExpectedBySource[tx.Source]++
		}
	}

	if merged != nil {
		for _, tx := range merged.Transactions {
			rep.ActualCount++
			rep.ActualAmountSum = rep.ActualAmountSum.Add(tx.Amount)
			rep.ActualSignedSum = rep.ActualSignedSum.Add(tx.SignedAmount)
			rep.ActualBySource[tx.Source]++
		}
	}

	if rep.ExpectedCount != rep.ActualCount {
		rep.Discrepancies = append(rep.Discrepancies,
			fmt.Sprintf("record count: expected %d, merged has %d", rep.ExpectedCount, rep.ActualCount))
	}
	if diff := rep.ExpectedAmountSum.Sub(rep.ActualAmountSum).Abs(); diff.GreaterThan(tolerance) {
		rep.Discrepancies = append(rep.Discrepancies,
			fmt.Sprintf("amount sum: expected %s, merged has %s", rep.ExpectedAmountSum, rep.ActualAmountSum))
	}
	if diff := rep.ExpectedSignedSum.Sub(rep.ActualSignedSum).Abs(); diff.GreaterThan(tolerance) {
		rep.Discrepancies = append(rep.Discrepancies,
			fmt.Sprintf("signed sum: expected %s, merged has %s", rep.ExpectedSignedSum, rep.ActualSignedSum))
	}
	for _, source := range []common.Provider{common.ProviderWeChat, common.ProviderAlipay} {
		if rep.ExpectedBySource[source] != rep.ActualBySource[source] {
			rep.Discrepancies = append(rep.Discrepancies,
				fmt.Sprintf("%s records: expected %d, merged has %d",
					source, rep.ExpectedBySource[source], rep.ActualBySource[source]))
		}
	}

	return rep
}
