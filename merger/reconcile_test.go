package merger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuqing/billmerge/extractor/common"
)

func specimenBatches() (*common.Batch, *common.Batch) {
	wechat := &common.Batch{Source: common.ProviderWeChat, Transactions: []common.Transaction{
		tx(common.ProviderWeChat, at("2024-03-01 08:00:00"), "支出", 100),
	}}
	alipay := &common.Batch{Source: common.ProviderAlipay, Transactions: []common.Transaction{
		tx(common.ProviderAlipay, at("2024-03-02 08:00:00"), "收入", 50),
	}}
	return wechat, alipay
}

func TestReconcile_ConsistentMerge(t *testing.T) {
	setupTestConfig()

	wechat, alipay := specimenBatches()
	ds := Merge(wechat, alipay)
	require.NotNil(t, ds)

	rep := Reconcile(ds, wechat, alipay)

	assert.True(t, rep.Consistent(), "discrepancies: %v", rep.Discrepancies)
	assert.Equal(t, 2, rep.ExpectedCount)
	assert.Equal(t, 2, rep.ActualCount)
	assert.Equal(t, "150", rep.ExpectedAmountSum.String())
	assert.Equal(t, "-50", rep.ExpectedSignedSum.String())
	assert.Equal(t, "-50", rep.ActualSignedSum.String())
	assert.Equal(t, 1, rep.ActualBySource[common.ProviderWeChat])
	assert.Equal(t, 1, rep.ActualBySource[common.ProviderAlipay])
}

func TestReconcile_DroppedRowIsReported(t *testing.T) {
	setupTestConfig()

	wechat, alipay := specimenBatches()
	ds := Merge(wechat, alipay)
	require.NotNil(t, ds)
	ds.Transactions = ds.Transactions[:1] // lose the Alipay row

	rep := Reconcile(ds, wechat, alipay)

	assert.False(t, rep.Consistent())
	// Count, sums and the Alipay provenance count all disagree.
	assert.Len(t, rep.Discrepancies, 4)
}

func TestReconcile_TamperedAmountIsReported(t *testing.T) {
	setupTestConfig()

	wechat, alipay := specimenBatches()
	ds := Merge(wechat, alipay)
	require.NotNil(t, ds)
	ds.Transactions[0].Amount = ds.Transactions[0].Amount.Add(decimal.NewFromInt(1))

	rep := Reconcile(ds, wechat, alipay)

	assert.False(t, rep.Consistent())
	assert.Equal(t, 2, rep.ActualCount, "counts still match")
}

func TestReconcile_WithinTolerance(t *testing.T) {
	setupTestConfig()

	wechat, alipay := specimenBatches()
	ds := Merge(wechat, alipay)
	require.NotNil(t, ds)
	// A sub-cent drift is within the accumulation tolerance.
	ds.Transactions[0].Amount = ds.Transactions[0].Amount.Add(decimal.NewFromFloat(0.004))

	rep := Reconcile(ds, wechat, alipay)

	assert.True(t, rep.Consistent(), "discrepancies: %v", rep.Discrepancies)
}

func TestReconcile_SignRederivationIsIndependent(t *testing.T) {
	setupTestConfig()

	wechat, alipay := specimenBatches()
	ds := Merge(wechat, alipay)
	require.NotNil(t, ds)
	// Corrupt only the derived field; the source-side re-derivation must
	// catch the divergence.
	for i := range ds.Transactions {
		ds.Transactions[i].SignedAmount = ds.Transactions[i].Amount
	}

	rep := Reconcile(ds, wechat, alipay)

	assert.False(t, rep.Consistent())
	assert.Equal(t, "-50", rep.ExpectedSignedSum.String())
	assert.Equal(t, "150", rep.ActualSignedSum.String())
}

func TestReconcile_NilMergedAgainstEmptySources(t *testing.T) {
	setupTestConfig()

	rep := Reconcile(nil, &common.Batch{}, nil)

	assert.True(t, rep.Consistent())
	assert.Equal(t, 0, rep.ExpectedCount)
	assert.Equal(t, 0, rep.ActualCount)
}
