package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies which payment platform a transaction was exported from.
// It is used for diagnostics and reconciliation only and never appears in the
// emitted reports.
type Provider string

const (
	ProviderWeChat Provider = "wechat"
	ProviderAlipay Provider = "alipay"
)

// Transaction is the canonical row shape both providers are mapped into.
// Time is nil when the source value could not be parsed; RawTime keeps the
// original text so the month bucket can still be recovered from it.
type Transaction struct {
	Time            *time.Time      `json:"time,omitempty"`
	RawTime         string          `json:"-"`
	Type            string          `json:"type"`
	Counterparty    string          `json:"counterparty"`
	Item            string          `json:"item"`
	Direction       string          `json:"direction"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"status"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	MerchantOrderID string          `json:"merchant_order_id,omitempty"`
	Remark          string          `json:"remark,omitempty"`
	Source          Provider        `json:"-"`

	// Derived by the merge engine, zero until then.
	SignedAmount decimal.Decimal `json:"signed_amount"`
	Month        string          `json:"-"`
}

// Batch holds everything parsed from one or more export files of a single
// provider, plus the row-level anomaly counters. Anomalies never abort a
// parse; they are counted here and reported to the user.
type Batch struct {
	Source       Provider
	Transactions []Transaction

	InvalidDates int
	ZeroAmounts  int
	ParseErrors  int
}

// Count returns the number of parsed transactions.
func (b *Batch) Count() int {
	if b == nil {
		return 0
	}
	return len(b.Transactions)
}

// AmountSum totals the unsigned amounts of the batch.
func (b *Batch) AmountSum() decimal.Decimal {
	total := decimal.Zero
	if b == nil {
		return total
	}
	for _, tx := range b.Transactions {
		total = total.Add(tx.Amount)
	}
	return total
}

// Append merges another batch of the same provider into b, accumulating the
// diagnostic counters.
func (b *Batch) Append(other *Batch) {
	if other == nil {
		return
	}
	b.Transactions = append(b.Transactions, other.Transactions...)
	b.InvalidDates += other.InvalidDates
	b.ZeroAmounts += other.ZeroAmounts
	b.ParseErrors += other.ParseErrors
}
