package wechat

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"github.com/yuqing/billmerge/extractor/common"
)

type config struct {
	SkipRows      int
	Columns       []string
	PaymentMethod string
}

func loadConfig() config {
	return config{
		SkipRows:      viper.GetInt("providers.wechat.skip_rows"),
		Columns:       viper.GetStringSlice("providers.wechat.columns"),
		PaymentMethod: viper.GetString("providers.wechat.payment_method"),
	}
}

// Column positions once the metadata rows are skipped. The export's header
// is fixed in count and order; a count mismatch is logged and parsing
// continues with whatever columns line up (schema version 2021+ export).
const (
	colTime = iota
	colType
	colCounterparty
	colItem
	colDirection
	colAmount
	colPaymentMethod
	colStatus
	colTransactionID
	colMerchantOrderID
	colRemark
)

// ExtractFile opens a WeChat Pay xlsx export and parses it into a canonical
// batch. A nil batch with an error means the workbook was unusable; the
// caller treats that as zero records, not a fatal condition.
func ExtractFile(path string) (*common.Batch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening wechat workbook: %w", err)
	}
	defer f.Close()
	return Extract(f)
}

// Extract parses the first sheet of an opened WeChat Pay workbook.
func Extract(f *excelize.File) (*common.Batch, error) {
	cfg := loadConfig()
	statuses := common.LoadStatusTable()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("wechat workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) <= cfg.SkipRows {
		return nil, fmt.Errorf("expected header after %d metadata rows, workbook has only %d rows", cfg.SkipRows, len(rows))
	}

	header := rows[cfg.SkipRows]
	if len(header) < len(cfg.Columns) {
		// Degraded export: keep going, unmapped columns read as empty.
		log.Printf("wechat header has %d columns, expected %d", len(header), len(cfg.Columns))
	}

	batch := &common.Batch{Source: common.ProviderWeChat}
	for _, row := range rows[cfg.SkipRows+1:] {
		if isBlank(row) {
			continue
		}

		tx := common.Transaction{
			RawTime:         cell(row, colTime),
			Type:            cell(row, colType),
			Counterparty:    cell(row, colCounterparty),
			Item:            cell(row, colItem),
			Direction:       cell(row, colDirection),
			PaymentMethod:   cfg.PaymentMethod,
			Status:          statuses.Normalize(cell(row, colStatus)),
			TransactionID:   cell(row, colTransactionID),
			MerchantOrderID: cell(row, colMerchantOrderID),
			Remark:          cell(row, colRemark),
			Source:          common.ProviderWeChat,
		}

		tx.Time = common.ParseTime(tx.RawTime)
		if tx.Time == nil {
			batch.InvalidDates++
		}

		amount, err := common.CleanAmount(cell(row, colAmount))
		if err != nil || amount.IsZero() {
			batch.ZeroAmounts++
		}
		// Direction carries the sign; the amount itself is kept non-negative.
		tx.Amount = amount.Abs()

		batch.Transactions = append(batch.Transactions, tx)
	}

	log.Printf("wechat: %d transactions, %d invalid dates, %d zero amounts",
		len(batch.Transactions), batch.InvalidDates, batch.ZeroAmounts)
	return batch, nil
}

// cell reads the trimmed value at idx, tolerating short rows. excelize trims
// trailing empty cells from GetRows output.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
