package alipay

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/yuqing/billmerge/extractor/common"
)

type config struct {
	HeaderMarker  string
	FooterPrefix  string
	MinFields     int
	PaymentMethod string
}

func loadConfig() config {
	return config{
		HeaderMarker:  viper.GetString("providers.alipay.header_marker"),
		FooterPrefix:  viper.GetString("providers.alipay.footer_prefix"),
		MinFields:     viper.GetInt("providers.alipay.min_fields"),
		PaymentMethod: viper.GetString("providers.alipay.payment_method"),
	}
}

// Positional fields of an Alipay CSV record. The export's only contract is
// ordinal (schema of the personal bill export): field 3 (counterparty account)
// and field 7 (payment method) exist but are not mapped.
const (
	colTime            = 0
	colType            = 1
	colCounterparty    = 2
	colItem            = 4
	colDirection       = 5
	colAmount          = 6
	colStatus          = 8
	colTransactionID   = 9
	colMerchantOrderID = 10
	colRemark          = 11
)

// ExtractFile opens an Alipay CSV export, decodes it from GBK and parses it.
func ExtractFile(path string) (*common.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening alipay export: %w", err)
	}
	defer f.Close()
	return Extract(transform.NewReader(f, simplifiedchinese.GBK.NewDecoder()))
}

// Extract parses an Alipay export that has already been decoded to UTF-8.
// The real header sits below free-text metadata lines and is located by
// scanning for the marker column name; dash-prefixed footer lines are noise.
// A line that fails to parse is counted and skipped, never fatal.
func Extract(r io.Reader) (*common.Batch, error) {
	cfg := loadConfig()
	statuses := common.LoadStatusTable()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading alipay export: %w", err)
	}

	headerIndex := -1
	for i, line := range lines {
		if strings.Contains(line, cfg.HeaderMarker) {
			headerIndex = i
			break
		}
	}
	if headerIndex == -1 {
		return nil, fmt.Errorf("header marker %q not found in alipay export", cfg.HeaderMarker)
	}

	batch := &common.Batch{Source: common.ProviderAlipay}
	for i, line := range lines[headerIndex+1:] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, cfg.FooterPrefix) || strings.HasPrefix(line, `"`+cfg.FooterPrefix) {
			continue
		}

		record, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil {
			batch.ParseErrors++
			log.Printf("alipay: line %d unparsable: %v", headerIndex+2+i, err)
			continue
		}
		if len(record) < cfg.MinFields {
			continue
		}

		tx := common.Transaction{
			RawTime:         strings.TrimSpace(record[colTime]),
			Type:            strings.TrimSpace(record[colType]),
			Counterparty:    strings.TrimSpace(record[colCounterparty]),
			Item:            strings.TrimSpace(record[colItem]),
			Direction:       strings.TrimSpace(record[colDirection]),
			PaymentMethod:   cfg.PaymentMethod,
			Status:          statuses.Normalize(record[colStatus]),
			TransactionID:   strings.TrimSpace(record[colTransactionID]),
			MerchantOrderID: strings.TrimSpace(record[colMerchantOrderID]),
			Remark:          strings.TrimSpace(record[colRemark]),
			Source:          common.ProviderAlipay,
		}

		tx.Time = common.ParseTime(tx.RawTime)

		// Blank trailing lines sometimes survive as quoted empty records.
		if tx.Time == nil && tx.Type == "" && tx.Counterparty == "" {
			continue
		}
		if tx.Time == nil {
			batch.InvalidDates++
		}

		amount, err := common.CleanAmount(record[colAmount])
		if err != nil || amount.IsZero() {
			batch.ZeroAmounts++
		}
		tx.Amount = amount.Abs()

		batch.Transactions = append(batch.Transactions, tx)
	}

	log.Printf("alipay: %d transactions, %d invalid dates, %d zero amounts, %d parse errors",
		len(batch.Transactions), batch.InvalidDates, batch.ZeroAmounts, batch.ParseErrors)
	return batch, nil
}
