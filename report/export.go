// Package report renders merged datasets as formatted xlsx workbooks, either
// one per month bucket or one consolidated file.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"github.com/yuqing/billmerge/extractor/common"
	"github.com/yuqing/billmerge/merger"
)

type config struct {
	Columns      []string
	SingleFile   string
	SingleSheet  string
	MonthSheet   string
	MonthSuffix  string
	MonthLayout  string
	ExpenseLabel string
}

func loadConfig() config {
	return config{
		Columns:      viper.GetStringSlice("output.columns"),
		SingleFile:   viper.GetString("output.single_file"),
		SingleSheet:  viper.GetString("output.single_sheet"),
		MonthSheet:   viper.GetString("output.month_sheet"),
		MonthSuffix:  viper.GetString("output.month_suffix"),
		MonthLayout:  viper.GetString("output.month_layout"),
		ExpenseLabel: viper.GetString("merge.expense_label"),
	}
}

// Visible output columns, fixed order: time A, type B, counterparty C,
// item D, direction E, amount F, signed amount G, payment method H,
// status I. Hidden trace fields and provenance are never emitted.
const (
	timeCol      = "A"
	directionCol = "E"
	amountCol    = "F"
	signedCol    = "G"
	lastCol      = "I"
)

// CNY accounting number format, negative amounts with a minus sign.
const accountingNumFmt = `_([$¥-804]* #,##0.00_);_([$¥-804]* -#,##0.00_);_([$¥-804]* "-"??_);_(@_)`
const dateNumFmt = "yyyy-mm-dd hh:mm"

// SaveSingle writes every merged row, rows without a month bucket included,
// into one consolidated workbook under dir. Returns the written path.
func SaveSingle(ds *merger.Dataset, dir string) (string, error) {
	cfg := loadConfig()
	path := filepath.Join(dir, cfg.SingleFile)
	if err := writeWorkbook(path, cfg.SingleSheet, ds.Transactions, cfg); err != nil {
		return "", err
	}
	return path, nil
}

// SaveByMonth writes one workbook per month bucket under dir, in month
// order. Rows without a bucket are not written to any file. Returns the
// written paths.
func SaveByMonth(ds *merger.Dataset, dir string) ([]string, error) {
	cfg := loadConfig()
	var written []string
	for _, month := range ds.Months() {
		name := monthLabel(month, cfg.MonthLayout) + cfg.MonthSuffix + ".xlsx"
		path := filepath.Join(dir, name)
		if err := writeWorkbook(path, cfg.MonthSheet, ds.ByMonth(month), cfg); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// monthLabel renders a YYYY-MM bucket in the localized filename layout,
// passing unrenderable buckets through unchanged.
func monthLabel(month, layout string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format(layout)
}

func writeWorkbook(path, sheet string, rows []common.Transaction, cfg config) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range cfg.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	dateFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("building date style: %w", err)
	}
	acctFmt := accountingNumFmt
	acctStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &acctFmt})
	if err != nil {
		return fmt.Errorf("building accounting style: %w", err)
	}

	for i, tx := range rows {
		r := i + 2
		if tx.Time != nil {
			err = f.SetCellValue(sheet, fmt.Sprintf("A%d", r), *tx.Time)
		} else {
			err = f.SetCellValue(sheet, fmt.Sprintf("A%d", r), tx.RawTime)
		}
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), tx.Type)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", r), tx.Counterparty)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", r), tx.Item)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", r), tx.Direction)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", r), tx.Amount.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("H%d", r), tx.PaymentMethod)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", r), tx.Status)

		// The sheet recomputes the signed amount; the formula must agree
		// exactly with the merge engine's rule.
		formula := fmt.Sprintf(`IF(%s%d="%s",-%s%d,%s%d)`,
			directionCol, r, cfg.ExpenseLabel, amountCol, r, amountCol, r)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", signedCol, r), formula); err != nil {
			return err
		}
	}

	widths := map[string]float64{
		"A": 20, "B": 15, "C": 25, "D": 30, "E": 8, "F": 15, "G": 15, "H": 12, "I": 12,
	}
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(sheet, timeCol, dateStyle); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, amountCol+":"+signedCol, acctStyle); err != nil {
		return err
	}

	n := len(rows)
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, n+1), nil); err != nil {
		return err
	}

	subtotal := fmt.Sprintf("SUBTOTAL(9,%s2:%s%d)", signedCol, signedCol, n+1)
	if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", signedCol, n+2), subtotal); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
