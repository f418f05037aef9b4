package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yuqing/billmerge/extractor"
	"github.com/yuqing/billmerge/extractor/common"
	"github.com/yuqing/billmerge/merger"
	"github.com/yuqing/billmerge/report"
)

var (
	mergeSingle bool
	mergeYes    bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the bill exports found in a directory",
	Long: `Scans a directory for WeChat Pay and Alipay bill exports, merges them into
one canonical dataset, reconciles the result against the sources and writes
xlsx reports into the same directory.`,
	Run: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringP("folder", "f", ".", "Folder in which billmerge will scan for bill exports")
	mergeCmd.Flags().BoolVarP(&mergeSingle, "single", "s", false, "write one consolidated workbook instead of one per month")
	mergeCmd.Flags().BoolVarP(&mergeYes, "yes", "y", false, "run non-interactively: skip prompts, save despite reconciliation failures")
	viper.BindPFlag("target", mergeCmd.Flags().Lookup("folder"))
}

// runMerge is the single linear pipeline: scan → parse → merge → reconcile →
// (confirm on inconsistency) → save once.
func runMerge(cmd *cobra.Command, args []string) {
	target := viper.GetString("target")
	if target == "" {
		target = "."
	}
	fmt.Println("scanning", target)

	bills, err := extractor.ExecuteAgainstPath(target)
	if err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}

	printBatch("WeChat", bills.WeChat, bills.WeChatFiles)
	printBatch("Alipay", bills.Alipay, bills.AlipayFiles)

	ds := merger.Merge(bills.WeChat, bills.Alipay)
	if ds == nil {
		color.Yellow("nothing to merge: no usable bill data found in %s", target)
		return
	}

	rep := merger.Reconcile(ds, bills.WeChat, bills.Alipay)
	printReport(rep)

	if !rep.Consistent() && !mergeYes {
		if !confirm("merged data failed reconciliation, save anyway? (y/N): ") {
			color.Yellow("save cancelled")
			return
		}
	}

	single := mergeSingle
	if !cmd.Flags().Changed("single") && !mergeYes {
		single = promptSingle()
	}

	if single {
		path, err := report.SaveSingle(ds, target)
		if err != nil {
			color.Red("✗ saving consolidated report: %v", err)
			os.Exit(1)
		}
		color.Green("✓ saved %s (%d records)", path, len(ds.Transactions))
	} else {
		written, err := report.SaveByMonth(ds, target)
		if err != nil {
			color.Red("✗ saving monthly reports: %v", err)
			os.Exit(1)
		}
		for _, path := range written {
			color.Green("✓ saved %s", path)
		}
		if len(written) == 0 {
			color.Yellow("no row carried a usable month, no monthly file written")
		}
	}

	fmt.Printf("total amount %s, signed total %s\n", ds.AmountSum().StringFixed(2), ds.SignedSum().StringFixed(2))
}

func printBatch(name string, b *common.Batch, files []string) {
	if b == nil {
		fmt.Printf("%s: no usable export (%d file(s) found)\n", name, len(files))
		return
	}
	fmt.Printf("%s: %d records from %d file(s), amount sum %s", name, b.Count(), len(files), b.AmountSum().StringFixed(2))
	if b.InvalidDates+b.ZeroAmounts+b.ParseErrors > 0 {
		fmt.Printf(" (%d invalid dates, %d zero amounts, %d parse errors)", b.InvalidDates, b.ZeroAmounts, b.ParseErrors)
	}
	fmt.Println()
}

func printReport(rep merger.Report) {
	if rep.Consistent() {
		color.Green("✓ reconciliation passed: %d records, amount sum %s, signed sum %s",
			rep.ActualCount, rep.ActualAmountSum.StringFixed(2), rep.ActualSignedSum.StringFixed(2))
		return
	}
	color.Red("✗ reconciliation failed:")
	for _, d := range rep.Discrepancies {
		color.Red("  - %s", d)
	}
}

// promptSingle asks for the output mode; plain Enter keeps the by-month
// default.
func promptSingle() bool {
	fmt.Println("output mode: 1 = one file per month (Enter), 2 = one consolidated file")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "2"
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y"
}
