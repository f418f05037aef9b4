package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration. A .billmerge.yaml in the working or home
// directory overrides it; the defaults describe the current export schemas
// of both providers.
const defaultConfigYAML = `
providers:
  wechat:
    file_suffix: .xlsx
    file_marker: 微信
    skip_rows: 16
    payment_method: 微信支付
    columns: [交易时间, 交易类型, 交易对方, 商品, 收/支, 金额, 支付方式, 当前状态, 交易单号, 商户单号, 备注]
  alipay:
    file_suffix: .csv
    file_marker: 支付宝
    header_marker: 交易时间
    footer_prefix: "----"
    min_fields: 12
    payment_method: 支付宝
status:
  refund: 退款
  groups:
    支付成功: [支付成功, 对方已收钱, 已转账, 交易成功, 交易已完成]
    已存入零钱: [已存入零钱, 存入零钱, 转入零钱]
merge:
  expense_label: 支出
output:
  columns: [交易时间, 交易类型, 交易对方, 商品/商品名称, 收/支, 金额, 收支金额, 支付方式, 交易状态]
  single_file: 总账单.xlsx
  single_sheet: 合并账单
  month_sheet: 账单明细
  month_suffix: 账单
  month_layout: 2006年01月`

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "billmerge [directory]",
		Short: "Merge WeChat Pay and Alipay bill exports into spreadsheet reports",
		Long: `billmerge normalizes WeChat Pay (xlsx) and Alipay (GBK csv) transaction
exports into one canonical dataset, verifies the merge lost no records or
amounts, and writes formatted xlsx reports grouped by month or as one file.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				viper.Set("target", args[0])
			}
			runMerge(mergeCmd, []string{})
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.billmerge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	if !verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetFlags(log.Ltime | log.Lmsgprefix)
		log.SetPrefix("INFO: ")
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".billmerge")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Printf("Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}
