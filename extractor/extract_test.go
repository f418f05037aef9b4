package extractor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const testConfigYAML = `
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
    支付成功: [支付成功, 交易成功]
`

func setupTestConfig() {
	viper.Reset()
	viper.SetConfigType("yaml")
	viper.ReadConfig(bytes.NewBufferString(testConfigYAML))
}

func touch(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindBillFiles_ClassifiesByMarkerAndSuffix(t *testing.T) {
	setupTestConfig()
	dir := t.TempDir()

	touch(t, dir, "微信支付账单(20240301-20240331).xlsx", []byte("x"))
	touch(t, dir, "支付宝交易明细(20240301-20240331).csv", []byte("x"))
	touch(t, dir, "微信支付账单.csv", []byte("x"))   // wrong extension for WeChat
	touch(t, dir, "支付宝交易明细.xlsx", []byte("x")) // wrong extension for Alipay
	touch(t, dir, "notes.txt", []byte("x"))
	touch(t, dir, "总账单.xlsx", []byte("x")) // no provider marker

	wechatFiles, alipayFiles, err := FindBillFiles(dir)
	if err != nil {
		t.Fatalf("FindBillFiles failed: %v", err)
	}

	if len(wechatFiles) != 1 {
		t.Errorf("Expected 1 WeChat file, got %v", wechatFiles)
	}
	if len(alipayFiles) != 1 {
		t.Errorf("Expected 1 Alipay file, got %v", alipayFiles)
	}
}

func TestFindBillFiles_MissingDirectory(t *testing.T) {
	setupTestConfig()

	if _, _, err := FindBillFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing directory, got nil")
	}
}

func TestExecuteAgainstPath_UnusableFilesContributeNothing(t *testing.T) {
	setupTestConfig()
	dir := t.TempDir()

	// Both files match the discovery rules but neither parses.
	touch(t, dir, "微信支付账单.xlsx", []byte("not an xlsx"))
	touch(t, dir, "支付宝交易明细.csv", []byte("no header marker here"))

	bills, err := ExecuteAgainstPath(dir)
	if err != nil {
		t.Fatalf("ExecuteAgainstPath failed: %v", err)
	}

	if !bills.Empty() {
		t.Error("Expected empty bills from unusable files")
	}
	if bills.WeChat != nil || bills.Alipay != nil {
		t.Error("Expected nil batches when no file parsed")
	}
	if len(bills.WeChatFiles) != 1 || len(bills.AlipayFiles) != 1 {
		t.Errorf("Discovery should still list the files: %v %v", bills.WeChatFiles, bills.AlipayFiles)
	}
}

func TestExecuteAgainstPath_AccumulatesMultipleAlipayFiles(t *testing.T) {
	setupTestConfig()
	dir := t.TempDir()

	export := "交易时间,交易类型,交易对方,对方账户,商品名称,收/支,金额,支付方式,交易状态,交易订单号,商家订单号,备注\n" +
		"2024-03-10 08:15:00,consume,shop,a@example.com,item,支出,10.00,b,交易成功,Z1,S1,r\n"
	encoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(export))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	touch(t, dir, "支付宝交易明细一.csv", encoded)
	touch(t, dir, "支付宝交易明细二.csv", encoded)

	bills, err := ExecuteAgainstPath(dir)
	if err != nil {
		t.Fatalf("ExecuteAgainstPath failed: %v", err)
	}

	if bills.Alipay.Count() != 2 {
		t.Errorf("Expected 2 accumulated records, got %d", bills.Alipay.Count())
	}
}
