package common

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
)

const testStatusYAML = `
status:
  refund: 退款
  groups:
    支付成功: [支付成功, 对方已收钱, 已转账, 交易成功, 交易已完成]
    已存入零钱: [已存入零钱, 存入零钱, 转入零钱]
`

func setupStatusConfig() {
	viper.Reset()
	viper.SetConfigType("yaml")
	viper.ReadConfig(bytes.NewBufferString(testStatusYAML))
}

func TestNormalize_SynonymFoldsToCanonical(t *testing.T) {
	setupStatusConfig()
	table := LoadStatusTable()

	for _, synonym := range []string{"对方已收钱", "已转账", "交易成功", "交易已完成"} {
		if got := table.Normalize(synonym); got != "支付成功" {
			t.Errorf("Normalize(%q) = %q, expected 支付成功", synonym, got)
		}
	}
	for _, synonym := range []string{"存入零钱", "转入零钱"} {
		if got := table.Normalize(synonym); got != "已存入零钱" {
			t.Errorf("Normalize(%q) = %q, expected 已存入零钱", synonym, got)
		}
	}
}

func TestNormalize_CanonicalIsIdempotent(t *testing.T) {
	setupStatusConfig()
	table := LoadStatusTable()

	for _, canonical := range []string{"支付成功", "已存入零钱"} {
		if got := table.Normalize(canonical); got != canonical {
			t.Errorf("Normalize(%q) = %q, expected unchanged", canonical, got)
		}
	}
}

func TestNormalize_RefundNeverFolded(t *testing.T) {
	setupStatusConfig()
	table := LoadStatusTable()

	if got := table.Normalize("退款"); got != "退款" {
		t.Errorf("Normalize(退款) = %q, expected 退款", got)
	}
	if got := table.Normalize(" 退款 "); got != "退款" {
		t.Errorf("Normalize with whitespace = %q, expected 退款", got)
	}
}

func TestNormalize_UnknownPassesThrough(t *testing.T) {
	setupStatusConfig()
	table := LoadStatusTable()

	if got := table.Normalize("处理中"); got != "处理中" {
		t.Errorf("Normalize(处理中) = %q, expected verbatim pass-through", got)
	}
}

func TestNormalize_TrimsWhitespace(t *testing.T) {
	setupStatusConfig()
	table := LoadStatusTable()

	if got := table.Normalize("  交易成功  "); got != "支付成功" {
		t.Errorf("Normalize with padding = %q, expected 支付成功", got)
	}
}
