package pipeline_test

import (
	"testing"
	"time"

	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/dvloznov/bill-sync/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shanghai(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	return loc
}

func TestNormalize_WeChatExpense(t *testing.T) {
	loc := shanghai(t)
	raw := pipeline.RawRow{
		"交易时间":  "2024-01-15 12:30:00",
		"交易类型":  "商户消费",
		"交易对方":  "便利店",
		"商品":    "矿泉水",
		"收/支":   "支出",
		"金额(元)": "¥12.50",
		"支付方式":  "零钱",
		"交易单号":  " 4200001\t",
		"备注":    "/",
	}

	tx, err := pipeline.Normalize(raw, loc)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, "4200001", tx.TransactionID)
	assert.Equal(t, domain.DirectionExpense, tx.Direction)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-12.50")), tx.Amount.String())
	assert.True(t, tx.OccurredAt.Equal(time.Date(2024, 1, 15, 12, 30, 0, 0, loc)))
	assert.Equal(t, "商户消费", tx.Category)
	assert.Equal(t, "便利店", tx.Counterparty)
	assert.Equal(t, "矿泉水", tx.Description)
	assert.Equal(t, "零钱", tx.PaymentMethod)
	assert.Equal(t, "/", tx.Note)
}

func TestNormalize_AlipayIncomeAlternativeColumns(t *testing.T) {
	raw := pipeline.RawRow{
		"交易时间":   "2024/1/16 9:05",
		"交易分类":   "转账红包",
		"交易对方":   "张三",
		"商品说明":   "还款",
		"收/支":    "收入",
		"金额":     "1,200.00",
		"收/付款方式": "余额宝",
		"交易订单号":  "2024011622001",
	}

	tx, err := pipeline.Normalize(raw, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, "2024011622001", tx.TransactionID)
	assert.Equal(t, domain.DirectionIncome, tx.Direction)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1200")), tx.Amount.String())
	assert.Equal(t, "转账红包", tx.Category)
	assert.Equal(t, "还款", tx.Description)
	assert.Equal(t, "余额宝", tx.PaymentMethod)
	assert.Equal(t, 9, tx.OccurredAt.Hour())
	assert.Empty(t, tx.Note)
}

func TestNormalize_DropsNeutralRows(t *testing.T) {
	for _, label := range []string{"其他", "/", "不计收支", ""} {
		tx, err := pipeline.Normalize(pipeline.RawRow{
			"交易时间": "2024-01-15 12:30:00",
			"收/支":  label,
			"交易单号": "X",
			"金额(元)": "1.00",
		}, time.UTC)
		require.NoError(t, err, label)
		assert.Nil(t, tx, label)
	}
}

func TestNormalize_Errors(t *testing.T) {
	base := func() pipeline.RawRow {
		return pipeline.RawRow{
			"交易时间":  "2024-01-15 12:30:00",
			"收/支":   "支出",
			"金额(元)": "¥1.00",
			"交易单号":  "X",
		}
	}

	t.Run("missing id", func(t *testing.T) {
		raw := base()
		raw["交易单号"] = "  "
		_, err := pipeline.Normalize(raw, time.UTC)
		assert.ErrorIs(t, err, pipeline.ErrMissingTransactionID)
	})

	t.Run("bad amount", func(t *testing.T) {
		raw := base()
		raw["金额(元)"] = "abc"
		_, err := pipeline.Normalize(raw, time.UTC)
		assert.Error(t, err)
	})

	t.Run("empty amount", func(t *testing.T) {
		raw := base()
		delete(raw, "金额(元)")
		_, err := pipeline.Normalize(raw, time.UTC)
		assert.Error(t, err)
	})

	t.Run("bad time", func(t *testing.T) {
		raw := base()
		raw["交易时间"] = "yesterday"
		_, err := pipeline.Normalize(raw, time.UTC)
		assert.Error(t, err)
	})
}

func TestNormalize_NilLocationIsUTC(t *testing.T) {
	tx, err := pipeline.Normalize(pipeline.RawRow{
		"交易时间":  "2024-01-15",
		"收/支":   "收入",
		"金额(元)": "5",
		"交易单号":  "X",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, tx.OccurredAt.Location())
}
