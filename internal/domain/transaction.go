package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the polarity of a transaction as labelled by the exporting institution.
type Direction string

const (
	// DirectionIncome marks money received.
	DirectionIncome Direction = "收入"
	// DirectionExpense marks money spent.
	DirectionExpense Direction = "支出"
)

// ParseDirection maps a "收/支" cell onto a Direction.
// Any label other than the two recognized ones is rejected.
func ParseDirection(label string) (Direction, bool) {
	switch Direction(label) {
	case DirectionIncome, DirectionExpense:
		return Direction(label), true
	default:
		return "", false
	}
}

// Transaction represents one normalized row of a bank or e-wallet export.
// This is a domain struct, not a Notion page; notionsync maps it onto the bill
// database properties.
type Transaction struct {
	TransactionID string    // from "交易单号" or "交易订单号", trimmed
	OccurredAt    time.Time // from "交易时间"
	Direction     Direction // from "收/支"

	Category      string          // from "交易类型" or "交易分类"
	Counterparty  string          // from "交易对方"
	Description   string          // from "商品" or "商品说明"
	Amount        decimal.Decimal // from "金额(元)" or "金额" (income positive, expense negative)
	PaymentMethod string          // from "支付方式" or "收/付款方式"
	Note          string          // from "备注"
}

// SignedAmount applies the sign convention for the given direction to a magnitude.
func SignedAmount(direction Direction, magnitude decimal.Decimal) decimal.Decimal {
	if direction == DirectionExpense {
		return magnitude.Neg()
	}
	return magnitude
}
