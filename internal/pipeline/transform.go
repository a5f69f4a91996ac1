package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrMissingTransactionID is returned for a data row without either id column.
var ErrMissingTransactionID = errors.New("missing transaction id")

// timeLayouts are the "交易时间" formats seen in WeChat Pay and Alipay exports.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// currencySymbols are stripped from amount cells before numeric parsing.
var currencySymbols = strings.NewReplacer("¥", "", "￥", "", ",", "", " ", "")

// Normalize converts a raw export row into a Transaction.
// It returns (nil, nil) for rows that are neither income nor expense.
func Normalize(raw RawRow, loc *time.Location) (*domain.Transaction, error) {
	direction, ok := domain.ParseDirection(strings.TrimSpace(raw[ColumnDirection]))
	if !ok {
		return nil, nil
	}

	id := firstOf(raw, TransactionIDColumns...)
	if id == "" {
		return nil, fmt.Errorf("Normalize: %w (columns %v)", ErrMissingTransactionID, TransactionIDColumns)
	}

	magnitude, err := parseAmount(firstOf(raw, AmountColumns...))
	if err != nil {
		return nil, fmt.Errorf("Normalize: transaction %s: %w", id, err)
	}

	occurredAt, err := parseTime(firstOf(raw, HeaderSentinel), loc)
	if err != nil {
		return nil, fmt.Errorf("Normalize: transaction %s: %w", id, err)
	}

	return &domain.Transaction{
		TransactionID: id,
		OccurredAt:    occurredAt,
		Direction:     direction,
		Category:      firstOf(raw, CategoryColumns...),
		Counterparty:  firstOf(raw, ColumnCounterparty),
		Description:   firstOf(raw, DescriptionColumns...),
		Amount:        domain.SignedAmount(direction, magnitude),
		PaymentMethod: firstOf(raw, PaymentMethodColumns...),
		Note:          firstOf(raw, ColumnNote),
	}, nil
}

// firstOf returns the first non-empty trimmed value among the candidate columns.
func firstOf(raw RawRow, columns ...string) string {
	for _, col := range columns {
		if v := strings.TrimSpace(raw[col]); v != "" {
			return v
		}
	}
	return ""
}

func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := currencySymbols.Replace(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid transaction time %q", s)
}
