package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/rfm"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// DateLayouts are the InvoiceDate formats accepted, tried in order.
var DateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"1/2/2006 15:04",
}

// Parse converts every record of raw into a transaction. A field that is
// present in the header but cannot be parsed fails the whole table with an
// *rfm.InvalidValueError naming the first offending row. Range checks are
// left to the aggregator.
func Parse(ctx context.Context, raw *RawTable) (models.TransactionTable, error) {
	table := models.TransactionTable{Columns: knownColumns(raw)}
	rows := make([]models.Transaction, raw.Len())
	batchErrs := make([]error, (raw.Len()+batchSize-1)/batchSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for b := range batchErrs {
		start := b * batchSize
		end := min(start+batchSize, raw.Len())

		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				tx, err := parseRecord(raw, i)
				if err != nil {
					batchErrs[b] = err
					return nil
				}
				rows[i] = tx
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.TransactionTable{}, err
	}

	// Batches cover ascending rows, so the first batch error is the first
	// bad row.
	for _, err := range batchErrs {
		if err != nil {
			return models.TransactionTable{}, err
		}
	}

	table.Rows = rows
	return table, nil
}

func knownColumns(raw *RawTable) []string {
	var cols []string
	for _, col := range models.AllColumns() {
		if raw.Has(col) {
			cols = append(cols, col)
		}
	}
	return cols
}

func parseRecord(raw *RawTable, i int) (models.Transaction, error) {
	tx := models.Transaction{
		InvoiceNo:  raw.Field(i, models.ColumnInvoiceNo),
		CustomerID: NormalizeCustomerID(raw.Field(i, models.ColumnCustomerID)),
	}

	if raw.Has(models.ColumnInvoiceDate) {
		value := raw.Field(i, models.ColumnInvoiceDate)
		date, err := ParseDate(value)
		if err != nil {
			return tx, invalid(i, models.ColumnInvoiceDate, value, "unrecognized date format")
		}
		tx.InvoiceDate = date
	}

	if raw.Has(models.ColumnQuantity) {
		value := raw.Field(i, models.ColumnQuantity)
		qty, err := ParseQuantity(value)
		if err != nil {
			return tx, invalid(i, models.ColumnQuantity, value, "not an integer")
		}
		tx.Quantity = qty
	}

	if raw.Has(models.ColumnUnitPrice) {
		value := raw.Field(i, models.ColumnUnitPrice)
		price, err := decimal.NewFromString(value)
		if err != nil {
			return tx, invalid(i, models.ColumnUnitPrice, value, "not a number")
		}
		tx.UnitPrice = price
	}

	if raw.Has(models.ColumnTotalAmount) {
		value := raw.Field(i, models.ColumnTotalAmount)
		total, err := decimal.NewFromString(value)
		if err != nil {
			return tx, invalid(i, models.ColumnTotalAmount, value, "not a number")
		}
		tx.TotalAmount = total
	}

	return tx, nil
}

func invalid(row int, column, value, reason string) error {
	return &rfm.InvalidValueError{Row: row, Column: column, Value: value, Reason: reason}
}

// ParseDate tries each of DateLayouts in turn.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", value)
}

// ParseQuantity accepts plain integers and integral floats such as "6.0",
// which spreadsheet exports produce.
func ParseQuantity(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("quantity %q is not integral", value)
	}
	return int(f), nil
}

// NormalizeCustomerID strips the ".0" suffix a float-typed export leaves on
// numeric ids, so "17850.0" and "17850" name the same customer.
func NormalizeCustomerID(id string) string {
	if head, ok := strings.CutSuffix(id, ".0"); ok && head != "" && isDigits(head) {
		return head
	}
	return id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
