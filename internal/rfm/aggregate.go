package rfm

import (
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/models"
)

const day = 24 * time.Hour

// RequiredColumns are the transaction columns the aggregator reads.
var RequiredColumns = []string{
	models.ColumnCustomerID,
	models.ColumnInvoiceDate,
	models.ColumnTotalAmount,
}

type accumulator struct {
	frequency int
	monetary  decimal.Decimal
	last      time.Time
}

// Aggregate reduces a transaction table to one row per customer with
// Recency, Frequency and Monetary populated. Rows come back ordered by
// CustomerID. The returned time is the reference date: the latest
// InvoiceDate in the whole table.
func Aggregate(table models.TransactionTable) ([]models.CustomerRFM, time.Time, error) {
	var missing []string
	for _, col := range RequiredColumns {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, time.Time{}, &MissingColumnError{Columns: missing}
	}

	if len(table.Rows) == 0 {
		return nil, time.Time{}, &InvalidValueError{
			Row:    -1,
			Column: "transactions",
			Value:  "0",
			Reason: "no transactions to aggregate",
		}
	}

	checkQuantity := table.HasColumn(models.ColumnQuantity)
	checkPrice := table.HasColumn(models.ColumnUnitPrice)

	var reference time.Time
	groups := make(map[string]*accumulator)

	for i, tx := range table.Rows {
		if err := validateRow(i, tx, checkQuantity, checkPrice); err != nil {
			return nil, time.Time{}, err
		}

		acc := groups[tx.CustomerID]
		if acc == nil {
			acc = &accumulator{}
			groups[tx.CustomerID] = acc
		}
		acc.frequency++
		acc.monetary = acc.monetary.Add(tx.TotalAmount)
		if tx.InvoiceDate.After(acc.last) {
			acc.last = tx.InvoiceDate
		}

		if tx.InvoiceDate.After(reference) {
			reference = tx.InvoiceDate
		}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	customers := make([]models.CustomerRFM, 0, len(ids))
	for _, id := range ids {
		acc := groups[id]
		customers = append(customers, models.CustomerRFM{
			CustomerID: id,
			Recency:    int(reference.Sub(acc.last) / day),
			Frequency:  acc.frequency,
			Monetary:   acc.monetary,
		})
	}

	return customers, reference, nil
}

func validateRow(row int, tx models.Transaction, checkQuantity, checkPrice bool) error {
	if tx.CustomerID == "" {
		return &InvalidValueError{Row: row, Column: models.ColumnCustomerID, Reason: "customer id is empty"}
	}
	if tx.InvoiceDate.IsZero() {
		return &InvalidValueError{Row: row, Column: models.ColumnInvoiceDate, Reason: "invoice date is missing"}
	}
	if checkQuantity && tx.Quantity <= 0 {
		return &InvalidValueError{
			Row:    row,
			Column: models.ColumnQuantity,
			Value:  strconv.Itoa(tx.Quantity),
			Reason: "quantity must be positive",
		}
	}
	if checkPrice && !tx.UnitPrice.IsPositive() {
		return &InvalidValueError{
			Row:    row,
			Column: models.ColumnUnitPrice,
			Value:  tx.UnitPrice.String(),
			Reason: "unit price must be positive",
		}
	}
	if !tx.TotalAmount.IsPositive() {
		return &InvalidValueError{
			Row:    row,
			Column: models.ColumnTotalAmount,
			Value:  tx.TotalAmount.String(),
			Reason: "total amount must be positive",
		}
	}
	return nil
}
