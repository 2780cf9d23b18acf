package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ColumnInvoiceNo   = "InvoiceNo"
	ColumnCustomerID  = "CustomerID"
	ColumnInvoiceDate = "InvoiceDate"
	ColumnQuantity    = "Quantity"
	ColumnUnitPrice   = "UnitPrice"
	ColumnTotalAmount = "TotalAmount"
)

// Transaction is one cleaned invoice line.
type Transaction struct {
	InvoiceNo   string
	CustomerID  string
	InvoiceDate time.Time
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
}

// TransactionTable is a snapshot of transactions together with the columns
// the source actually provided.
type TransactionTable struct {
	Columns []string
	Rows    []Transaction
}

func (t TransactionTable) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// AllColumns is the full header of a cleaned transaction export.
func AllColumns() []string {
	return []string{
		ColumnInvoiceNo,
		ColumnCustomerID,
		ColumnInvoiceDate,
		ColumnQuantity,
		ColumnUnitPrice,
		ColumnTotalAmount,
	}
}
