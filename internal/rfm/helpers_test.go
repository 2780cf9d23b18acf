package rfm

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/models"
)

var baseDate = time.Date(2011, 12, 9, 12, 50, 0, 0, time.UTC)

func newTx(t *testing.T, customerID string, date time.Time, amount string) models.Transaction {
	t.Helper()
	total, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("bad amount %q: %v", amount, err)
	}
	return models.Transaction{
		InvoiceNo:   fmt.Sprintf("INV-%s-%d", customerID, date.Unix()),
		CustomerID:  customerID,
		InvoiceDate: date,
		Quantity:    1,
		UnitPrice:   total,
		TotalAmount: total,
	}
}

func newTable(rows ...models.Transaction) models.TransactionTable {
	return models.TransactionTable{Columns: models.AllColumns(), Rows: rows}
}

// syntheticTable builds n customers with distinct recency and monetary values
// and seven distinct frequencies.
func syntheticTable(t *testing.T, n int) models.TransactionTable {
	t.Helper()
	var rows []models.Transaction
	for i := range n {
		id := fmt.Sprintf("C%03d", i)
		visits := i%7 + 1
		last := baseDate.AddDate(0, 0, -3*i)
		for v := range visits {
			amount := fmt.Sprintf("%d.%02d", 5+i*3+v, (i*7+v)%100)
			rows = append(rows, newTx(t, id, last.AddDate(0, 0, -10*v), amount))
		}
	}
	return newTable(rows...)
}

func customersWithMetrics(recency, frequency []int, monetary []string) []models.CustomerRFM {
	customers := make([]models.CustomerRFM, len(recency))
	for i := range recency {
		customers[i] = models.CustomerRFM{
			CustomerID: fmt.Sprintf("C%03d", i),
			Recency:    recency[i],
			Frequency:  frequency[i],
			Monetary:   decimal.RequireFromString(monetary[i]),
		}
	}
	return customers
}
