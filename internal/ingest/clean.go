package ingest

import (
	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/rfm"
)

// CleanStats counts the rows a cleaning pass kept and why the others were
// dropped. A row is counted under the first rule it fails.
type CleanStats struct {
	Input           int `json:"input"`
	Kept            int `json:"kept"`
	MissingCustomer int `json:"missing_customer"`
	BadQuantity     int `json:"bad_quantity"`
	BadDate         int `json:"bad_date"`
	BadPrice        int `json:"bad_price"`
}

func (s CleanStats) Dropped() int {
	return s.Input - s.Kept
}

var cleanColumns = []string{
	models.ColumnCustomerID,
	models.ColumnInvoiceDate,
	models.ColumnQuantity,
	models.ColumnUnitPrice,
}

// Clean turns a raw retail export into a transaction table. Rows without a
// customer, with a non-positive or unreadable quantity or price, or with an
// unreadable date are dropped rather than reported. TotalAmount is always
// recomputed as Quantity times UnitPrice.
func Clean(raw *RawTable) (models.TransactionTable, CleanStats, error) {
	stats := CleanStats{Input: raw.Len()}

	var missing []string
	for _, col := range cleanColumns {
		if !raw.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return models.TransactionTable{}, stats, &rfm.MissingColumnError{Columns: missing}
	}

	table := models.TransactionTable{Columns: models.AllColumns()}
	if !raw.Has(models.ColumnInvoiceNo) {
		table.Columns = table.Columns[1:]
	}

	for i := range raw.Len() {
		customer := NormalizeCustomerID(raw.Field(i, models.ColumnCustomerID))
		if customer == "" {
			stats.MissingCustomer++
			continue
		}

		qty, err := ParseQuantity(raw.Field(i, models.ColumnQuantity))
		if err != nil || qty <= 0 {
			stats.BadQuantity++
			continue
		}

		date, err := ParseDate(raw.Field(i, models.ColumnInvoiceDate))
		if err != nil {
			stats.BadDate++
			continue
		}

		price, err := decimal.NewFromString(raw.Field(i, models.ColumnUnitPrice))
		if err != nil || !price.IsPositive() {
			stats.BadPrice++
			continue
		}

		table.Rows = append(table.Rows, models.Transaction{
			InvoiceNo:   raw.Field(i, models.ColumnInvoiceNo),
			CustomerID:  customer,
			InvoiceDate: date,
			Quantity:    qty,
			UnitPrice:   price,
			TotalAmount: price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	stats.Kept = len(table.Rows)
	return table, stats, nil
}
