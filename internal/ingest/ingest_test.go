package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/rfm"
)

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const cleanedCSV = `InvoiceNo,CustomerID,InvoiceDate,Quantity,UnitPrice,TotalAmount
536365,17850.0,2010-12-01 08:26:00,6,2.55,15.30
536366,17850.0,2010-12-01 08:28:00,6,1.85,11.10
536367,13047.0,2010-12-01 08:34:00,8,2.10,16.80
`

func TestReadCSV_ParsesCleanedExport(t *testing.T) {
	raw, err := ReadCSV(createTempCSV(t, cleanedCSV))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	table, err := Parse(context.Background(), raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !slices.Equal(table.Columns, models.AllColumns()) {
		t.Errorf("Columns = %v, want %v", table.Columns, models.AllColumns())
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}

	first := table.Rows[0]
	if first.CustomerID != "17850" {
		t.Errorf("CustomerID = %q, want 17850", first.CustomerID)
	}
	if want := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC); !first.InvoiceDate.Equal(want) {
		t.Errorf("InvoiceDate = %v, want %v", first.InvoiceDate, want)
	}
	if first.Quantity != 6 || first.UnitPrice.String() != "2.55" || first.TotalAmount.String() != "15.3" {
		t.Errorf("unexpected amounts: %+v", first)
	}
}

func TestDecodeCSV_HeaderOrderAndSubset(t *testing.T) {
	in := "\ufeffTotalAmount, InvoiceDate ,CustomerID\n10,2024-01-02,A\n\n20,2024-01-03,B\n"

	raw, err := DecodeCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeCSV() error = %v", err)
	}
	if raw.Len() != 2 {
		t.Errorf("blank lines should be skipped, got %d records", raw.Len())
	}

	table, err := Parse(context.Background(), raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{models.ColumnCustomerID, models.ColumnInvoiceDate, models.ColumnTotalAmount}
	if !slices.Equal(table.Columns, want) {
		t.Errorf("Columns = %v, want %v", table.Columns, want)
	}
	if table.Rows[1].CustomerID != "B" || table.Rows[1].TotalAmount.String() != "20" {
		t.Errorf("row 1 = %+v", table.Rows[1])
	}
}

func TestDecodeCSV_Empty(t *testing.T) {
	if _, err := DecodeCSV(strings.NewReader("")); err == nil {
		t.Error("DecodeCSV() on empty input should error")
	}
}

func TestReadCSV_MissingFile(t *testing.T) {
	if _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("ReadCSV() on a missing file should error")
	}
}

func TestParse_InvalidValue(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		row    int
		column string
	}{
		{
			name:   "bad date",
			csv:    "CustomerID,InvoiceDate,TotalAmount\nA,2024-01-01,1\nB,yesterday,2\n",
			row:    1,
			column: models.ColumnInvoiceDate,
		},
		{
			name:   "bad amount",
			csv:    "CustomerID,InvoiceDate,TotalAmount\nA,2024-01-01,abc\n",
			row:    0,
			column: models.ColumnTotalAmount,
		},
		{
			name:   "fractional quantity",
			csv:    "CustomerID,InvoiceDate,Quantity,TotalAmount\nA,2024-01-01,1.5,3\n",
			row:    0,
			column: models.ColumnQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := DecodeCSV(strings.NewReader(tt.csv))
			if err != nil {
				t.Fatal(err)
			}

			_, err = Parse(context.Background(), raw)

			var invalid *rfm.InvalidValueError
			if !errors.As(err, &invalid) {
				t.Fatalf("Parse() error = %v, want *rfm.InvalidValueError", err)
			}
			if invalid.Row != tt.row || invalid.Column != tt.column {
				t.Errorf("got row %d column %s, want row %d column %s", invalid.Row, invalid.Column, tt.row, tt.column)
			}
		})
	}
}

func TestParse_FirstBadRowAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("CustomerID,InvoiceDate,TotalAmount\n")
	n := batchSize*2 + 10
	for i := range n {
		date := "2024-01-01"
		if i == batchSize+5 || i == batchSize*2+3 {
			date = "bad"
		}
		b.WriteString("C," + date + ",1\n")
	}

	raw, err := DecodeCSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}

	_, err = Parse(context.Background(), raw)

	var invalid *rfm.InvalidValueError
	if !errors.As(err, &invalid) {
		t.Fatalf("Parse() error = %v", err)
	}
	if invalid.Row != batchSize+5 {
		t.Errorf("Row = %d, want %d", invalid.Row, batchSize+5)
	}
}

func TestParse_Cancelled(t *testing.T) {
	raw, err := DecodeCSV(strings.NewReader(cleanedCSV))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Parse(ctx, raw); !errors.Is(err, context.Canceled) {
		t.Errorf("Parse() error = %v, want context.Canceled", err)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2011, 12, 9, 12, 50, 0, 0, time.UTC)
	for _, in := range []string{"2011-12-09 12:50:00", "2011-12-09T12:50:00Z", "12/9/2011 12:50"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) error = %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseDate(""); err == nil {
		t.Error("ParseDate(\"\") should error")
	}
}

func TestNormalizeCustomerID(t *testing.T) {
	tests := map[string]string{
		"17850.0": "17850",
		"17850":   "17850",
		"A1.0":    "A1.0",
		".0":      ".0",
		"":        "",
	}
	for in, want := range tests {
		if got := NormalizeCustomerID(in); got != want {
			t.Errorf("NormalizeCustomerID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClean(t *testing.T) {
	raw, err := DecodeCSV(strings.NewReader(`InvoiceNo,StockCode,CustomerID,InvoiceDate,Quantity,UnitPrice
536365,85123A,17850,12/1/2010 8:26,6,2.55
536366,71053,,12/1/2010 8:28,6,3.39
C536379,D,14527,12/1/2010 9:41,-1,27.50
536380,22086,14527,not a date,2,2.55
536381,22087,14527,12/1/2010 9:45,2,0
536382,22088,13047,12/1/2010 9:46,3,1.10
`))
	if err != nil {
		t.Fatal(err)
	}

	table, stats, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	want := CleanStats{Input: 6, Kept: 2, MissingCustomer: 1, BadQuantity: 1, BadDate: 1, BadPrice: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if stats.Dropped() != 4 {
		t.Errorf("Dropped() = %d, want 4", stats.Dropped())
	}

	if !slices.Equal(table.Columns, models.AllColumns()) {
		t.Errorf("Columns = %v", table.Columns)
	}
	if got := table.Rows[0].TotalAmount.String(); got != "15.3" {
		t.Errorf("TotalAmount = %s, want 15.3", got)
	}
	if got := table.Rows[1].TotalAmount.String(); got != "3.3" {
		t.Errorf("TotalAmount = %s, want 3.3", got)
	}
}

func TestClean_MissingColumns(t *testing.T) {
	raw := NewRawTable([]string{"CustomerID", "InvoiceDate"}, nil)

	_, _, err := Clean(raw)

	var missing *rfm.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("Clean() error = %v, want *rfm.MissingColumnError", err)
	}
	want := []string{models.ColumnQuantity, models.ColumnUnitPrice}
	if !slices.Equal(missing.Columns, want) {
		t.Errorf("Columns = %v, want %v", missing.Columns, want)
	}
}

func TestClean_ThenAggregate(t *testing.T) {
	raw, err := DecodeCSV(strings.NewReader(`CustomerID,InvoiceDate,Quantity,UnitPrice
1001,2024-01-01,1,10
1001,2024-01-05,2,10
1002,2024-01-03,1,5
`))
	if err != nil {
		t.Fatal(err)
	}

	table, _, err := Clean(raw)
	if err != nil {
		t.Fatal(err)
	}

	customers, _, err := rfm.Aggregate(table)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if customers[0].Monetary.String() != "30" || customers[0].Frequency != 2 {
		t.Errorf("customer 1001 = %+v", customers[0])
	}
	if customers[1].Recency != 2 {
		t.Errorf("customer 1002 recency = %d, want 2", customers[1].Recency)
	}
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn     string
		driver  string
		want    string
		wantErr bool
	}{
		{
			dsn:    "mariadb://app:secret@db:3306/shop",
			driver: "mysql",
			want:   "app:secret@tcp(db:3306)/shop?parseTime=true&loc=UTC&interpolateParams=true",
		},
		{
			dsn:    "mysql://app@db/shop",
			driver: "mysql",
			want:   "app:@tcp(db)/shop?parseTime=true&loc=UTC&interpolateParams=true",
		},
		{
			dsn:    "postgres://app:secret@db:5432/shop?sslmode=disable",
			driver: "postgres",
			want:   "postgres://app:secret@db:5432/shop?sslmode=disable",
		},
		{dsn: "mysql://db/shop", wantErr: true},
		{dsn: "sqlite:///tmp/x.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, dsn, err := driverFor(tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Errorf("driverFor(%q) should error", tt.dsn)
				}
				return
			}
			if err != nil {
				t.Fatalf("driverFor(%q) error = %v", tt.dsn, err)
			}
			if driver != tt.driver || dsn != tt.want {
				t.Errorf("driverFor(%q) = %s %s, want %s %s", tt.dsn, driver, dsn, tt.driver, tt.want)
			}
		})
	}
}

func TestDriverFor_RedactsPassword(t *testing.T) {
	_, _, err := driverFor("oracle://app:secret@db/shop")
	if err == nil || strings.Contains(err.Error(), "secret") {
		t.Errorf("error should not leak the password: %v", err)
	}
}

func TestReadSQL_RejectsTableName(t *testing.T) {
	for _, name := range []string{"orders; DROP TABLE x", "", "a b"} {
		if _, err := ReadSQL(context.Background(), nil, name); err == nil {
			t.Errorf("ReadSQL(%q) should reject the table name", name)
		}
	}
}
