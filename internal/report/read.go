package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/rfm"
)

// ReadCustomersFile loads a labeled table previously written by
// WriteCustomersCSV.
func ReadCustomersFile(path string) ([]models.CustomerRFM, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ReadCustomersCSV(file)
}

// ReadCustomersCSV parses the labeled output table. Columns are matched by
// name; ClusterLabel may be absent or empty.
func ReadCustomersCSV(r io.Reader) ([]models.CustomerRFM, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	var missing []string
	for _, col := range models.OutputColumns() {
		if _, ok := index[col]; !ok && col != "ClusterLabel" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &rfm.MissingColumnError{Columns: missing}
	}

	var customers []models.CustomerRFM
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		c, err := parseCustomer(row, record, index)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	return customers, nil
}

func parseCustomer(row int, record []string, index map[string]int) (models.CustomerRFM, error) {
	field := func(col string) string {
		if i, ok := index[col]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var c models.CustomerRFM
	c.CustomerID = field("CustomerID")
	c.RFMScore = field("RFM_Score")
	c.Segment = models.Segment(field("Segment"))
	if !c.Segment.Valid() {
		return c, &rfm.InvalidValueError{Row: row, Column: "Segment", Value: string(c.Segment), Reason: "unknown segment"}
	}

	ints := []struct {
		col string
		dst *int
	}{
		{"Recency", &c.Recency},
		{"Frequency", &c.Frequency},
		{"R_score", &c.RScore},
		{"F_score", &c.FScore},
		{"M_score", &c.MScore},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(field(f.col))
		if err != nil {
			return c, &rfm.InvalidValueError{Row: row, Column: f.col, Value: field(f.col), Reason: "not an integer"}
		}
		*f.dst = v
	}

	monetary, err := decimal.NewFromString(field("Monetary"))
	if err != nil {
		return c, &rfm.InvalidValueError{Row: row, Column: "Monetary", Value: field("Monetary"), Reason: "not a number"}
	}
	c.Monetary = monetary

	if v := field("ClusterLabel"); v != "" {
		label, err := strconv.Atoi(v)
		if err != nil {
			return c, &rfm.InvalidValueError{Row: row, Column: "ClusterLabel", Value: v, Reason: "not an integer"}
		}
		c.ClusterLabel = &label
	}

	return c, nil
}
