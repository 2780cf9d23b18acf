package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadCSV reads a comma-separated transaction export. Columns are mapped
// by header name, so their order does not matter.
func ReadCSV(path string) (*RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return DecodeCSV(file)
}

func DecodeCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if isBlank(record) {
			continue
		}
		records = append(records, record)
	}

	return NewRawTable(header, records), nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if f != "" {
			return false
		}
	}
	return true
}
