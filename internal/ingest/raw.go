package ingest

import (
	"strings"
)

// RawTable is a transaction export before any field is parsed. Header holds
// the column names as found in the source and each record is aligned with
// it.
type RawTable struct {
	Header  []string
	Records [][]string

	index map[string]int
}

func NewRawTable(header []string, records [][]string) *RawTable {
	t := &RawTable{
		Header:  make([]string, len(header)),
		Records: records,
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		t.Header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

func (t *RawTable) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Field returns the trimmed value of column in record i, or "" when the
// column is absent or the record is short.
func (t *RawTable) Field(i int, column string) string {
	j, ok := t.index[column]
	if !ok || j >= len(t.Records[i]) {
		return ""
	}
	return strings.TrimSpace(t.Records[i][j])
}

// Len is the number of data records.
func (t *RawTable) Len() int {
	return len(t.Records)
}
