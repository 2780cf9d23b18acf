package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"rfm-segmentation/internal/models"
)

var now = time.Now

// WriteCustomersCSV writes the labeled customer table with the stable
// output header. ClusterLabel is empty when clustering was skipped.
func WriteCustomersCSV(w io.Writer, customers []models.CustomerRFM) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.OutputColumns()); err != nil {
		return err
	}

	for _, c := range customers {
		label := ""
		if c.ClusterLabel != nil {
			label = strconv.Itoa(*c.ClusterLabel)
		}
		record := []string{
			c.CustomerID,
			strconv.Itoa(c.Recency),
			strconv.Itoa(c.Frequency),
			c.Monetary.String(),
			strconv.Itoa(c.RScore),
			strconv.Itoa(c.FScore),
			strconv.Itoa(c.MScore),
			c.RFMScore,
			string(c.Segment),
			label,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteElbowCSV(w io.Writer, points []models.ElbowPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"K", "Inertia"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{strconv.Itoa(p.K), strconv.FormatFloat(p.Inertia, 'f', 6, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportJSON(filename string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}

	return file.Close()
}

func TimestampedFilename(baseDir, name string) string {
	t := now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, t))
}

// writeFile creates path and hands the open file to write.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}
