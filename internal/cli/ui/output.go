package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"rfm-segmentation/internal/models"
)

var (
	// Color definitions for terminal output
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

func PrintSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func PrintError(w io.Writer, format string, args ...any) {
	errorColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func PrintWarning(w io.Writer, format string, args ...any) {
	warningColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func PrintInfo(w io.Writer, format string, args ...any) {
	infoColor.Fprintf(w, "ℹ %s\n", fmt.Sprintf(format, args...))
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Header
			}
			return Styles.Cell
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// SegmentTable renders customer count, share and revenue per segment.
func SegmentTable(segments []models.SegmentSummary) string {
	rows := make([][]string, 0, len(segments))
	for _, s := range segments {
		rows = append(rows, []string{
			string(s.Segment),
			strconv.Itoa(s.Customers),
			fmt.Sprintf("%.1f%%", s.Share*100),
			s.Revenue.StringFixed(2),
		})
	}
	return renderTable([]string{"Segment", "Customers", "Share", "Revenue"}, rows)
}

func ClusterTable(clusters []models.ClusterSummary) string {
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, []string{
			strconv.Itoa(c.Label),
			strconv.Itoa(c.Customers),
			fmt.Sprintf("%.1f", c.MeanRecency),
			fmt.Sprintf("%.1f", c.MeanFrequency),
			fmt.Sprintf("%.2f", c.MeanMonetary),
		})
	}
	return renderTable([]string{"Cluster", "Customers", "Recency", "Frequency", "Monetary"}, rows)
}

// ElbowTable renders the inertia curve with a bar scaled to the first K.
func ElbowTable(points []models.ElbowPoint) string {
	top := 0.0
	for _, p := range points {
		top = max(top, p.Inertia)
	}

	rows := make([][]string, 0, len(points))
	for _, p := range points {
		width := 0
		if top > 0 {
			width = int(p.Inertia / top * 30)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.K),
			strconv.FormatFloat(p.Inertia, 'f', 2, 64),
			strings.Repeat("█", width),
		})
	}
	return renderTable([]string{"K", "Inertia", ""}, rows)
}

// RunBox summarizes a finished run in a bordered box.
func RunBox(info models.RunInfo) string {
	lines := []string{
		Styles.Bold.Render("Segmentation complete"),
		"run id:         " + info.RunID,
		"reference date: " + info.ReferenceDate.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("transactions:   %d", info.Transactions),
		fmt.Sprintf("customers:      %d", info.Customers),
	}
	if info.ClusterCount > 0 {
		lines = append(lines,
			fmt.Sprintf("clusters:       %d (inertia %.2f, %d iterations)", info.ClusterCount, info.Inertia, info.Iterations),
		)
	}
	lines = append(lines, "duration:       "+info.Duration)
	return Styles.SuccessBox.Render(strings.Join(lines, "\n"))
}
