package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

type TableFormatter struct {
	minWidth int
	maxWidth int
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{minWidth: 4, maxWidth: 60}
}

func (f *TableFormatter) Format(w io.Writer, report Report) error {
	widths := f.calculateColumnWidths(report)

	var b strings.Builder
	f.printBorder(&b, widths, "top")
	f.printRow(&b, report.Headers, widths, nil)
	f.printBorder(&b, widths, "middle")
	for _, row := range report.Rows {
		f.printRow(&b, row, widths, report.RightAlign)
	}
	f.printBorder(&b, widths, "bottom")

	_, err := io.WriteString(w, b.String())
	return err
}

// calculateColumnWidths sizes each column to its widest cell, clamped
func (f *TableFormatter) calculateColumnWidths(report Report) []int {
	widths := make([]int, len(report.Headers))
	for i, h := range report.Headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range report.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for i := range widths {
		if widths[i] < f.minWidth {
			widths[i] = f.minWidth
		}
		if widths[i] > f.maxWidth {
			widths[i] = f.maxWidth
		}
	}
	return widths
}

func (f *TableFormatter) printBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
}

func (f *TableFormatter) printRow(b *strings.Builder, values []string, widths []int, rightAlign map[int]bool) {
	b.WriteString("│")
	for i, width := range widths {
		value := ""
		if i < len(values) {
			value = runewidth.Truncate(values[i], width, "…")
		}
		if rightAlign[i] {
			value = runewidth.FillLeft(value, width)
		} else {
			value = runewidth.FillRight(value, width)
		}
		fmt.Fprintf(b, " %s │", value)
	}
	b.WriteString("\n")
}
