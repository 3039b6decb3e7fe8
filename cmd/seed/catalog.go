package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spsports/sps-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

// catalog columns, matched case-insensitively against the header row
const (
	colName        = "name"
	colCategory    = "category"
	colDescription = "description"
	colPrice       = "price"
	colColor       = "color"
	colRating      = "rating"
	colImages      = "images"
)

type importReport struct {
	Products []service.ProductInput
	Skipped  []string // "row N: reason"
}

// readCatalog parses the first sheet of an XLSX catalog. Rows that cannot
// become a product are reported and skipped.
func readCatalog(r io.Reader) (*importReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{colName, colCategory, colPrice} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	report := &importReport{}
	for i, row := range rows[1:] {
		line := i + 2
		if len(strings.Join(row, "")) == 0 {
			continue
		}

		input := service.ProductInput{
			Name:        cell(row, colName),
			Category:    cell(row, colCategory),
			Description: cell(row, colDescription),
			Color:       cell(row, colColor),
			Images:      splitImages(cell(row, colImages)),
		}
		if input.Name == "" || input.Category == "" {
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: name and category are required", line))
			continue
		}

		price, err := strconv.ParseFloat(cell(row, colPrice), 64)
		if err != nil || price <= 0 {
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: invalid price %q", line, cell(row, colPrice)))
			continue
		}
		input.Price = price

		if raw := cell(row, colRating); raw != "" {
			rating, err := strconv.ParseFloat(raw, 64)
			if err != nil || rating < 0 || rating > 5 {
				report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: invalid rating %q", line, raw))
				continue
			}
			input.Rating = rating
		}

		report.Products = append(report.Products, input)
	}

	return report, nil
}

func splitImages(s string) []string {
	images := []string{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			images = append(images, part)
		}
	}
	return images
}
