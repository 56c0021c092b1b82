// Package export renders stored trades back out as CSV or XLSX downloads.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// csvRow is the flat projection gocsv marshals. Decimals render as plain
// strings so the file round-trips through the importer without precision loss.
type csvRow struct {
	Symbol     string `csv:"Ticker"`
	AssetType  string `csv:"Asset Type"`
	Side       string `csv:"Action"`
	Quantity   string `csv:"Quantity"`
	Price      string `csv:"Price"`
	Fee        string `csv:"Fee"`
	Currency   string `csv:"Currency"`
	ExecutedAt string `csv:"Date"`
	Source     string `csv:"Source"`
}

const dateLayout = "2006-01-02 15:04:05"

func toRow(t trades.Trade) csvRow {
	return csvRow{
		Symbol:     t.Symbol,
		AssetType:  string(t.AssetType),
		Side:       string(t.Side),
		Quantity:   t.Quantity.String(),
		Price:      t.Price.String(),
		Fee:        t.Fee.String(),
		Currency:   t.Currency,
		ExecutedAt: t.ExecutedAt.Format(dateLayout),
		Source:     t.Source,
	}
}

// WriteCSV streams the trades as a CSV document.
func WriteCSV(w io.Writer, batch []trades.Trade) error {
	rows := make([]csvRow, 0, len(batch))
	for _, t := range batch {
		rows = append(rows, toRow(t))
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the trades to a single-sheet workbook.
func WriteXLSX(w io.Writer, batch []trades.Trade) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Trades"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Ticker", "Asset Type", "Action", "Quantity", "Price", "Fee", "Currency", "Date", "Source"}
	for col, h := range headers {
		cell, cellErr := excelize.CoordinatesToCellName(col+1, 1)
		if cellErr != nil {
			return fmt.Errorf("failed to compute cell name: %w", cellErr)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, t := range batch {
		row := toRow(t)
		values := []any{row.Symbol, row.AssetType, row.Side, row.Quantity, row.Price, row.Fee, row.Currency, row.ExecutedAt, row.Source}
		for col, v := range values {
			cell, cellErr := excelize.CoordinatesToCellName(col+1, i+2)
			if cellErr != nil {
				return fmt.Errorf("failed to compute cell name: %w", cellErr)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
