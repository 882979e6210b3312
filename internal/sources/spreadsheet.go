package sources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Bessima/fieldops/internal/models"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoOrderColumn = errors.New("order number column not found")
	ErrTooManyRows   = errors.New("spreadsheet has too many rows")
)

// maxSpreadsheetRows ограничивает размер одной загрузки.
var maxSpreadsheetRows = 100000

type column int

const (
	orderNoColumn column = iota
	statusColumn
	serviceDateColumn
	completedAtColumn
	addressColumn
	technicianColumn
	notesColumn
)

var headerAliases = map[string]column{
	"order no":        orderNoColumn,
	"order no.":       orderNoColumn,
	"order number":    orderNoColumn,
	"order #":         orderNoColumn,
	"orderno":         orderNoColumn,
	"work order":      orderNoColumn,
	"status":          statusColumn,
	"date":            serviceDateColumn,
	"service date":    serviceDateColumn,
	"scheduled date":  serviceDateColumn,
	"completed at":    completedAtColumn,
	"completion time": completedAtColumn,
	"end time":        completedAtColumn,
	"address":         addressColumn,
	"location":        addressColumn,
	"technician":      technicianColumn,
	"tech":            technicianColumn,
	"driver":          technicianColumn,
	"notes":           notesColumn,
	"comments":        notesColumn,
}

var cellDateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"01/02/2006 15:04:05",
	"1/2/06",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006/01/02",
}

// ReadSpreadsheet parses the first worksheet of an xls/xlsx upload into raw
// orders. The header row is the first row that names an order number column.
func ReadSpreadsheet(reader io.Reader, filename string) ([]models.RawOrder, error) {
	rows, err := readRowsFromSpreadsheet(reader, filename)
	if err != nil {
		return nil, err
	}

	headerIdx, columns := findHeader(rows)
	if headerIdx < 0 {
		return nil, ErrNoOrderColumn
	}

	orders := make([]models.RawOrder, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		orders = append(orders, models.RawOrder{
			Source: models.SpreadsheetSource,
			Doc:    rowDocument(row, columns, i+1),
		})
	}
	return orders, nil
}

func readRowsFromSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		// на один больше лимита, чтобы отличить обрезку от ровно maxSpreadsheetRows строк
		rows := workbook.ReadAllCells(maxSpreadsheetRows + 1)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, checkRowLimit(len(rows))
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}

		rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, checkRowLimit(len(rows))
	}
}

func checkRowLimit(rows int) error {
	if rows > maxSpreadsheetRows {
		return fmt.Errorf("%w: more than %d", ErrTooManyRows, maxSpreadsheetRows)
	}
	return nil
}

func findHeader(rows [][]string) (int, map[column]int) {
	for idx, row := range rows {
		columns := make(map[column]int)
		for cellIdx, cell := range row {
			col, ok := headerAliases[normalizeHeader(cell)]
			if !ok {
				continue
			}
			if _, taken := columns[col]; !taken {
				columns[col] = cellIdx
			}
		}
		if _, ok := columns[orderNoColumn]; ok {
			return idx, columns
		}
	}
	return -1, nil
}

func rowDocument(row []string, columns map[column]int, rowNumber int) map[string]any {
	value := func(col column) string {
		idx, ok := columns[col]
		if !ok {
			return ""
		}
		return cellValue(row, idx)
	}

	doc := map[string]any{
		"orderNo":   value(orderNoColumn),
		"extracted": map[string]any{"row": rowNumber},
	}
	setIfPresent(doc, "status", value(statusColumn))
	setIfPresent(doc, "timestamp", normalizeDateCell(value(serviceDateColumn)))
	setIfPresent(doc, "address", value(addressColumn))
	setIfPresent(doc, "technician", value(technicianColumn))
	setIfPresent(doc, "notes", value(notesColumn))

	if completedAt := normalizeDateCell(value(completedAtColumn)); completedAt != "" {
		doc["completionDetails"] = map[string]any{"endTimeLocal": completedAt}
	}
	return doc
}

// normalizeDateCell приводит серийные даты Excel и распространённые форматы
// к ISO. Нераспознанное значение возвращается как есть.
func normalizeDateCell(value string) string {
	if value == "" {
		return ""
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial > 0 && serial < 100000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed.Format("2006-01-02T15:04:05")
			}
		}
		return value
	}
	for _, layout := range cellDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02T15:04:05")
		}
	}
	return value
}

func setIfPresent(doc map[string]any, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
