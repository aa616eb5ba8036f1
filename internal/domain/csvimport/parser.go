// Package csvimport turns uploaded holdings spreadsheets into snapshot rows.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"arena/internal/domain/holding"
	"arena/internal/shared/apperrors"
	"arena/internal/shared/date"
)

const (
	colTicker   = "ticker"
	colName     = "name"
	colQuantity = "quantity"
	colValue    = "value"
	colAccount  = "account_id"
	colCurrency = "iso_currency_code"
	colAsOfDate = "as_of_date"
)

// requiredColumns are checked in this order; the first one missing is reported.
var requiredColumns = []string{colTicker, colName, colQuantity, colValue}

// header maps lower-cased column names to their index.
type header map[string]int

func (h header) cell(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// Parse reads a holdings CSV for userID. Rows with no as_of_date are dated today.
func Parse(r io.Reader, userID string, today date.Date) ([]holding.Snapshot, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.Validation("file", "file is empty")
	}
	if err != nil {
		return nil, apperrors.Validation("file", fmt.Sprintf("malformed csv: %v", err))
	}

	cols, err := parseHeader(first)
	if err != nil {
		return nil, err
	}

	var rows []holding.Snapshot
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Validation("file", fmt.Sprintf("malformed csv: %v", err))
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		row, err := cols.snapshot(record, userID, today, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, apperrors.Validation("file", "empty csv")
	}
	return rows, nil
}

func parseHeader(record []string) (header, error) {
	cols := make(header, len(record))
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, apperrors.Validation(col, "missing column: "+col)
		}
	}
	return cols, nil
}

func (h header) snapshot(record []string, userID string, today date.Date, line int) (holding.Snapshot, error) {
	row := holding.Snapshot{
		UserID:    userID,
		AccountID: holding.CSVAccount,
		Ticker:    optional(h.cell(record, colTicker)),
		Name:      optional(h.cell(record, colName)),
		Quantity:  decimal.NewNullDecimal(number(h.cell(record, colQuantity))),
		Value:     decimal.NewNullDecimal(number(h.cell(record, colValue))),
		AsOfDate:  today,
	}

	if v := h.cell(record, colAccount); v != "" {
		row.AccountID = v
	}

	currency := holding.DefaultCurrency
	if v := h.cell(record, colCurrency); v != "" {
		currency = strings.ToUpper(v)
	}
	row.CurrencyCode = &currency

	if v := h.cell(record, colAsOfDate); v != "" {
		d, err := date.Parse(v)
		if err != nil {
			return holding.Snapshot{}, apperrors.Validation(colAsOfDate,
				fmt.Sprintf("line %d: invalid as_of_date %q, expected YYYY-MM-DD", line, v))
		}
		row.AsOfDate = d
	}
	return row, nil
}

// number parses a numeric cell, tolerating thousands separators and a leading
// currency symbol. Anything unparseable counts as zero.
func number(s string) decimal.Decimal {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
