// Package csv turns uploaded recipient lists into typed, classified records.
// Structural problems (missing headers, oversize input, too many rows) abort
// the whole batch; per-row problems exclude the row and keep going.
package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"satpay/internal/batch/config"
	"satpay/internal/batch/models"
	dErrors "satpay/pkg/domain-errors"
)

const satsPerBTC = 100_000_000

// Parser parses recipient CSVs under the limits carried by its config.
type Parser struct {
	cfg config.Config
}

func NewParser(cfg config.Config) *Parser {
	return &Parser{cfg: cfg}
}

// Parse reads the raw CSV text and returns accepted records plus row-level
// errors. Fatal conditions return an error and no partial result.
func (p *Parser) Parse(raw string) (*models.ParseResult, error) {
	if int64(len(raw)) > p.cfg.MaxFileBytes {
		return nil, dErrors.Newf(dErrors.CodeValidation, "file exceeds %d bytes", p.cfg.MaxFileBytes)
	}

	raw = repairUTF7(raw)

	r := stdcsv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "could not read header row")
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &models.ParseResult{}
	rowNum := 1 // header is row 1; data rows start at 2
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, models.ParseError{
				RowNumber: rowNum,
				Message:   fmt.Sprintf("malformed row: %v", err),
			})
			continue
		}
		if isBlank(row) {
			continue
		}
		if len(result.Records)+len(result.Errors) >= p.cfg.MaxRows {
			return nil, dErrors.Newf(dErrors.CodeValidation, "batch exceeds %d rows", p.cfg.MaxRows)
		}

		rec, rowErr := p.parseRow(rowNum, row, cols)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Records = append(result.Records, *rec)
	}

	result.Summary = summarize(result.Records)
	return result, nil
}

type columns struct {
	recipient int
	amount    int
	currency  int // -1 when absent
	memo      int // -1 when absent
}

func mapHeader(header []string) (columns, error) {
	cols := columns{recipient: -1, amount: -1, currency: -1, memo: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "recipient":
			cols.recipient = i
		case "amount":
			cols.amount = i
		case "currency":
			cols.currency = i
		case "memo":
			cols.memo = i
		}
	}
	if cols.recipient == -1 || cols.amount == -1 {
		return cols, dErrors.New(dErrors.CodeValidation, `header must contain "recipient" and "amount" columns`)
	}
	return cols, nil
}

func (p *Parser) parseRow(rowNum int, row []string, cols columns) (*models.ParsedRecipient, *models.ParseError) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	original := field(cols.recipient)
	if original == "" {
		return nil, &models.ParseError{RowNumber: rowNum, Message: "missing recipient"}
	}

	amountField := field(cols.amount)
	if amountField == "" {
		return nil, &models.ParseError{RowNumber: rowNum, Message: "missing amount"}
	}
	amount, err := strconv.ParseFloat(amountField, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, &models.ParseError{RowNumber: rowNum, Message: fmt.Sprintf("invalid amount %q", amountField)}
	}

	currency := models.CurrencySats
	if c := field(cols.currency); c != "" {
		currency = models.Currency(strings.ToUpper(c))
		if !currency.IsValid() {
			return nil, &models.ParseError{RowNumber: rowNum, Message: fmt.Sprintf("unsupported currency %q", c)}
		}
	}

	kind, identifier := Classify(original)
	rec := &models.ParsedRecipient{
		RowNumber:       rowNum,
		Original:        original,
		Kind:            kind,
		Identifier:      identifier,
		RequestedAmount: amount,
		Currency:        currency,
		Memo:            field(cols.memo),
	}

	switch currency {
	case models.CurrencySats:
		sats := int64(math.Round(amount))
		rec.AmountSats = &sats
	case models.CurrencyBTC:
		sats := int64(math.Round(amount * satsPerBTC))
		rec.AmountSats = &sats
	case models.CurrencyUSD:
		// Left nil; resolved against a live rate before fee estimation.
	}

	return rec, nil
}

func summarize(records []models.ParsedRecipient) models.ParseSummary {
	var s models.ParseSummary
	s.Total = len(records)
	for _, r := range records {
		switch r.Kind {
		case models.KindIntraLedger:
			s.IntraLedger++
		case models.KindLightningAddress:
			s.LightningAddress++
		case models.KindLNURL:
			s.LNURL++
		}
		if r.AmountSats == nil {
			s.PendingConversion++
		}
	}
	return s
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// repairUTF7 undoes the UTF-7 mis-encoding of "@" and "_" that some
// spreadsheet exports emit.
func repairUTF7(s string) string {
	s = strings.ReplaceAll(s, "+AEA-", "@")
	s = strings.ReplaceAll(s, "+AF8-", "_")
	return s
}
