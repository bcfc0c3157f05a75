package clients

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carni-kridi/attar-backend/internal/access"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
)

// MaxImportRows caps a single CSV import.
const MaxImportRows = 1000

var exportHeader = []string{
	"name", "phone", "email", "address", "notes", "creditLimit",
	"totalDebt", "totalPaid", "currentBalance", "lastTransaction",
}

func (s *service) Export(ctx context.Context, caller access.Caller, w io.Writer) error {
	storeID, err := access.Scope(caller, access.OpClientExport)
	if err != nil {
		return err
	}
	rows, err := s.repo.ListAll(ctx, storeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	items, err := s.withBalances(ctx, storeID, rows)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for _, c := range items {
		last := ""
		if c.LastTransaction != nil {
			last = c.LastTransaction.UTC().Format(time.RFC3339)
		}
		record := []string{
			c.Name,
			c.Phone,
			deref(c.Email),
			deref(c.Address),
			deref(c.Notes),
			c.CreditLimit.StringFixed(3),
			c.Balance.TotalDebt.StringFixed(3),
			c.Balance.TotalPaid.StringFixed(3),
			c.Balance.CurrentBalance.StringFixed(3),
			last,
		}
		if err := writer.Write(record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}

// Import creates clients from a CSV with at least name and phone columns.
// Rows whose phone already exists in the store are skipped; invalid rows are
// reported and do not abort the import.
func (s *service) Import(ctx context.Context, caller access.Caller, r io.Reader) (*ImportReport, error) {
	storeID, err := access.Scope(caller, access.OpClientImport)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pkgerrors.Validation("csv file is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid csv")
	}
	cols := indexColumns(header)
	if _, ok := cols["name"]; !ok {
		return nil, pkgerrors.Validation("csv header must include name and phone")
	}
	if _, ok := cols["phone"]; !ok {
		return nil, pkgerrors.Validation("csv header must include name and phone")
	}

	rows, report, err := readImportRows(reader)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, row := range rows {
		input, err := rowToInput(cols, row.record)
		if err != nil {
			report.Failed = append(report.Failed, ImportIssue{Row: row.line, Phone: input.Phone, Reason: err.Error()})
			continue
		}
		if _, dup := seen[input.Phone]; dup {
			report.Skipped = append(report.Skipped, ImportIssue{Row: row.line, Phone: input.Phone, Reason: "duplicate phone in file"})
			continue
		}
		seen[input.Phone] = struct{}{}

		if _, err := s.create(ctx, caller, storeID, input); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				report.Skipped = append(report.Skipped, ImportIssue{Row: row.line, Phone: input.Phone, Reason: "client already exists"})
				continue
			}
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				report.Failed = append(report.Failed, ImportIssue{Row: row.line, Phone: input.Phone, Reason: pkgerrors.As(err).Message()})
				continue
			}
			return nil, err
		}
		report.Created++
	}
	return report, nil
}

type importRow struct {
	line   int
	record []string
}

// readImportRows buffers the whole file before anything is written, so an
// oversized file is refused without creating a single client.
func readImportRows(reader *csv.Reader) ([]importRow, *ImportReport, error) {
	report := &ImportReport{Skipped: []ImportIssue{}, Failed: []ImportIssue{}}
	var rows []importRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, report, nil
		}
		if line > MaxImportRows {
			return nil, nil, pkgerrors.Validation(fmt.Sprintf("csv exceeds %d rows", MaxImportRows))
		}
		if err != nil {
			report.Failed = append(report.Failed, ImportIssue{Row: line, Reason: err.Error()})
			continue
		}
		rows = append(rows, importRow{line: line, record: record})
	}
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if key == "creditlimit" || key == "credit_limit" {
			key = "creditLimit"
		}
		cols[key] = i
	}
	return cols
}

func rowToInput(cols map[string]int, record []string) (CreateInput, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	optional := func(name string) *string {
		if v := field(name); v != "" {
			return &v
		}
		return nil
	}

	input := CreateInput{
		Name:    field("name"),
		Phone:   field("phone"),
		Email:   optional("email"),
		Address: optional("address"),
		Notes:   optional("notes"),
	}
	if input.Name == "" || input.Phone == "" {
		return input, fmt.Errorf("name and phone are required")
	}
	if raw := field("creditLimit"); raw != "" {
		limit, err := decimal.NewFromString(raw)
		if err != nil {
			return input, fmt.Errorf("invalid creditLimit %q", raw)
		}
		input.CreditLimit = &limit
	}
	return input, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

