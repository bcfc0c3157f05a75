package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf/v2"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/internal/kridi"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/enums"
)

const statementDateLayout = "02/01/2006"

func (s *service) Statement(ctx context.Context, caller access.Caller, id uuid.UUID) (*Statement, error) {
	storeID, err := access.Scope(caller, access.OpClientStatement)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.FindInStore(ctx, storeID, id)
	if err != nil {
		return nil, mapClientErr(err, "load client")
	}
	store, err := s.repo.FindStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	entries, err := s.ledger.ListAllByClient(ctx, storeID, client.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entries")
	}

	content, err := renderStatement(store, client, entries, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render statement")
	}
	return &Statement{
		Filename: fmt.Sprintf("releve-%s-%s.pdf", slug(client.Name), time.Now().UTC().Format("20060102")),
		Content:  content,
	}, nil
}

func renderStatement(store *models.Store, client *models.Client, entries []models.KridiEntry, generatedAt time.Time) ([]byte, error) {
	currency := store.Settings.Currency
	if currency == "" {
		currency = enums.DefaultCurrency
	}
	balance := kridi.ComputeBalance(entries)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(store.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, tr("Relevé de compte client"), "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, tr("Généré le "+generatedAt.Format(statementDateLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(230, 230, 230)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Client", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, tr("Nom: "+client.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Téléphone: "+client.Phone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr(fmt.Sprintf("Limite de crédit: %s %s", client.CreditLimit.StringFixed(3), currency)), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr(fmt.Sprintf("Solde: %s %s (%s)", balance.CurrentBalance.StringFixed(3), currency, balance.Label)), "RB", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{25, 70, 25, 25, 25, 20}
	headers := []string{"Date", "Motif", "Type", "Montant", "Reste", "Statut"}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, e := range entries {
		remaining := "-"
		if e.Type == enums.EntryTypeDebt {
			remaining = e.RemainingAmount.StringFixed(3)
		}
		row := []string{
			e.CreatedAt.Format(statementDateLayout),
			truncate(e.Reason, 40),
			entryTypeLabel(e.Type),
			e.Amount.StringFixed(3),
			remaining,
			string(e.Status),
		}
		for i, v := range row {
			align := "L"
			if i >= 3 && i <= 4 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 7, tr(fmt.Sprintf("Total dû: %s %s", balance.TotalDebt.StringFixed(3), currency)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr(fmt.Sprintf("Total payé: %s %s", balance.TotalPaid.StringFixed(3), currency)), "1", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func entryTypeLabel(t enums.EntryType) string {
	if t == enums.EntryTypePayment {
		return "Paiement"
	}
	return "Dette"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "client"
	}
	return b.String()
}
