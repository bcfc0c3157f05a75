package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/internal/clients"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

const sampleCSV = "name,phone,email,address,notes,creditLimit\nSalah,+21655111222,,,,300\n"

func TestClientCreateDecodesCreditLimit(t *testing.T) {
	svc := &stubClientService{}
	body := `{"name":"Salah Trabelsi","phone":"+21655111222","creditLimit":"300.500"}`

	rec := httptest.NewRecorder()
	ClientCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/clients", strings.NewReader(body), workerCaller(), nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.CreditLimit == nil || !svc.created.CreditLimit.Equal(decimal.RequireFromString("300.5")) {
		t.Fatalf("unexpected credit limit %v", svc.created.CreditLimit)
	}
}

func TestClientCreateRejectsBadEmail(t *testing.T) {
	svc := &stubClientService{}
	body := `{"name":"Salah","phone":"+21655111222","email":"not-an-email"}`

	rec := httptest.NewRecorder()
	ClientCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/clients", strings.NewReader(body), workerCaller(), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestClientDeleteWithOutstandingDebt(t *testing.T) {
	svc := &stubClientService{err: pkgerrors.Validation("cannot delete client with outstanding debt")}
	id := uuid.New()

	rec := httptest.NewRecorder()
	ClientDelete(svc, nil).ServeHTTP(rec, newRequest(http.MethodDelete, "/api/clients/"+id.String(), nil, workerCaller(), map[string]string{"id": id.String()}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestClientStatementAttachment(t *testing.T) {
	svc := &stubClientService{}
	id := uuid.New()

	rec := httptest.NewRecorder()
	ClientStatement(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/clients/"+id.String()+"/statement", nil, workerCaller(), map[string]string{"id": id.String()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "statement.pdf") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf body")
	}
}

func TestClientExportCSV(t *testing.T) {
	svc := &stubClientService{}

	rec := httptest.NewRecorder()
	ClientExport(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/clients/export", nil, workerCaller(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != sampleCSV {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestClientExportFailureIsJSON(t *testing.T) {
	svc := &stubClientService{err: pkgerrors.New(pkgerrors.CodeForbidden, "no active store")}

	rec := httptest.NewRecorder()
	ClientExport(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/clients/export", nil, workerCaller(), nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeForbidden) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestClientImportRawBody(t *testing.T) {
	svc := &stubClientService{}
	req := newRequest(http.MethodPost, "/api/clients/import", strings.NewReader(sampleCSV), workerCaller(), nil)
	req.Header.Set("Content-Type", "text/csv")

	rec := httptest.NewRecorder()
	ClientImport(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.imported != sampleCSV {
		t.Fatalf("unexpected import payload %q", svc.imported)
	}

	var report clients.ImportReport
	decodeData(t, rec, &report)
	if report.Created != 1 {
		t.Fatalf("expected 1 created, got %d", report.Created)
	}
}

func TestClientImportMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "clients.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(sampleCSV)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	svc := &stubClientService{}
	req := newRequest(http.MethodPost, "/api/clients/import", &buf, workerCaller(), nil)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	ClientImport(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.imported != sampleCSV {
		t.Fatalf("unexpected import payload %q", svc.imported)
	}
}

func TestClientImportMultipartMissingFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("other", "x"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	_ = mw.Close()

	req := newRequest(http.MethodPost, "/api/clients/import", &buf, workerCaller(), nil)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	ClientImport(&stubClientService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

type stubClientService struct {
	err      error
	created  clients.CreateInput
	imported string
}

func (s *stubClientService) Create(ctx context.Context, caller access.Caller, input clients.CreateInput) (*clients.ClientDTO, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &clients.ClientDTO{ID: uuid.New(), Name: input.Name, Phone: input.Phone, Active: true}, nil
}

func (s *stubClientService) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*clients.DetailDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &clients.DetailDTO{Client: clients.ClientDTO{ID: id}}, nil
}

func (s *stubClientService) List(ctx context.Context, caller access.Caller, query clients.ListQuery) (pagination.Page[clients.ClientDTO], error) {
	return pagination.NewPage[clients.ClientDTO](nil, 0, pagination.Params{Page: query.Page, Limit: query.Limit}), s.err
}

func (s *stubClientService) Update(ctx context.Context, caller access.Caller, id uuid.UUID, input clients.UpdateInput) (*clients.ClientDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &clients.ClientDTO{ID: id}, nil
}

func (s *stubClientService) Delete(ctx context.Context, caller access.Caller, id uuid.UUID) error {
	return s.err
}

func (s *stubClientService) Statement(ctx context.Context, caller access.Caller, id uuid.UUID) (*clients.Statement, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &clients.Statement{Filename: "statement.pdf", Content: []byte("%PDF-1.3 stub")}, nil
}

func (s *stubClientService) Export(ctx context.Context, caller access.Caller, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, sampleCSV)
	return err
}

func (s *stubClientService) Import(ctx context.Context, caller access.Caller, r io.Reader) (*clients.ImportReport, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.imported = string(raw)
	if s.err != nil {
		return nil, s.err
	}
	return &clients.ImportReport{Created: 1, Skipped: []clients.ImportIssue{}, Failed: []clients.ImportIssue{}}, nil
}
