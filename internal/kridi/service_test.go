package kridi

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/internal/testdb"
	"github.com/carni-kridi/attar-backend/pkg/db"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

var fixedNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db      *db.Client
	svc     Service
	repo    Repository
	store   models.Store
	other   models.Store
	client  models.Client
	attara  access.Caller
	worker  access.Caller
	foreign access.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testdb.Open(t)
	repo := NewRepository(conn.DB())
	svc, err := NewService(repo, conn, nil)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return fixedNow }

	ownerID := uuid.New()
	store := testdb.Store(t, conn, ownerID, "Épicerie Ahmed")
	other := testdb.Store(t, conn, uuid.New(), "Hanout Sami")
	client := testdb.Client(t, conn, store.ID, "Mohamed Trabelsi", "22123456")

	return &fixture{
		db:      conn,
		svc:     svc,
		repo:    repo,
		store:   store,
		other:   other,
		client:  client,
		attara:  access.Caller{UserID: ownerID, Role: enums.RoleAttara, StoreID: &store.ID},
		worker:  access.Caller{UserID: uuid.New(), Role: enums.RoleWorker, StoreID: &store.ID},
		foreign: access.Caller{UserID: other.OwnerID, Role: enums.RoleAttara, StoreID: &other.ID},
	}
}

func (f *fixture) appendDebt(t *testing.T, amount int64) *EntryDTO {
	t.Helper()
	dto, err := f.svc.Append(context.Background(), f.worker, AppendInput{
		ClientID: f.client.ID,
		Amount:   decimal.NewFromInt(amount),
		Reason:   "pain et lait",
		Type:     enums.EntryTypeDebt,
	})
	require.NoError(t, err)
	return dto
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}

func TestAppendCreatesUnpaidEntryAndTouchesClient(t *testing.T) {
	f := newFixture(t)

	dto := f.appendDebt(t, 50)
	assert.Equal(t, enums.EntryStatusUnpaid, dto.Status)
	assert.True(t, dto.PaidAmount.IsZero())
	assert.True(t, dto.RemainingAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, f.store.ID, dto.StoreID)
	assert.Equal(t, f.worker.UserID, dto.CreatedBy)

	var client models.Client
	require.NoError(t, f.db.DB().First(&client, "id = ?", f.client.ID).Error)
	require.NotNil(t, client.LastTransaction)
	assert.True(t, client.LastTransaction.Equal(fixedNow))
}

func TestAppendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []AppendInput{
		{ClientID: f.client.ID, Amount: decimal.Zero, Reason: "pain", Type: enums.EntryTypeDebt},
		{ClientID: f.client.ID, Amount: decimal.NewFromInt(-5), Reason: "pain", Type: enums.EntryTypeDebt},
		{ClientID: f.client.ID, Amount: decimal.NewFromInt(5), Reason: "ok", Type: enums.EntryTypeDebt},
		{ClientID: f.client.ID, Amount: decimal.NewFromInt(5), Reason: "pain", Type: "credit"},
		{Amount: decimal.NewFromInt(5), Reason: "pain", Type: enums.EntryTypeDebt},
	}
	for _, input := range cases {
		_, err := f.svc.Append(ctx, f.worker, input)
		require.Truef(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v: got %v", input, err)
	}

	var count int64
	require.NoError(t, f.db.DB().Model(&models.KridiEntry{}).Count(&count).Error)
	assert.Zero(t, count, "validation failures must not write")
}

func TestAppendRejectsClientFromOtherStore(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Append(context.Background(), f.foreign, AppendInput{
		ClientID: f.client.ID,
		Amount:   decimal.NewFromInt(10),
		Reason:   "sucre",
		Type:     enums.EntryTypeDebt,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestAppendRequiresLedgerRole(t *testing.T) {
	f := newFixture(t)
	customer := access.Caller{UserID: uuid.New(), Role: enums.RoleClient, StoreID: &f.store.ID}
	_, err := f.svc.Append(context.Background(), customer, AppendInput{
		ClientID: f.client.ID,
		Amount:   decimal.NewFromInt(10),
		Reason:   "sucre",
		Type:     enums.EntryTypeDebt,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestMarkPaymentProgression(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.appendDebt(t, 50)

	partial, err := f.svc.MarkPayment(ctx, f.worker, entry.ID, PaymentInput{PaidAmount: decimal.NewFromInt(30)})
	require.NoError(t, err)
	assert.True(t, partial.PaidAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, partial.RemainingAmount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, enums.EntryStatusPartial, partial.Status)
	assert.Nil(t, partial.PaymentDate)

	paid, err := f.svc.MarkPayment(ctx, f.worker, entry.ID, PaymentInput{PaidAmount: decimal.NewFromInt(20)})
	require.NoError(t, err)
	assert.True(t, paid.PaidAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, paid.RemainingAmount.IsZero())
	assert.Equal(t, enums.EntryStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentDate)
}

func TestMarkPaymentOverRemainingLeavesEntryUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.appendDebt(t, 50)

	_, err := f.svc.MarkPayment(ctx, f.worker, entry.ID, PaymentInput{PaidAmount: decimal.NewFromInt(30)})
	require.NoError(t, err)

	_, err = f.svc.MarkPayment(ctx, f.worker, entry.ID, PaymentInput{PaidAmount: decimal.NewFromInt(21)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	stored, err := f.repo.FindInStore(ctx, f.store.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, stored.RemainingAmount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, enums.EntryStatusPartial, stored.Status)
}

func TestMarkPaymentRejectsPaymentEntriesAndOtherStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payment, err := f.svc.Append(ctx, f.attara, AppendInput{
		ClientID: f.client.ID,
		Amount:   decimal.NewFromInt(20),
		Reason:   "versement",
		Type:     enums.EntryTypePayment,
	})
	require.NoError(t, err)

	_, err = f.svc.MarkPayment(ctx, f.attara, payment.ID, PaymentInput{PaidAmount: decimal.NewFromInt(5)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	debt := f.appendDebt(t, 40)
	_, err = f.svc.MarkPayment(ctx, f.foreign, debt.ID, PaymentInput{PaidAmount: decimal.NewFromInt(5)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.svc.MarkPayment(ctx, f.attara, debt.ID, PaymentInput{PaidAmount: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestUpdateOnlyWhileUnpaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.appendDebt(t, 50)

	newAmount := decimal.NewFromInt(60)
	newReason := "pain, lait et sucre"
	updated, err := f.svc.Update(ctx, f.attara, entry.ID, UpdateInput{Amount: &newAmount, Reason: &newReason})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(newAmount))
	assert.True(t, updated.RemainingAmount.Equal(newAmount))
	assert.Equal(t, newReason, updated.Reason)

	_, err = f.svc.MarkPayment(ctx, f.worker, entry.ID, PaymentInput{PaidAmount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	other := decimal.NewFromInt(5)
	_, err = f.svc.Update(ctx, f.attara, entry.ID, UpdateInput{Amount: &other})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	stored, err := f.repo.FindInStore(ctx, f.store.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(newAmount))

	_, err = f.svc.Update(ctx, f.worker, entry.ID, UpdateInput{Reason: &newReason})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "workers cannot edit entries: %v", err)
}

func TestDeleteOnlyWhileUnpaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unpaid := f.appendDebt(t, 10)
	require.NoError(t, f.svc.Delete(ctx, f.attara, unpaid.ID))
	_, err := f.repo.FindInStore(ctx, f.store.ID, unpaid.ID)
	assert.True(t, db.IsNotFound(err))

	partial := f.appendDebt(t, 10)
	_, err = f.svc.MarkPayment(ctx, f.worker, partial.ID, PaymentInput{PaidAmount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.attara, partial.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	_, err = f.repo.FindInStore(ctx, f.store.ID, partial.ID)
	assert.NoError(t, err, "entry must survive a refused delete")

	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.worker, partial.ID), pkgerrors.CodeForbidden))
	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.attara, uuid.New()), pkgerrors.CodeNotFound))
}

func TestListByClientNewestFirstPaginated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, int64(10+i), 0, fixedNow.Add(time.Duration(i)*time.Hour))
	}

	page, err := f.svc.ListByClient(ctx, f.worker, f.client.ID, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].Amount.Equal(decimal.NewFromInt(14)))
	assert.True(t, page.Items[1].Amount.Equal(decimal.NewFromInt(13)))

	last, err := f.svc.ListByClient(ctx, f.worker, f.client.ID, pagination.Params{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.True(t, last.Items[0].Amount.Equal(decimal.NewFromInt(10)))

	_, err = f.svc.ListByClient(ctx, f.foreign, f.client.ID, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestListByStoreFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := testdb.Client(t, f.db, f.store.ID, "Leila Mansour", "98765432")

	testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, 30, 0, fixedNow.Add(-72*time.Hour))
	testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, 20, 20, fixedNow.Add(-48*time.Hour))
	testdb.Entry(t, f.db, second, enums.EntryTypePayment, 15, 0, fixedNow.Add(-24*time.Hour))
	foreignClient := testdb.Client(t, f.db, f.other.ID, "Autre", "55555555")
	testdb.Entry(t, f.db, foreignClient, enums.EntryTypeDebt, 99, 0, fixedNow)

	all, err := f.svc.ListByStore(ctx, f.attara, StoreFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total, "entries of other stores must not leak")

	debt := enums.EntryTypeDebt
	paid := enums.EntryStatusPaid
	byStatus, err := f.svc.ListByStore(ctx, f.attara, StoreFilter{Type: &debt, Status: &paid})
	require.NoError(t, err)
	require.Len(t, byStatus.Items, 1)
	assert.True(t, byStatus.Items[0].Amount.Equal(decimal.NewFromInt(20)))

	start := fixedNow.Add(-50 * time.Hour)
	end := fixedNow.Add(-20 * time.Hour)
	byDate, err := f.svc.ListByStore(ctx, f.attara, StoreFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byDate.Total)

	_, err = f.svc.ListByStore(ctx, f.attara, StoreFilter{StartDate: &end, EndDate: &start})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRecentDefaultsAndCaps(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, int64(i+1), 0, fixedNow.Add(time.Duration(i)*time.Minute))
	}
	recent, err := f.svc.Recent(context.Background(), f.worker, 0)
	require.NoError(t, err)
	require.Len(t, recent, DefaultRecentLimit)
	assert.True(t, recent[0].Amount.Equal(decimal.NewFromInt(12)))
}

func TestStoreFeedsCarryClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := testdb.Client(t, f.db, f.store.ID, "Leila Mansour", "98765432")
	testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, 30, 0, fixedNow.Add(-2*time.Hour))
	testdb.Entry(t, f.db, second, enums.EntryTypePayment, 10, 0, fixedNow.Add(-time.Hour))
	testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, 5, 0, fixedNow)

	want := map[uuid.UUID]EntryClient{
		f.client.ID: {ID: f.client.ID, Name: "Mohamed Trabelsi", Phone: "22123456"},
		second.ID:   {ID: second.ID, Name: "Leila Mansour", Phone: "98765432"},
	}

	recent, err := f.svc.Recent(ctx, f.worker, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for _, e := range recent {
		require.NotNil(t, e.Client, "entry %s", e.ID)
		assert.Equal(t, want[e.ClientID], *e.Client)
	}

	page, err := f.svc.ListByStore(ctx, f.attara, StoreFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for _, e := range page.Items {
		require.NotNil(t, e.Client, "entry %s", e.ID)
		assert.Equal(t, want[e.ClientID], *e.Client)
	}

	byClient, err := f.svc.ListByClient(ctx, f.worker, f.client.ID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	for _, e := range byClient.Items {
		assert.Nil(t, e.Client)
	}
}

func TestSummaryAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendDebt(t, 50)
	entry := f.appendDebt(t, 30)
	_, err := f.svc.MarkPayment(ctx, f.worker, entry.ID, PaymentInput{PaidAmount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = f.svc.Append(ctx, f.worker, AppendInput{ClientID: f.client.ID, Amount: decimal.NewFromInt(25), Reason: "versement", Type: enums.EntryTypePayment})
	require.NoError(t, err)

	dormant := testdb.Client(t, f.db, f.store.ID, "Client Dormant", "33333333")
	old := fixedNow.Add(-45 * 24 * time.Hour)
	require.NoError(t, f.db.DB().Model(&models.Client{}).Where("id = ?", dormant.ID).Update("last_transaction", old).Error)

	summary, err := f.svc.Summary(ctx, f.attara)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Debt.Count)
	assert.True(t, summary.Debt.Total.Equal(decimal.NewFromInt(80)))
	assert.True(t, summary.Debt.Remaining.Equal(decimal.NewFromInt(70)))
	assert.EqualValues(t, 1, summary.Payment.Count)
	assert.True(t, summary.Payment.Total.Equal(decimal.NewFromInt(25)))
	assert.EqualValues(t, 2, summary.ClientCount)
	assert.EqualValues(t, 1, summary.ActiveClients)
}

func TestSummaryEmptyStore(t *testing.T) {
	f := newFixture(t)
	summary, err := f.svc.Summary(context.Background(), f.foreign)
	require.NoError(t, err)
	assert.Zero(t, summary.ClientCount)
	assert.Zero(t, summary.ActiveClients)
	assert.Zero(t, summary.Debt.Count)
	assert.True(t, summary.Debt.Total.IsZero())
	assert.True(t, summary.Payment.Remaining.IsZero())
}

func TestCalculatorMatchesPureReduction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, 50, 0, fixedNow)
	testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, 40, 15, fixedNow)
	testdb.Entry(t, f.db, f.client, enums.EntryTypeDebt, 10, 10, fixedNow)
	testdb.Entry(t, f.db, f.client, enums.EntryTypePayment, 20, 0, fixedNow)
	empty := testdb.Client(t, f.db, f.store.ID, "Nouveau Client", "44444444")

	calc, err := NewCalculator(f.repo)
	require.NoError(t, err)

	got, err := calc.ClientBalance(ctx, f.store.ID, f.client.ID)
	require.NoError(t, err)
	entries, err := f.repo.ListAllByClient(ctx, f.store.ID, f.client.ID)
	require.NoError(t, err)
	want := ComputeBalance(entries)

	assert.True(t, got.TotalDebt.Equal(decimal.NewFromInt(75)), "debt %s", got.TotalDebt)
	assert.True(t, got.TotalPaid.Equal(decimal.NewFromInt(20)))
	assert.True(t, got.CurrentBalance.Equal(want.CurrentBalance))
	assert.Equal(t, enums.BalanceDue, got.State)

	zero, err := calc.ClientBalance(ctx, f.store.ID, empty.ID)
	require.NoError(t, err)
	assert.True(t, zero.CurrentBalance.IsZero())
	assert.Equal(t, enums.BalanceSettled, zero.State)

	outstanding, err := calc.Outstanding(ctx, f.store.ID, f.client.ID)
	require.NoError(t, err)
	assert.True(t, outstanding.Equal(decimal.NewFromInt(75)), "outstanding %s", outstanding)

	scoped, err := calc.ClientBalance(ctx, f.other.ID, f.client.ID)
	require.NoError(t, err)
	assert.True(t, scoped.TotalDebt.IsZero(), "another store sees no entries")
}

func TestFractionalAmountsAggregateExactly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, amount := range []string{"0.1", "0.2"} {
		_, err := f.svc.Append(ctx, f.worker, AppendInput{
			ClientID: f.client.ID,
			Amount:   decimal.RequireFromString(amount),
			Reason:   "harissa",
			Type:     enums.EntryTypeDebt,
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Append(ctx, f.worker, AppendInput{
		ClientID: f.client.ID,
		Amount:   decimal.RequireFromString("0.07"),
		Reason:   "versement",
		Type:     enums.EntryTypePayment,
	})
	require.NoError(t, err)

	calc, err := NewCalculator(f.repo)
	require.NoError(t, err)
	balance, err := calc.ClientBalance(ctx, f.store.ID, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.3", balance.TotalDebt.String())
	assert.Equal(t, "0.07", balance.TotalPaid.String())
	assert.Equal(t, "0.23", balance.CurrentBalance.String())

	outstanding, err := calc.Outstanding(ctx, f.store.ID, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.3", outstanding.String())

	summary, err := f.svc.Summary(ctx, f.attara)
	require.NoError(t, err)
	assert.Equal(t, "0.3", summary.Debt.Total.String())
	assert.Equal(t, "0.3", summary.Debt.Remaining.String())
}
