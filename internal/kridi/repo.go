package kridi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

// Repository persists ledger entries. Every lookup is filtered by store.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.KridiEntry) error
	Save(ctx context.Context, entry *models.KridiEntry) error
	Delete(ctx context.Context, storeID, id uuid.UUID) error
	FindInStore(ctx context.Context, storeID, id uuid.UUID) (*models.KridiEntry, error)
	FindForUpdate(ctx context.Context, storeID, id uuid.UUID) (*models.KridiEntry, error)
	ListByClient(ctx context.Context, storeID, clientID uuid.UUID, params pagination.Params) ([]models.KridiEntry, int64, error)
	ListAllByClient(ctx context.Context, storeID, clientID uuid.UUID) ([]models.KridiEntry, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filter StoreFilter) ([]models.KridiEntry, int64, error)
	Recent(ctx context.Context, storeID uuid.UUID, limit int) ([]models.KridiEntry, error)
	ClientTotals(ctx context.Context, storeID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]ClientTotals, error)
	OutstandingDebt(ctx context.Context, storeID, clientID uuid.UUID) (decimal.Decimal, error)
	TypeTotals(ctx context.Context, storeID uuid.UUID) (map[enums.EntryType]TypeTotals, error)

	FindClient(ctx context.Context, storeID, clientID uuid.UUID) (*models.Client, error)
	ClientsByID(ctx context.Context, storeID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]models.Client, error)
	TouchClient(ctx context.Context, clientID uuid.UUID, at time.Time) error
	CountClients(ctx context.Context, storeID uuid.UUID, activeSince *time.Time) (int64, error)
}

// ClientTotals holds the two balance aggregates for one client.
type ClientTotals struct {
	TotalDebt decimal.Decimal
	TotalPaid decimal.Decimal
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.KridiEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) Save(ctx context.Context, entry *models.KridiEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *repository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		Delete(&models.KridiEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindInStore(ctx context.Context, storeID, id uuid.UUID) (*models.KridiEntry, error) {
	var entry models.KridiEntry
	if err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindForUpdate locks the row on postgres. sqlite drops the locking clause.
func (r *repository) FindForUpdate(ctx context.Context, storeID, id uuid.UUID) (*models.KridiEntry, error) {
	var entry models.KridiEntry
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("created_at DESC").Order("id DESC")
}

func (r *repository) ListByClient(ctx context.Context, storeID, clientID uuid.UUID, params pagination.Params) ([]models.KridiEntry, int64, error) {
	params = params.Normalize()
	base := r.db.WithContext(ctx).Model(&models.KridiEntry{}).
		Where("store_id = ? AND client_id = ?", storeID, clientID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.KridiEntry
	if err := newestFirst(base.Session(&gorm.Session{})).
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *repository) ListAllByClient(ctx context.Context, storeID, clientID uuid.UUID) ([]models.KridiEntry, error) {
	var entries []models.KridiEntry
	if err := newestFirst(r.db.WithContext(ctx).
		Where("store_id = ? AND client_id = ?", storeID, clientID)).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID, filter StoreFilter) ([]models.KridiEntry, int64, error) {
	params := filter.Page.Normalize()
	base := r.db.WithContext(ctx).Model(&models.KridiEntry{}).Where("store_id = ?", storeID)
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.StartDate != nil {
		base = base.Where("created_at >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		base = base.Where("created_at <= ?", filter.EndDate.UTC())
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.KridiEntry
	if err := newestFirst(base.Session(&gorm.Session{})).
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *repository) Recent(ctx context.Context, storeID uuid.UUID, limit int) ([]models.KridiEntry, error) {
	var entries []models.KridiEntry
	if err := newestFirst(r.db.WithContext(ctx).Where("store_id = ?", storeID)).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// amountScale matches numeric(12,3). SQLite stores those columns as REAL,
// so its SUMs carry float noise that rounding removes.
const amountScale = 3

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(amountScale)
}

type clientTotalsRow struct {
	ClientID  uuid.UUID
	TotalDebt decimal.Decimal
	TotalPaid decimal.Decimal
}

// ClientTotals aggregates the live balance inputs for each client id.
// Clients without entries are absent from the result.
func (r *repository) ClientTotals(ctx context.Context, storeID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]ClientTotals, error) {
	out := make(map[uuid.UUID]ClientTotals, len(clientIDs))
	if len(clientIDs) == 0 {
		return out, nil
	}

	var rows []clientTotalsRow
	if err := r.db.WithContext(ctx).
		Model(&models.KridiEntry{}).
		Select(
			"client_id, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN remaining_amount ELSE 0 END), 0) AS total_debt, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS total_paid",
			enums.EntryTypeDebt, enums.EntryTypePayment,
		).
		Where("store_id = ? AND client_id IN ?", storeID, clientIDs).
		Group("client_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ClientID] = ClientTotals{TotalDebt: money(row.TotalDebt), TotalPaid: money(row.TotalPaid)}
	}
	return out, nil
}

// OutstandingDebt sums remaining amounts of debt entries not yet paid.
func (r *repository) OutstandingDebt(ctx context.Context, storeID, clientID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Outstanding decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.KridiEntry{}).
		Select("COALESCE(SUM(remaining_amount), 0) AS outstanding").
		Where("store_id = ? AND client_id = ? AND type = ? AND status <> ?",
			storeID, clientID, enums.EntryTypeDebt, enums.EntryStatusPaid).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return money(row.Outstanding), nil
}

type typeTotalsRow struct {
	Type      enums.EntryType
	Total     decimal.Decimal
	Remaining decimal.Decimal
	Count     int64
}

func (r *repository) TypeTotals(ctx context.Context, storeID uuid.UUID) (map[enums.EntryType]TypeTotals, error) {
	var rows []typeTotalsRow
	if err := r.db.WithContext(ctx).
		Model(&models.KridiEntry{}).
		Select("type, COALESCE(SUM(amount), 0) AS total, COALESCE(SUM(remaining_amount), 0) AS remaining, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[enums.EntryType]TypeTotals, len(rows))
	for _, row := range rows {
		out[row.Type] = TypeTotals{Total: money(row.Total), Remaining: money(row.Remaining), Count: row.Count}
	}
	return out, nil
}

func (r *repository) FindClient(ctx context.Context, storeID, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", clientID, storeID).
		First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// ClientsByID loads id, name and phone of the store's clients in one query.
func (r *repository) ClientsByID(ctx context.Context, storeID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]models.Client, error) {
	out := make(map[uuid.UUID]models.Client, len(clientIDs))
	if len(clientIDs) == 0 {
		return out, nil
	}
	var clients []models.Client
	if err := r.db.WithContext(ctx).
		Select("id", "name", "phone").
		Where("store_id = ? AND id IN ?", storeID, clientIDs).
		Find(&clients).Error; err != nil {
		return nil, err
	}
	for _, c := range clients {
		out[c.ID] = c
	}
	return out, nil
}

func (r *repository) TouchClient(ctx context.Context, clientID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", clientID).
		Update("last_transaction", at.UTC()).Error
}

func (r *repository) CountClients(ctx context.Context, storeID uuid.UUID, activeSince *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Client{}).Where("store_id = ?", storeID)
	if activeSince != nil {
		q = q.Where("last_transaction >= ?", activeSince.UTC())
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
