package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

// Repository manages client rows, always filtered by store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *Repository) Save(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *Repository) FindInStore(ctx context.Context, storeID, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// PhoneTaken reports whether another client of the store already uses phone.
func (r *Repository) PhoneTaken(ctx context.Context, storeID uuid.UUID, phone string, exclude *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Client{}).
		Where("store_id = ? AND phone = ?", storeID, phone)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List searches name or phone case-insensitively. Clients with the most
// recent activity come first, then by name.
func (r *Repository) List(ctx context.Context, storeID uuid.UUID, search string, params pagination.Params) ([]models.Client, int64, error) {
	params = params.Normalize()
	base := r.db.WithContext(ctx).Model(&models.Client{}).Where("store_id = ?", storeID)
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		base = base.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR phone LIKE ? ESCAPE '\\')", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clients []models.Client
	if err := base.Session(&gorm.Session{}).
		Order("last_transaction IS NULL").
		Order("last_transaction DESC").
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

// ListAll returns every client of the store ordered by name.
func (r *Repository) ListAll(ctx context.Context, storeID uuid.UUID) ([]models.Client, error) {
	var clients []models.Client
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("name ASC").
		Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// Delete removes the client and its ledger lines.
func (r *Repository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND store_id = ?", id, storeID).
		Delete(&models.KridiEntry{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		Delete(&models.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_").Replace(s)
}
