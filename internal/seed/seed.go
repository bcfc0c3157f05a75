// Package seed loads a demo grocery store into an empty database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/pkg/config"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	"github.com/carni-kridi/attar-backend/pkg/logger"
	"github.com/carni-kridi/attar-backend/pkg/security"
)

const (
	OwnerEmail  = "ahmed@example.com"
	WorkerEmail = "fatima@example.com"
	AdminEmail  = "admin@carni-kridi.tn"
)

// Config controls the demo credentials.
type Config struct {
	Password      string
	AdminPassword string
	Argon         config.PasswordConfig
}

func DefaultConfig() Config {
	return Config{
		Password:      "123456",
		AdminPassword: "admin123",
		Argon: config.PasswordConfig{
			ArgonMemoryKB:    64 * 1024,
			ArgonTime:        3,
			ArgonParallelism: 2,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}
}

// Report describes what Run created.
type Report struct {
	Skipped bool
	StoreID uuid.UUID
	Users   int
	Clients int
	Entries int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type demoClient struct {
	name        string
	phone       string
	email       string
	creditLimit int64
}

type demoEntry struct {
	client int
	amount string
	reason string
	typ    enums.EntryType
	worker bool
	age    time.Duration
}

var demoClients = []demoClient{
	{name: "Mohamed Trabelsi", phone: "+21625111111", email: "mohamed@example.com", creditLimit: 500},
	{name: "Aisha Mansouri", phone: "+21625222222", email: "aisha@example.com", creditLimit: 300},
	{name: "Youssef Benhamed", phone: "+21625333333", email: "youssef@example.com", creditLimit: 800},
}

var demoEntries = []demoEntry{
	{client: 0, amount: "50", reason: "Produits alimentaires", typ: enums.EntryTypeDebt, age: 72 * time.Hour},
	{client: 0, amount: "20", reason: "Paiement partiel", typ: enums.EntryTypePayment, age: 48 * time.Hour},
	{client: 1, amount: "75", reason: "Courses de la semaine", typ: enums.EntryTypeDebt, worker: true, age: 36 * time.Hour},
	{client: 2, amount: "120", reason: "Produits divers", typ: enums.EntryTypeDebt, age: 24 * time.Hour},
	{client: 2, amount: "50", reason: "Paiement", typ: enums.EntryTypePayment, age: 2 * time.Hour},
}

// Run inserts the demo store, its staff, clients and ledger entries in one
// transaction. It is a no-op when the demo owner already exists.
func Run(ctx context.Context, tx txRunner, cfg Config, logg *logger.Logger) (Report, error) {
	var report Report
	if tx == nil {
		return report, fmt.Errorf("transaction runner required")
	}
	if len(cfg.Password) < 6 || len(cfg.AdminPassword) < 6 {
		return report, fmt.Errorf("demo passwords must be at least 6 characters")
	}

	err := tx.WithTx(ctx, func(db *gorm.DB) error {
		db = db.WithContext(ctx)

		var existing models.User
		err := db.Where("email = ?", OwnerEmail).First(&existing).Error
		switch {
		case err == nil:
			report.Skipped = true
			if existing.StoreID != nil {
				report.StoreID = *existing.StoreID
			}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("lookup demo owner: %w", err)
		}

		hash, err := security.HashPassword(cfg.Password, cfg.Argon)
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		adminHash, err := security.HashPassword(cfg.AdminPassword, cfg.Argon)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}

		owner := newUser("Ahmed Ben Salem", OwnerEmail, "+21628123456", hash, enums.RoleAttara)
		if err := db.Create(&owner).Error; err != nil {
			return fmt.Errorf("create owner: %w", err)
		}

		store := models.Store{
			Name:    "Épicerie Ahmed",
			Address: "123 Rue de la République, Tunis",
			Phone:   "+21628123456",
			OwnerID: owner.ID,
			Active:  true,
			Settings: models.StoreSettings{
				Currency:       enums.DefaultCurrency,
				Language:       enums.LanguageArabic,
				MaxCreditLimit: decimal.NewFromInt(1000),
			},
		}
		if err := db.Create(&store).Error; err != nil {
			return fmt.Errorf("create store: %w", err)
		}
		if err := db.Model(&owner).Update("store_id", store.ID).Error; err != nil {
			return fmt.Errorf("bind owner store: %w", err)
		}

		worker := newUser("Fatima Khelil", WorkerEmail, "+21629123456", hash, enums.RoleWorker)
		worker.StoreID = &store.ID
		admin := newUser("Administrateur", AdminEmail, "+21620000000", adminHash, enums.RoleAdmin)
		if err := db.Create(&[]*models.User{&worker, &admin}).Error; err != nil {
			return fmt.Errorf("create staff: %w", err)
		}

		now := time.Now().UTC()
		clients := make([]models.Client, 0, len(demoClients))
		for _, dc := range demoClients {
			email := dc.email
			clients = append(clients, models.Client{
				StoreID:     store.ID,
				Name:        dc.name,
				Phone:       dc.phone,
				Email:       &email,
				CreditLimit: decimal.NewFromInt(dc.creditLimit),
				Active:      true,
				CreatedBy:   &owner.ID,
			})
		}
		if err := db.Create(&clients).Error; err != nil {
			return fmt.Errorf("create clients: %w", err)
		}

		entries := make([]models.KridiEntry, 0, len(demoEntries))
		for _, de := range demoEntries {
			author := owner.ID
			if de.worker {
				author = worker.ID
			}
			createdAt := now.Add(-de.age)
			entries = append(entries, models.KridiEntry{
				ClientID:   clients[de.client].ID,
				StoreID:    store.ID,
				Amount:     decimal.RequireFromString(de.amount),
				PaidAmount: decimal.Zero,
				Reason:     de.reason,
				Type:       de.typ,
				CreatedBy:  author,
				CreatedAt:  createdAt,
			})
			last := createdAt
			clients[de.client].LastTransaction = &last
		}
		if err := db.Create(&entries).Error; err != nil {
			return fmt.Errorf("create entries: %w", err)
		}
		for i := range clients {
			if clients[i].LastTransaction == nil {
				continue
			}
			if err := db.Model(&clients[i]).Update("last_transaction", clients[i].LastTransaction).Error; err != nil {
				return fmt.Errorf("touch client: %w", err)
			}
		}

		report = Report{StoreID: store.ID, Users: 3, Clients: len(clients), Entries: len(entries)}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"store_id": report.StoreID.String(),
			"skipped":  report.Skipped,
			"clients":  report.Clients,
			"entries":  report.Entries,
		}), "seed.completed")
	}
	return report, nil
}

func newUser(name, email, phone, hash string, role enums.Role) models.User {
	email = strings.ToLower(email)
	return models.User{
		Name:         name,
		Email:        &email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
}
