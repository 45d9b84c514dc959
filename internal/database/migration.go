package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

type Migration struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;uniqueIndex;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

type MigrationService struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewMigrationService(db *gorm.DB, logger logger.Logger) *MigrationService {
	return &MigrationService{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.Outlet{},
		&domain.Category{},
		&domain.ProductUnitType{},
		&domain.Product{},
		&domain.InventoryLog{},
		&domain.Crashlog{},
		&domain.Subscription{},
		&domain.SubscribedService{},
	}
}

func (m *MigrationService) InitMigrationTable() error {
	if err := m.db.AutoMigrate(&Migration{}); err != nil {
		m.logger.Error("Could not create migrations table", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (m *MigrationService) IsMigrationApplied(name string) (bool, error) {
	var count int64
	if err := m.db.Model(&Migration{}).Where("name = ?", name).Count(&count).Error; err != nil {
		m.logger.Error("Could not check migration state", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}
	return count > 0, nil
}

func (m *MigrationService) ApplyMigration(name string, migrationFunc func(*gorm.DB) error) error {
	applied, err := m.IsMigrationApplied(name)
	if err != nil {
		return err
	}

	if applied {
		m.logger.Info("Migration already applied", map[string]interface{}{"name": name})
		return nil
	}

	m.logger.Info("Applying migration", map[string]interface{}{"name": name})

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := migrationFunc(tx); err != nil {
			return err
		}
		return tx.Create(&Migration{Name: name, AppliedAt: time.Now()}).Error
	})
	if err != nil {
		m.logger.Error("Migration rolled back", map[string]interface{}{"name": name, "error": err.Error()})
		return err
	}

	m.logger.Info("Migration applied", map[string]interface{}{"name": name})
	return nil
}

func (m *MigrationService) RunMigrations() error {
	m.logger.Info("Running migrations", map[string]interface{}{})

	if err := m.InitMigrationTable(); err != nil {
		return fmt.Errorf("could not create migrations table: %w", err)
	}

	migrations := []struct {
		Name string
		Func func(*gorm.DB) error
	}{
		{"001_create_storefront_tables", CreateStorefrontTables},
		{"002_seed_subscription_plans", SeedSubscriptionPlans},
	}

	for _, migration := range migrations {
		if err := m.ApplyMigration(migration.Name, migration.Func); err != nil {
			return fmt.Errorf("could not apply migration %s: %w", migration.Name, err)
		}
	}

	return nil
}

func CreateStorefrontTables(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func SeedSubscriptionPlans(db *gorm.DB) error {
	plans := []domain.Subscription{
		{Name: "Starter", DurationDays: 30, Price: decimal.NewFromInt(10), Status: domain.StatusActive},
		{Name: "Business", DurationDays: 365, Price: decimal.NewFromInt(100), Status: domain.StatusActive},
	}

	for i := range plans {
		var existing domain.Subscription
		err := db.Where("name = ?", plans[i].Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&plans[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
