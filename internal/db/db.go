package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smb02/outreach-engine/internal/models"
)

// Open connects to the database selected by the DSN. DSNs with a postgres
// scheme use the PostgreSQL driver; anything else is treated as a SQLite
// file path.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if _, errParse := pgx.ParseConfig(dsn); errParse != nil {
			return nil, fmt.Errorf("db: invalid postgres dsn: %w", errParse)
		}
		conn, errOpen := gorm.Open(postgres.Open(dsn), gormCfg)
		if errOpen != nil {
			return nil, fmt.Errorf("db: open postgres: %w", errOpen)
		}
		return conn, nil
	}

	conn, errOpen := gorm.Open(sqlite.Open(dsn), gormCfg)
	if errOpen != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", errOpen)
	}
	return conn, nil
}

// Migrate runs database migrations and seeds the default plan catalog.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if IsSQLite(conn) {
		// The quota gate issues short concurrent writes per request; WAL
		// keeps readers from blocking behind them on file-backed databases.
		if errPragma := conn.Exec("PRAGMA journal_mode=WAL").Error; errPragma != nil {
			return fmt.Errorf("db: enable wal: %w", errPragma)
		}
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Plan{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// seedPlan describes a default catalog entry.
type seedPlan struct {
	name       string
	dailyLimit int64
	monthPrice float64
	features   []string
	sortOrder  int
}

// defaultPlans is the catalog seeded on first migration.
var defaultPlans = []seedPlan{
	{name: models.PlanFree, dailyLimit: 3, monthPrice: 0, sortOrder: 0,
		features: []string{"3 requests/day", "Basic features"}},
	{name: models.PlanPro, dailyLimit: 200, monthPrice: 29, sortOrder: 1,
		features: []string{"200 requests/day", "Advanced features"}},
	{name: models.PlanUltra, dailyLimit: 1000, monthPrice: 99, sortOrder: 2,
		features: []string{"1000 requests/day", "Premium support"}},
	{name: models.PlanBusiness, dailyLimit: 999999, monthPrice: -1, sortOrder: 3,
		features: []string{"Unlimited requests", "Dedicated support", "Custom integration"}},
}

// ensureDefaultPlans inserts the built-in plan catalog if the rows are absent.
func ensureDefaultPlans(conn *gorm.DB) error {
	now := time.Now().UTC()
	for _, seed := range defaultPlans {
		features, errMarshal := json.Marshal(seed.features)
		if errMarshal != nil {
			return fmt.Errorf("db: marshal plan features: %w", errMarshal)
		}
		row := models.Plan{
			Name:       seed.name,
			MonthPrice: seed.monthPrice,
			Features:   datatypes.JSON(features),
			DailyLimit: seed.dailyLimit,
			SortOrder:  seed.sortOrder,
			IsEnabled:  true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if errCreate := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&row).Error; errCreate != nil {
			return fmt.Errorf("db: seed plan %s: %w", seed.name, errCreate)
		}
	}
	return nil
}
