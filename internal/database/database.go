package database

import (
	"fmt"

	"github.com/01moynul/storefront-api/internal/config"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB initializes the primary Read/Write connection pool.
func OpenDB(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	// 1. Parse the DSN so parseTime is always on; the models use time.Time columns.
	dsnCfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB_DSN_PRIMARY: %w", err)
	}
	dsnCfg.ParseTime = true

	// 2. Open the gorm handle.
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{DSN: dsnCfg.FormatDSN()}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 3. Configure the connection pool settings.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// 4. Ping the database to verify the connection.
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection pool established",
		zap.String("addr", dsnCfg.Addr),
		zap.String("db_name", dsnCfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Info("Database schema migrated")
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// AllModels lists the persisted entities in dependency order.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductSize{},
		&models.ProductColor{},
		&models.ProductImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Promotion{},
		&models.News{},
		&models.AppConfig{},
	}
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
