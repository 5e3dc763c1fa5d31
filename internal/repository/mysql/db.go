package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Captain-Catto/online-store-sub001/internal/config"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/order"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/product"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/user"
	"github.com/Captain-Catto/online-store-sub001/internal/datamodels/voucher"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init opens the global GORM handle and auto-migrates the schema.
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		if err = Migrate(db); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// Migrate creates or updates all tables. Split out of Init so tests can run
// it against their own database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&product.Product{},
		&product.ProductDetail{},
		&product.ProductInventory{},
		&voucher.Voucher{},
		&order.Order{},
		&order.OrderDetail{},
	)
}

// DB returns the global handle.
func DB() *gorm.DB {
	return db
}
