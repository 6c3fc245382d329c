// Package testdb opens isolated in-memory SQLite databases carrying the
// reconciliation schema, for repository and service tests.
package testdb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/zedmarket-backend/pkg/db"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

var schema = []string{`
CREATE TABLE vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  is_lifetime_free BOOLEAN NOT NULL DEFAULT 0,
  created_at DATETIME
);`, `
CREATE TABLE stores (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  category TEXT,
  description TEXT,
  sku TEXT,
  tags TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  weight NUMERIC,
  dimensions TEXT,
  attributes TEXT,
  price NUMERIC NOT NULL,
  supplier_price NUMERIC,
  status TEXT NOT NULL DEFAULT 'Draft',
  is_dropshippable BOOLEAN NOT NULL DEFAULT 0,
  supplier_product_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  url TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`, `
CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  reference TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  type TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT transactions_reference_key UNIQUE (reference)
);`, `
CREATE TABLE vendor_subscriptions (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'trial',
  plan_id TEXT NOT NULL,
  trial_ends_at DATETIME,
  current_period_end DATETIME,
  last_payment_reference TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE settlements (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  order_id TEXT,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL,
  release_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE import_credit_claims (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  slot INTEGER NOT NULL CHECK (slot BETWEEN 1 AND 3),
  transaction_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  CONSTRAINT import_credit_claims_vendor_slot_key UNIQUE (vendor_id, slot)
);`, `
CREATE TABLE import_outcomes (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  store_id TEXT NOT NULL,
  supplier_product_id TEXT NOT NULL,
  product_id TEXT,
  status TEXT NOT NULL,
  failed_step TEXT,
  error TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

// Open returns a fresh database private to the test. A single connection is
// used so concurrent transactions serialize instead of failing on table locks.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// Client wraps Open in the shared transaction helper.
func Client(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromConn(conn), conn
}

// SeedVendor inserts a vendor created at createdAt.
func SeedVendor(t *testing.T, conn *gorm.DB, createdAt time.Time) models.Vendor {
	t.Helper()
	vendor := models.Vendor{ID: uuid.New(), Name: "vendor", CreatedAt: createdAt}
	require.NoError(t, conn.Create(&vendor).Error)
	return vendor
}

// SeedStore inserts a store owned by vendorID.
func SeedStore(t *testing.T, conn *gorm.DB, vendorID uuid.UUID) models.Store {
	t.Helper()
	store := models.Store{ID: uuid.New(), VendorID: vendorID, Name: "store"}
	require.NoError(t, conn.Create(&store).Error)
	return store
}

// SeedProduct inserts a dropshippable supplier product with the given prices
// and image URLs in order.
func SeedProduct(t *testing.T, conn *gorm.DB, storeID uuid.UUID, price string, supplierPrice *string, imageURLs ...string) models.Product {
	t.Helper()
	category := "Electronics"
	sku := "SKU-1"
	product := models.Product{
		ID:              uuid.New(),
		StoreID:         storeID,
		Name:            "Solar Lamp",
		Category:        &category,
		SKU:             &sku,
		Tags:            []string{"solar", "outdoor"},
		Stock:           12,
		Price:           decimal.RequireFromString(price),
		Status:          enums.ProductStatusActive,
		IsDropshippable: true,
		Attributes:      []byte(`{"color":"black"}`),
		Dimensions:      []byte(`{"w":10,"h":20}`),
	}
	if supplierPrice != nil {
		product.SupplierPrice = decimal.NewNullDecimal(decimal.RequireFromString(*supplierPrice))
	}
	require.NoError(t, conn.Omit("Images").Create(&product).Error)

	for i, url := range imageURLs {
		img := models.ProductImage{ID: uuid.New(), ProductID: product.ID, URL: url, Position: i}
		require.NoError(t, conn.Create(&img).Error)
		product.Images = append(product.Images, img)
	}
	return product
}
