package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	productItems := `
CREATE TABLE IF NOT EXISTS product_items (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  color TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  original_price NUMERIC NOT NULL,
  sale_price NUMERIC,
  created_at DATETIME,
  updated_at DATETIME
);`
	productVariations := `
CREATE TABLE IF NOT EXISTS product_variations (
  id TEXT PRIMARY KEY,
  product_item_id TEXT NOT NULL,
  size TEXT NOT NULL,
  qty_in_stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_item_id, size)
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(productItems).Error)
	require.NoError(t, db.Exec(productVariations).Error)
	return db
}
