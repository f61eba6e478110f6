package service

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketplace-backend/internal/client"
	"marketplace-backend/internal/model"
)

// newTestDB opens an isolated in-memory store with the production schema.
// TranslateError is on so unique-constraint races surface as
// gorm.ErrDuplicatedKey, same as the mysql driver.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache in-memory DSN keeps every pooled connection on
	// the same database; a plain ":memory:" gives each connection its own.
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.AutoMigrate(db))
	return db
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func seedCategory(t *testing.T, db *gorm.DB) *model.Category {
	t.Helper()
	category := &model.Category{Name: "electronics-" + t.Name(), IsActive: true}
	require.NoError(t, db.Create(category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID, vendorID string, stock int, price string, discountPercent int) *model.Product {
	t.Helper()

	original := decimal.RequireFromString(price)
	discounted := decimal.Zero
	if discountPercent > 0 {
		pct := decimal.NewFromInt(int64(discountPercent))
		discounted = original.Sub(original.Mul(pct).Div(decimal.NewFromInt(100))).Round(2)
	}

	product := &model.Product{
		CategoryID:      categoryID,
		VendorID:        vendorID,
		Name:            "widget",
		Stock:           stock,
		OriginalPrice:   original,
		DiscountPercent: discountPercent,
		DiscountAmount:  discounted,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	user := &model.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        t.Name() + "-" + role + "@example.com",
		PhoneNumber:  "080" + role + t.Name(),
		Role:         role,
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
