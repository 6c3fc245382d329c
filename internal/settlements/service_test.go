package settlements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/internal/stores"
	"github.com/angelmondragon/zedmarket-backend/internal/testdb"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/pagination"
)

type fixture struct {
	svc      *Service
	conn     *gorm.DB
	vendorID uuid.UUID
	storeID  uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), stores.NewRepository(conn))
	require.NoError(t, err)
	vendor := testdb.SeedVendor(t, conn, time.Now().UTC())
	store := testdb.SeedStore(t, conn, vendor.ID)
	return fixture{svc: svc, conn: conn, vendorID: vendor.ID, storeID: store.ID}
}

func seedSettlement(t *testing.T, conn *gorm.DB, storeID uuid.UUID, amount string, status enums.SettlementStatus, createdAt time.Time) models.Settlement {
	t.Helper()
	row := models.Settlement{
		ID:        uuid.New(),
		StoreID:   storeID,
		Amount:    decimal.RequireFromString(amount),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, conn.Create(&row).Error)
	return row
}

func TestStatsBucketsByStatus(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	seedSettlement(t, f.conn, f.storeID, "100.50", enums.SettlementStatusPending, now)
	seedSettlement(t, f.conn, f.storeID, "20", enums.SettlementStatusPending, now)
	seedSettlement(t, f.conn, f.storeID, "300", enums.SettlementStatusCleared, now)
	seedSettlement(t, f.conn, f.storeID, "40", enums.SettlementStatusFrozen, now)
	seedSettlement(t, f.conn, f.storeID, "5.25", enums.SettlementStatusDisputed, now)
	seedSettlement(t, f.conn, uuid.New(), "999", enums.SettlementStatusCleared, now)

	stats, err := f.svc.Stats(context.Background(), f.vendorID, f.storeID)
	require.NoError(t, err)
	assert.Equal(t, "120.50", stats.Pending.StringFixed(2))
	assert.Equal(t, "300.00", stats.Cleared.StringFixed(2))
	assert.Equal(t, "45.25", stats.Frozen.StringFixed(2))
}

func TestStatsEmptyStore(t *testing.T) {
	f := newFixture(t)
	stats, err := f.svc.Stats(context.Background(), f.vendorID, f.storeID)
	require.NoError(t, err)
	assert.True(t, stats.Pending.IsZero())
	assert.True(t, stats.Cleared.IsZero())
	assert.True(t, stats.Frozen.IsZero())
}

func TestStatsRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Stats(context.Background(), uuid.New(), f.storeID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	var seeded []models.Settlement
	for i := 0; i < 5; i++ {
		seeded = append(seeded, seedSettlement(t, f.conn, f.storeID, "10", enums.SettlementStatusPending, base.Add(time.Duration(i)*time.Minute)))
	}

	first, err := f.svc.List(context.Background(), f.vendorID, f.storeID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, seeded[4].ID, first.Items[0].ID)
	assert.Equal(t, seeded[3].ID, first.Items[1].ID)
	assert.Equal(t, "Processing", first.Items[0].Friendly.Label)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.List(context.Background(), f.vendorID, f.storeID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, seeded[2].ID, second.Items[0].ID)

	last, err := f.svc.List(context.Background(), f.vendorID, f.storeID, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Empty(t, last.NextCursor)

	_, err = f.svc.List(context.Background(), f.vendorID, f.storeID, pagination.Params{Cursor: "%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFriendly(t *testing.T) {
	assert.Equal(t, "Cleared", Friendly(enums.SettlementStatusCleared).Label)
	frozen := Friendly(enums.SettlementStatusFrozen)
	assert.Equal(t, "Action Required", frozen.Label)
	assert.Equal(t, "Contact Support", frozen.ActionLabel)
	assert.Equal(t, frozen, Friendly(enums.SettlementStatusDisputed))
	unknown := Friendly("reversed")
	assert.Equal(t, "reversed", unknown.Label)
	assert.Equal(t, "outline", unknown.Variant)
}
