package lencowebhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/internal/imports"
	"github.com/angelmondragon/zedmarket-backend/internal/ledger"
	"github.com/angelmondragon/zedmarket-backend/internal/products"
	"github.com/angelmondragon/zedmarket-backend/internal/subscriptions"
	"github.com/angelmondragon/zedmarket-backend/internal/testdb"
	"github.com/angelmondragon/zedmarket-backend/internal/vendors"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/metrics"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
	"github.com/angelmondragon/zedmarket-backend/pkg/reference"
)

type harness struct {
	svc     *Service
	conn    *gorm.DB
	store   *memoryStore
	metrics *metrics.WebhookMetrics
}

func newHarness(t *testing.T) harness {
	t.Helper()
	client, conn := testdb.Client(t)
	logg := logger.New(logger.Options{ServiceName: "webhook-test", Output: io.Discard})
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	importSvc, err := imports.NewService(imports.ServiceParams{
		DB:       client,
		Ledger:   ledgerSvc,
		Products: products.NewRepository(conn),
		Outcomes: imports.NewOutcomeRepository(conn),
		Outbox:   emitter,
		Markup:   decimal.RequireFromString("1.25"),
		Logger:   logg,
	})
	require.NoError(t, err)
	subSvc, err := subscriptions.NewService(subscriptions.ServiceParams{
		DB:      client,
		Repo:    subscriptions.NewRepository(conn),
		Vendors: vendors.NewRepository(conn),
		Outbox:  emitter,
		Logger:  logg,
	})
	require.NoError(t, err)

	store := newMemoryStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, IdempotencyScope)
	require.NoError(t, err)
	m := metrics.NewWebhookMetrics(prometheus.NewRegistry())

	svc, err := NewService(ServiceParams{
		Subscriptions: subSvc,
		Imports:       importSvc,
		Guard:         guard,
		Metrics:       m,
		Logger:        logg,
	})
	require.NoError(t, err)
	return harness{svc: svc, conn: conn, store: store, metrics: m}
}

func seedSubscription(t *testing.T, conn *gorm.DB, vendorID string, status enums.SubscriptionStatus) {
	t.Helper()
	sub := models.VendorSubscription{ID: uuid.New(), VendorID: uuid.MustParse(vendorID), Status: status, PlanID: "trial"}
	require.NoError(t, conn.Create(&sub).Error)
}

func subscriptionStatus(t *testing.T, conn *gorm.DB, vendorID string) enums.SubscriptionStatus {
	t.Helper()
	var sub models.VendorSubscription
	require.NoError(t, conn.Where("vendor_id = ?", vendorID).First(&sub).Error)
	return sub.Status
}

func TestSuccessfulSubscriptionActivates(t *testing.T) {
	h := newHarness(t)
	vendor := testdb.SeedVendor(t, h.conn, time.Now().UTC())
	seedSubscription(t, h.conn, vendor.ID.String(), enums.SubscriptionStatusTrial)
	ref := reference.NewSubscription(vendor.ID.String(), time.Now()).String()

	event, err := Normalize([]byte(fmt.Sprintf(`{"type":"mobile-money","reference":%q,"status":"successful"}`, ref)))
	require.NoError(t, err)
	msg, err := h.svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, MessageSubscription, msg)
	assert.Equal(t, enums.SubscriptionStatusActive, subscriptionStatus(t, h.conn, vendor.ID.String()))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Counter("sub", metrics.OutcomeProcessed)))
}

func TestFailedSubscriptionLeavesStatus(t *testing.T) {
	h := newHarness(t)
	vendor := testdb.SeedVendor(t, h.conn, time.Now().UTC())
	seedSubscription(t, h.conn, vendor.ID.String(), enums.SubscriptionStatusActive)
	ref := reference.NewSubscription(vendor.ID.String(), time.Now()).String()

	msg, err := h.svc.HandleEvent(context.Background(), &Event{Type: TypeMobileMoney, Reference: ref, Status: StatusFailed})
	require.NoError(t, err)
	assert.Equal(t, MessageSubscription, msg)
	assert.Equal(t, enums.SubscriptionStatusActive, subscriptionStatus(t, h.conn, vendor.ID.String()))
	assert.Empty(t, h.store.keys)
}

func TestImportClonesOnceUnderRedelivery(t *testing.T) {
	h := newHarness(t)
	buyerVendor := testdb.SeedVendor(t, h.conn, time.Now().UTC())
	buyer := testdb.SeedStore(t, h.conn, buyerVendor.ID)
	supplierVendor := testdb.SeedVendor(t, h.conn, time.Now().UTC())
	supplierStore := testdb.SeedStore(t, h.conn, supplierVendor.ID)
	wholesale := "40"
	supplier := testdb.SeedProduct(t, h.conn, supplierStore.ID, "70", &wholesale, "https://cdn/a.jpg")

	ref := reference.NewImport(buyer.ID.String(), supplier.ID.String(), time.Now()).String()
	body := []byte(fmt.Sprintf(`{"type":"mobile-money","reference":%q,"status":"successful","amount":50,"currency":"ZMW"}`, ref))

	for i := 0; i < 2; i++ {
		event, err := Normalize(body)
		require.NoError(t, err)
		msg, err := h.svc.HandleEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, MessageImport, msg)
	}
	// Redis forgot the key; the database still deduplicates.
	h.store.keys = map[string]string{}
	event, err := Normalize(body)
	require.NoError(t, err)
	_, err = h.svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)

	var txns []models.Transaction
	require.NoError(t, h.conn.Where("reference = ?", ref).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, enums.TransactionStatusCompleted, txns[0].Status)

	var clones []models.Product
	require.NoError(t, h.conn.Where("store_id = ?", buyer.ID).Find(&clones).Error)
	require.Len(t, clones, 1)
	assert.Equal(t, "50.00", clones[0].Price.StringFixed(2))
	assert.Equal(t, enums.ProductStatusDraft, clones[0].Status)
	require.NotNil(t, clones[0].SupplierProductID)
	assert.Equal(t, supplier.ID, *clones[0].SupplierProductID)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Counter("imp", metrics.OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Counter("imp", metrics.OutcomeDuplicate)))
}

func TestUnroutableEventsAreAcknowledged(t *testing.T) {
	h := newHarness(t)
	cases := []*Event{
		nil,
		{Type: "bank-transfer", Reference: "sub_x_1", Status: StatusSuccessful},
		{Type: TypeMobileMoney, Reference: "ord_1_2", Status: StatusSuccessful},
		{Type: TypeMobileMoney, Reference: "sub_only", Status: StatusSuccessful},
		{Type: TypeMobileMoney, Reference: "", Status: StatusSuccessful},
	}
	for _, event := range cases {
		msg, err := h.svc.HandleEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, MessageReceived, msg)
	}

	var n int64
	require.NoError(t, h.conn.Model(&models.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestNonUUIDReferencesAreAcknowledgedWithoutMutation(t *testing.T) {
	h := newHarness(t)

	msg, err := h.svc.HandleEvent(context.Background(), &Event{Type: TypeMobileMoney, Reference: "sub_v123_1700", Status: StatusSuccessful})
	require.NoError(t, err)
	assert.Equal(t, MessageSubscription, msg)

	msg, err = h.svc.HandleEvent(context.Background(), &Event{
		Type: TypeMobileMoney, Reference: "imp_s1_p9_1700", Status: StatusSuccessful, Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, MessageImport, msg)

	var n int64
	require.NoError(t, h.conn.Model(&models.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Counter("imp", metrics.OutcomeIgnored)))
}

type failingImports struct{ calls int }

func (f *failingImports) ConfirmPaid(context.Context, reference.Import, imports.Payment) (*imports.Result, error) {
	f.calls++
	return nil, errors.New("database unavailable")
}

func TestMutatorFailureReleasesGuard(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, IdempotencyScope)
	require.NoError(t, err)
	failing := &failingImports{}
	h := newHarness(t)
	svc, err := NewService(ServiceParams{
		Subscriptions: h.svc.subscriptions,
		Imports:       failing,
		Guard:         guard,
		Logger:        h.svc.logg,
	})
	require.NoError(t, err)

	event := &Event{Type: TypeMobileMoney, Reference: "imp_a_b_1700", Status: StatusSuccessful}
	for i := 0; i < 2; i++ {
		_, err := svc.HandleEvent(context.Background(), event)
		require.Error(t, err)
	}
	assert.Equal(t, 2, failing.calls)
	assert.Empty(t, store.keys)
}

func TestGuardOutageFallsThroughToDatabase(t *testing.T) {
	h := newHarness(t)
	h.store.setErr = errors.New("redis down")

	_, err := h.svc.HandleEvent(context.Background(), &Event{Type: TypeMobileMoney, Reference: "sub_v123_1700", Status: StatusSuccessful})
	require.NoError(t, err)
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
