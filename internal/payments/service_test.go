package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/zedmarket-backend/internal/credits"
	"github.com/angelmondragon/zedmarket-backend/internal/imports"
	"github.com/angelmondragon/zedmarket-backend/internal/ledger"
	"github.com/angelmondragon/zedmarket-backend/internal/products"
	"github.com/angelmondragon/zedmarket-backend/internal/stores"
	"github.com/angelmondragon/zedmarket-backend/internal/testdb"
	"github.com/angelmondragon/zedmarket-backend/internal/vendors"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/lenco"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/outbox"
)

type fakeCollector struct {
	requests []lenco.CollectionRequest
	resp     *lenco.CollectionResponse
	err      error
}

func (f *fakeCollector) CollectMobileMoney(_ context.Context, req lenco.CollectionRequest) (*lenco.CollectionResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func accepted() *lenco.CollectionResponse {
	return &lenco.CollectionResponse{
		Status:  true,
		Message: "Collection initiated",
		Data:    lenco.CollectionData{ID: "col-1", Status: "pay-offline"},
	}
}

type fixture struct {
	svc       *Service
	conn      *gorm.DB
	collector *fakeCollector
	vendor    models.Vendor
	store     models.Store
	supplier  models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := testdb.Client(t)
	logg := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	importer, err := imports.NewService(imports.ServiceParams{
		DB:       client,
		Ledger:   ledgerSvc,
		Products: products.NewRepository(conn),
		Outcomes: imports.NewOutcomeRepository(conn),
		Outbox:   emitter,
		Markup:   decimal.RequireFromString("1.25"),
		Logger:   logg,
	})
	require.NoError(t, err)
	creditSvc, err := credits.NewService(credits.ServiceParams{
		DB:          client,
		Repo:        credits.NewRepository(conn),
		Ledger:      ledgerSvc,
		Vendors:     vendors.NewRepository(conn),
		Stores:      stores.NewRepository(conn),
		Outbox:      emitter,
		Importer:    importer,
		Quota:       3,
		PromoWindow: 30 * 24 * time.Hour,
		Logger:      logg,
	})
	require.NoError(t, err)

	collector := &fakeCollector{resp: accepted()}
	svc, err := NewService(ServiceParams{
		DB:        client,
		Collector: collector,
		Ledger:    ledgerSvc,
		Products:  products.NewRepository(conn),
		Stores:    stores.NewRepository(conn),
		Vendors:   vendors.NewRepository(conn),
		Credits:   creditSvc,
		Outbox:    emitter,
		Logger:    logg,
		Now:       func() time.Time { return time.UnixMilli(1700000000000).UTC() },
	})
	require.NoError(t, err)

	vendor := testdb.SeedVendor(t, conn, time.Now().UTC())
	store := testdb.SeedStore(t, conn, vendor.ID)
	supplierVendor := testdb.SeedVendor(t, conn, time.Now().UTC())
	supplierStore := testdb.SeedStore(t, conn, supplierVendor.ID)
	wholesale := "40"
	supplier := testdb.SeedProduct(t, conn, supplierStore.ID, "55", &wholesale, "https://cdn/1.jpg")

	return fixture{svc: svc, conn: conn, collector: collector, vendor: vendor, store: store, supplier: supplier}
}

func (f fixture) importRequest(provider enums.MobileMoneyProvider) ImportRequest {
	return ImportRequest{
		VendorID:  f.vendor.ID,
		StoreID:   f.store.ID,
		ProductID: f.supplier.ID,
		Provider:  provider,
		Phone:     " 0971234567 ",
	}
}

func transactions(t *testing.T, conn *gorm.DB) []models.Transaction {
	t.Helper()
	var rows []models.Transaction
	require.NoError(t, conn.Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestInitiateImportRecordsPendingTransaction(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.InitiateImport(context.Background(), f.importRequest(enums.ProviderMTN))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Pending)
	assert.Equal(t, "Payment initiated. Please check your phone.", result.Message)

	require.Len(t, f.collector.requests, 1)
	req := f.collector.requests[0]
	wantRef := fmt.Sprintf("imp_%s_%s_1700000000000", f.store.ID, f.supplier.ID)
	assert.Equal(t, wantRef, req.Reference)
	assert.Equal(t, "55.00", req.Amount.StringFixed(2))
	assert.Equal(t, "mtn", req.Operator)
	assert.Equal(t, "0971234567", req.Phone)
	assert.Equal(t, "ZMW", req.Currency)

	rows := transactions(t, f.conn)
	require.Len(t, rows, 1)
	assert.Equal(t, wantRef, rows[0].Reference)
	assert.Equal(t, enums.TransactionStatusPending, rows[0].Status)
	assert.Equal(t, enums.TransactionTypeMarketImport, rows[0].Type)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Metadata, &meta))
	assert.Equal(t, "mtn", meta["provider"])
	assert.NotContains(t, meta, "outcome_unknown")

	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventImportPaymentInitiated).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestInitiateImportUnknownOutcomeIsFlagged(t *testing.T) {
	f := newFixture(t)
	f.collector.resp = nil
	f.collector.err = fmt.Errorf("%w: deadline exceeded", lenco.ErrUnknownOutcome)

	result, err := f.svc.InitiateImport(context.Background(), f.importRequest(enums.ProviderAirtel))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Pending)

	rows := transactions(t, f.conn)
	require.Len(t, rows, 1)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Metadata, &meta))
	assert.Equal(t, true, meta["outcome_unknown"])
}

func TestInitiateImportProviderRefusalIsAResult(t *testing.T) {
	f := newFixture(t)
	f.collector.resp = nil
	f.collector.err = pkgerrors.Wrap(pkgerrors.CodeDependency,
		&lenco.RejectedError{StatusCode: 400, Message: "Invalid phone number"}, "Invalid phone number")

	result, err := f.svc.InitiateImport(context.Background(), f.importRequest(enums.ProviderZamtel))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.Pending)
	assert.Equal(t, "Invalid phone number", result.Message)
	assert.Empty(t, transactions(t, f.conn))
}

func TestInitiateImportDeclinedUsesFailureMessage(t *testing.T) {
	f := newFixture(t)
	f.collector.resp = &lenco.CollectionResponse{
		Status: false,
		Data:   lenco.CollectionData{ReasonForFailure: "insufficient_funds"},
	}

	result, err := f.svc.InitiateImport(context.Background(), f.importRequest(enums.ProviderMTN))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, FailureMessage("insufficient_funds"), result.Message)
	assert.Empty(t, transactions(t, f.conn))
}

func TestInitiateImportValidation(t *testing.T) {
	f := newFixture(t)
	ownProduct := testdb.SeedProduct(t, f.conn, f.store.ID, "10", nil)
	other := testdb.SeedStore(t, f.conn, uuid.New())

	cases := []struct {
		name string
		edit func(*ImportRequest)
		code pkgerrors.Code
	}{
		{"foreign store", func(r *ImportRequest) { r.StoreID = other.ID }, pkgerrors.CodeForbidden},
		{"missing product", func(r *ImportRequest) { r.ProductID = uuid.New() }, pkgerrors.CodeNotFound},
		{"own product", func(r *ImportRequest) { r.ProductID = ownProduct.ID }, pkgerrors.CodeValidation},
		{"amount mismatch", func(r *ImportRequest) { r.Amount = decimal.NewFromInt(1) }, pkgerrors.CodeValidation},
		{"unknown provider", func(r *ImportRequest) { r.Provider = "paypal" }, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.importRequest(enums.ProviderMTN)
			tc.edit(&req)
			_, err := f.svc.InitiateImport(context.Background(), req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
	assert.Empty(t, f.collector.requests)
}

func TestInitiateImportFreeCreditSkipsProvider(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.InitiateImport(context.Background(), f.importRequest(enums.ProviderFreeCredit))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Pending)
	assert.Equal(t, "Free import credit applied!", result.Message)
	assert.Empty(t, f.collector.requests)

	rows := transactions(t, f.conn)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.TransactionStatusCompleted, rows[0].Status)
	assert.True(t, rows[0].Amount.IsZero())
}

func TestInitiateImportFreeCreditExhausted(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		req := f.importRequest(enums.ProviderFreeCredit)
		wholesale := "40"
		req.ProductID = testdb.SeedProduct(t, f.conn, f.supplier.StoreID, "55", &wholesale).ID
		result, err := f.svc.InitiateImport(context.Background(), req)
		require.NoError(t, err)
		require.True(t, result.Success)
	}

	result, err := f.svc.InitiateImport(context.Background(), f.importRequest(enums.ProviderFreeCredit))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "You are not eligible for free import credits.", result.Message)
}

func TestInitiateSubscription(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.InitiateSubscription(context.Background(), SubscriptionRequest{
		VendorID: f.vendor.ID,
		Plan:     enums.PlanPremiumYearly,
		Provider: enums.ProviderAirtel,
		Phone:    "0961234567",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Subscription payment initiated. Check your phone.", result.Message)

	require.Len(t, f.collector.requests, 1)
	req := f.collector.requests[0]
	assert.Equal(t, "5000.00", req.Amount.StringFixed(2))
	assert.True(t, strings.HasPrefix(req.Reference, "sub_"+f.vendor.ID.String()+"_"))
	assert.Empty(t, transactions(t, f.conn))

	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventSubscriptionPaymentInitiated).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestInitiateSubscriptionRejectsUnknownPlanAndVendor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.InitiateSubscription(context.Background(), SubscriptionRequest{
		VendorID: f.vendor.ID, Plan: enums.PlanLifetimePremium, Provider: enums.ProviderMTN,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.InitiateSubscription(context.Background(), SubscriptionRequest{
		VendorID: uuid.New(), Plan: enums.PlanPremiumMonthly, Provider: enums.ProviderMTN, Phone: "0961234567",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.InitiateSubscription(context.Background(), SubscriptionRequest{
		VendorID: f.vendor.ID, Plan: enums.PlanPremiumMonthly, Provider: enums.ProviderMTN,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, f.collector.requests)
}

func TestFailureMessage(t *testing.T) {
	assert.Contains(t, FailureMessage("insufficient_funds"), "insufficient funds")
	assert.Contains(t, FailureMessage("fraud_suspected"), "security review")
	assert.Equal(t, defaultFailureMessage, FailureMessage(""))
	assert.Equal(t, defaultFailureMessage, FailureMessage("something_else"))
}
