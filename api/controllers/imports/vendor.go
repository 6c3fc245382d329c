package imports

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zedmarket-backend/api/controllers/vendorcontext"
	"github.com/angelmondragon/zedmarket-backend/api/responses"
	"github.com/angelmondragon/zedmarket-backend/api/validators"
	"github.com/angelmondragon/zedmarket-backend/internal/credits"
	"github.com/angelmondragon/zedmarket-backend/internal/payments"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
)

type importInitiator interface {
	InitiateImport(ctx context.Context, req payments.ImportRequest) (*payments.Result, error)
}

type creditStats interface {
	Stats(ctx context.Context, vendorID uuid.UUID) (*credits.Stats, error)
}

type importRequest struct {
	StoreID   string `json:"storeId" validate:"required,uuid"`
	ProductID string `json:"productId" validate:"required,uuid"`
	Provider  string `json:"provider" validate:"required,oneof=airtel mtn zamtel free_credit"`
	Phone     string `json:"phone" validate:"omitempty,msisdn"`
	Amount    string `json:"amount,omitempty" validate:"omitempty,money"`
}

// VendorImportInitiate starts a paid or free-credit import of a supplier product.
func VendorImportInitiate(svc importInitiator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload importRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider, err := enums.ParseMobileMoneyProvider(payload.Provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider"))
			return
		}
		amount := decimal.Zero
		if payload.Amount != "" {
			amount = decimal.RequireFromString(payload.Amount)
		}

		result, err := svc.InitiateImport(r.Context(), payments.ImportRequest{
			VendorID:  vendorID,
			StoreID:   uuid.MustParse(payload.StoreID),
			ProductID: uuid.MustParse(payload.ProductID),
			Provider:  provider,
			Phone:     payload.Phone,
			Amount:    amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		WriteResult(w, result)
	}
}

// VendorImportCredits reports the vendor's free import credit position.
func VendorImportCredits(svc creditStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credit service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// WriteResult maps a payment result onto a status code. Provider refusals
// are answered with 200 and success=false.
func WriteResult(w http.ResponseWriter, result *payments.Result) {
	status := http.StatusOK
	if result.Success && result.Pending {
		status = http.StatusAccepted
	}
	responses.WriteSuccessStatus(w, status, result)
}
