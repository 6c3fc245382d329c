package settlements

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/api/controllers/vendorcontext"
	"github.com/angelmondragon/zedmarket-backend/api/responses"
	"github.com/angelmondragon/zedmarket-backend/api/validators"
	settlementsvc "github.com/angelmondragon/zedmarket-backend/internal/settlements"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/pagination"
)

type settlementService interface {
	Stats(ctx context.Context, vendorID, storeID uuid.UUID) (*settlementsvc.Stats, error)
	List(ctx context.Context, vendorID, storeID uuid.UUID, params pagination.Params) (*settlementsvc.ListResult, error)
}

func VendorSettlementStats(svc settlementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		vendorID, storeID, err := resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), vendorID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func VendorSettlementList(svc settlementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		vendorID, storeID, err := resolve(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), vendorID, storeID, pagination.Params{
			Limit:  limit,
			Cursor: validators.SanitizeString(r.URL.Query().Get("cursor"), 256),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func resolve(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	vendorID, err := vendorcontext.ResolveVendorID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	storeID, err := validators.ParseUUIDParam(r, "storeId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return vendorID, storeID, nil
}
