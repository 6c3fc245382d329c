package subscriptions

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	importctl "github.com/angelmondragon/zedmarket-backend/api/controllers/imports"
	"github.com/angelmondragon/zedmarket-backend/api/controllers/vendorcontext"
	"github.com/angelmondragon/zedmarket-backend/api/responses"
	"github.com/angelmondragon/zedmarket-backend/api/validators"
	"github.com/angelmondragon/zedmarket-backend/internal/payments"
	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
)

type subscriptionReader interface {
	Get(ctx context.Context, vendorID uuid.UUID) (*models.VendorSubscription, error)
	HasAccess(ctx context.Context, vendorID uuid.UUID) (bool, error)
}

type subscriptionInitiator interface {
	InitiateSubscription(ctx context.Context, req payments.SubscriptionRequest) (*payments.Result, error)
}

type subscriptionPaymentRequest struct {
	Plan     string `json:"planId" validate:"required,oneof=premium_monthly premium_yearly"`
	Provider string `json:"provider" validate:"required,oneof=airtel mtn zamtel"`
	Phone    string `json:"phone" validate:"required,msisdn"`
}

type vendorSubscriptionResponse struct {
	ID               uuid.UUID  `json:"id"`
	Status           string     `json:"status"`
	PlanID           string     `json:"planId"`
	TrialEndsAt      *time.Time `json:"trialEndsAt,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
}

type vendorSubscriptionEnvelope struct {
	Subscription *vendorSubscriptionResponse `json:"subscription"`
	HasAccess    bool                        `json:"hasAccess"`
}

func VendorSubscriptionPay(svc subscriptionInitiator, logg *logger.Logger) http.HandlerFunc {
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

		var payload subscriptionPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := enums.ParseSubscriptionPlan(payload.Plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan"))
			return
		}
		provider, err := enums.ParseMobileMoneyProvider(payload.Provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider"))
			return
		}

		result, err := svc.InitiateSubscription(r.Context(), payments.SubscriptionRequest{
			VendorID: vendorID,
			Plan:     plan,
			Provider: provider,
			Phone:    payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		importctl.WriteResult(w, result)
	}
}

func VendorSubscriptionFetch(svc subscriptionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Get(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		access, err := svc.HasAccess(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendorSubscriptionEnvelope{
			Subscription: newVendorSubscriptionResponse(sub),
			HasAccess:    access,
		})
	}
}

func newVendorSubscriptionResponse(sub *models.VendorSubscription) *vendorSubscriptionResponse {
	if sub == nil {
		return nil
	}
	return &vendorSubscriptionResponse{
		ID:               sub.ID,
		Status:           string(sub.Status),
		PlanID:           sub.PlanID,
		TrialEndsAt:      sub.TrialEndsAt,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}
}
