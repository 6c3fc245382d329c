package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/zedmarket-backend/api/responses"
	lencowebhook "github.com/angelmondragon/zedmarket-backend/internal/webhooks/lenco"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/lenco"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/metrics"
)

// MaxLencoBodyBytes bounds the webhook payload read into memory.
const MaxLencoBodyBytes = 1 << 20

type LencoWebhookService interface {
	HandleEvent(ctx context.Context, event *lencowebhook.Event) (string, error)
}

// LencoWebhookOptions carries the signing material for inbound events.
type LencoWebhookOptions struct {
	SecretKey string
	// AllowUnsigned accepts deliveries without a secret or signature header.
	// Config validation refuses it in production.
	AllowUnsigned bool
	Metrics       *metrics.WebhookMetrics
}

// LencoWebhook verifies and dispatches Lenco collection events.
func LencoWebhook(svc LencoWebhookService, opts LencoWebhookOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxLencoBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		event, err := lencowebhook.Normalize(payload)
		if err != nil {
			opts.Metrics.Observe("", metrics.OutcomeRejected)
			responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid JSON"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get(lenco.SignatureHeader))
		if signature == "" {
			signature = strings.TrimSpace(r.Header.Get(lenco.FallbackSignatureHeader))
		}

		switch {
		case opts.SecretKey != "" && signature != "":
			if !lenco.VerifySignature(opts.SecretKey, payload, signature) {
				if logg != nil {
					logg.Warn(logg.WithReference(ctx, event.Reference), "lenco webhook signature mismatch")
				}
				opts.Metrics.Observe("", metrics.OutcomeRejected)
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature"))
				return
			}
		case opts.AllowUnsigned:
			if logg != nil {
				logg.Warn(ctx, "lenco webhook accepted without signature verification")
			}
		default:
			opts.Metrics.Observe("", metrics.OutcomeRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing signature"))
			return
		}

		message, err := svc.HandleEvent(ctx, event)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "process webhook"))
			return
		}

		responses.WriteSuccess(w, responses.Message{Message: message})
	}
}
