package middleware

import (
	"net/http"

	"github.com/angelmondragon/zedmarket-backend/api/responses"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
)

// RequireRole rejects callers whose role ranks below min. Mount it behind
// Auth; a request without a principal is unauthorized, not forbidden.
func RequireRole(min enums.MemberRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			switch {
			case !ok:
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			case !p.Role.AtLeast(min):
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeForbidden, "%s role required", min))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequirePaymentRole admits members allowed to spend the vendor's money.
func RequirePaymentRole(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(enums.MemberRoleManager, logg)
}
