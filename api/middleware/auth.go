package middleware

import (
	"net/http"

	"github.com/angelmondragon/zedmarket-backend/api/responses"
	"github.com/angelmondragon/zedmarket-backend/api/validators"
	pkgAuth "github.com/angelmondragon/zedmarket-backend/pkg/auth"
	"github.com/angelmondragon/zedmarket-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
)

// Auth requires a bearer access token and attaches its Principal to the
// request context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx = WithPrincipal(ctx, Principal{VendorID: claims.VendorID, Role: claims.Role})
			if logg != nil {
				ctx = logg.WithField(logg.WithVendorID(ctx, claims.VendorID.String()), "actor_role", claims.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
