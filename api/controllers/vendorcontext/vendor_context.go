package vendorcontext

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
)

// ResolveVendorID returns the vendor the caller authenticated as.
func ResolveVendorID(r *http.Request) (uuid.UUID, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor context required")
	}
	return principal.VendorID, nil
}
