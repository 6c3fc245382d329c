package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

type principalKey struct{}

// Principal is the authenticated caller: the vendor an access token was
// minted for and the member's role within it.
type Principal struct {
	VendorID uuid.UUID
	Role     enums.MemberRole
}

// WithPrincipal stores p on ctx. A principal without a vendor is ignored.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.VendorID == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
