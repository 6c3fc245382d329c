package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

var errMissingVendor = errors.New("vendor id claim missing")

// AccessTokenPayload is what the dashboard login hands to MintAccessToken.
// An empty JTI gets a random one.
type AccessTokenPayload struct {
	VendorID uuid.UUID
	Role     enums.MemberRole
	JTI      string
}

// AccessTokenClaims is the body of a vendor access token. The subject
// repeats the vendor id for tooling that only reads registered claims.
type AccessTokenClaims struct {
	VendorID uuid.UUID        `json:"vendor_id"`
	Role     enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks (expiry, issuer) pass.
func (c AccessTokenClaims) Validate() error {
	if c.VendorID == uuid.Nil {
		return errMissingVendor
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("invalid member role %q", c.Role)
	}
	return nil
}
