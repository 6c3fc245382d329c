package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zedmarket-backend/pkg/auth"
	"github.com/angelmondragon/zedmarket-backend/pkg/config"
	"github.com/angelmondragon/zedmarket-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	vendorID := uuid.New()
	token := mintTestToken(t, testJWT, vendorID, enums.MemberRoleOwner)

	var captured Principal
	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.VendorID != vendorID {
		t.Fatalf("expected vendor %s got %s", vendorID, captured.VendorID)
	}
	if captured.Role != enums.MemberRoleOwner {
		t.Fatalf("expected role owner got %s", captured.Role)
	}
}

func TestRequirePaymentRole(t *testing.T) {
	handler := RequirePaymentRole(nil)(okHandler())

	cases := map[enums.MemberRole]int{
		enums.MemberRoleOwner:   http.StatusOK,
		enums.MemberRoleManager: http.StatusOK,
		enums.MemberRoleStaff:   http.StatusForbidden,
		"auditor":               http.StatusForbidden,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), Principal{VendorID: uuid.New(), Role: role}))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("role %q: expected %d got %d", role, want, resp.Code)
		}
	}
}

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	handler := RequireRole(enums.MemberRoleStaff, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMemberRoleOrdering(t *testing.T) {
	if !enums.MemberRoleOwner.AtLeast(enums.MemberRoleManager) {
		t.Fatal("owner should cover manager")
	}
	if enums.MemberRoleStaff.AtLeast(enums.MemberRoleManager) {
		t.Fatal("staff should not cover manager")
	}
	if enums.MemberRole("").AtLeast(enums.MemberRoleStaff) {
		t.Fatal("empty role should grant nothing")
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, vendorID uuid.UUID, role enums.MemberRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{VendorID: vendorID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
