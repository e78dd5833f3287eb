package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juniorxam/vacina/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenManager() (*TokenManager, *testclock.Clock) {
	clk := testclock.NewClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	return NewTokenManager(testSecret, 8*time.Hour, clk), clk
}

func issue(t *testing.T, tm *TokenManager, tier models.Tier) string {
	t.Helper()
	token, _, err := tm.GenerateAccessToken(&models.Principal{Login: "maria", Name: "MARIA", Tier: tier, AllowedUnit: "SMS"})
	require.NoError(t, err)
	return token
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, clk := newTestTokenManager()

	token, expiresAt, err := tm.GenerateAccessToken(&models.Principal{Login: "maria", Name: "MARIA", Tier: models.TierOperator})
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(8*time.Hour), expiresAt)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "maria", claims.Login)
	assert.Equal(t, models.TierOperator, claims.Tier)
	assert.NotEmpty(t, claims.ID)

	p := Principal(claims)
	assert.Equal(t, "MARIA", p.Name)
}

func TestTokenManager_Expired(t *testing.T) {
	tm, clk := newTestTokenManager()
	token := issue(t, tm, models.TierViewer)

	clk.Advance(8*time.Hour + time.Second)

	_, err := tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm, clk := newTestTokenManager()
	other := NewTokenManager("fedcba9876543210fedcba9876543210", time.Hour, clk)

	_, err := other.ValidateToken(issue(t, tm, models.TierAdmin))
	assert.Error(t, err)
}

func serve(t *testing.T, handler http.Handler, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tm, _ := newTestTokenManager()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen *models.TokenClaims
	handler := AuthMiddleware(tm, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + issue(t, tm, models.TierViewer), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, handler, tt.header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, "maria", seen.Login)
}

func TestRequireTier(t *testing.T) {
	tm, _ := newTestTokenManager()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name     string
		tier     models.Tier
		required models.Tier
		status   int
	}{
		{"admin reaches admin", models.TierAdmin, models.TierAdmin, http.StatusOK},
		{"admin reaches viewer", models.TierAdmin, models.TierViewer, http.StatusOK},
		{"operator reaches viewer", models.TierOperator, models.TierViewer, http.StatusOK},
		{"operator blocked from admin", models.TierOperator, models.TierAdmin, http.StatusForbidden},
		{"viewer blocked from operator", models.TierViewer, models.TierOperator, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(tm, logger)(RequireTier(tt.required)(ok))
			w := serve(t, handler, "Bearer "+issue(t, tm, tt.tier))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireTier_WithoutClaims(t *testing.T) {
	handler := RequireTier(models.TierViewer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := serve(t, handler, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
