package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubVerifier map[string]*auth.Claims

func (s stubVerifier) Verify(token string) (*auth.Claims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("signature is invalid")
}

type stubIdentity map[string]*domain.Principal

func (s stubIdentity) Register(ctx context.Context, subject, email string, declared domain.Role) (*domain.Principal, error) {
	return nil, errors.New("not used")
}

func (s stubIdentity) Current(ctx context.Context, subject string) (*domain.Principal, error) {
	if p, ok := s[subject]; ok {
		return p, nil
	}
	return nil, apperror.NotFound("Principal is not registered")
}

func (s stubIdentity) CompleteOnboarding(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	return nil, errors.New("not used")
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/t", append(handlers, func(c *gin.Context) { c.String(http.StatusOK, "ok") })...)
	r.POST("/t", append(handlers, func(c *gin.Context) { c.String(http.StatusOK, "ok") })...)
	return r
}

func TestAuthenticate(t *testing.T) {
	r := newEngine(Authenticate(stubVerifier{"good": {Subject: "u1"}}))

	t.Run("Should reject a missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("Should accept the auth cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "good"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should reject a bad bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		req.Header.Set("Authorization", "Bearer forged")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	withPrincipal := func(p *domain.Principal) gin.HandlerFunc {
		return func(c *gin.Context) {
			if p != nil {
				c.Set(string(domain.KeyPrincipal), p)
			}
			c.Next()
		}
	}

	cases := []struct {
		name string
		p    *domain.Principal
		code int
	}{
		{"guest", nil, http.StatusUnauthorized},
		{"user", &domain.Principal{ID: "u1", Role: domain.RoleUser}, http.StatusForbidden},
		{"planter", &domain.Principal{ID: "p1", Role: domain.RolePlanter}, http.StatusOK},
		{"admin", &domain.Principal{ID: "a1", Role: domain.RoleAdmin}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run("Should answer "+tc.name, func(t *testing.T) {
			r := newEngine(withPrincipal(tc.p), RequireRoles(domain.RolePlanter))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestPaymentSignature(t *testing.T) {
	var seen *domain.Principal
	capture := func(c *gin.Context) { seen = PrincipalFrom(c); c.Next() }
	r := newEngine(PaymentSignature("hook-secret", stubVerifier{}, nil), capture)

	t.Run("Should resolve the system principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/t", nil)
		req.Header.Set(PaymentSignatureHeader, "hook-secret")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		if assert.NotNil(t, seen) {
			assert.Equal(t, domain.RoleSystem, seen.Role)
			assert.Equal(t, domain.PaymentCallbackID, seen.ID)
		}
	})

	t.Run("Should fall back to the bearer token", func(t *testing.T) {
		calls := 0
		admin := &domain.Principal{ID: "a1", Role: domain.RoleAdmin}
		r := newEngine(
			PaymentSignature("hook-secret", stubVerifier{"admin": {Subject: "a1"}}, stubIdentity{"a1": admin}),
			func(c *gin.Context) { calls++; seen = PrincipalFrom(c); c.Next() },
		)

		req := httptest.NewRequest(http.MethodPost, "/t", nil)
		req.Header.Set("Authorization", "Bearer admin")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)
		assert.Equal(t, admin, seen)
	})

	t.Run("Should map an unregistered subject to unauthorized", func(t *testing.T) {
		r := newEngine(PaymentSignature("hook-secret", stubVerifier{"ghost": {Subject: "g1"}}, stubIdentity{}))
		req := httptest.NewRequest(http.MethodPost, "/t", nil)
		req.Header.Set("Authorization", "Bearer ghost")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should reject a wrong signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/t", nil)
		req.Header.Set(PaymentSignatureHeader, "guess")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	cases := map[error]int{
		apperror.IllegalTransition("no"):   http.StatusConflict,
		apperror.ChannelNotReady("wait"):   http.StatusConflict,
		apperror.Store(errors.New("down")): http.StatusServiceUnavailable,
		apperror.InvalidQuantity("qty"):    http.StatusBadRequest,
		errors.New("something unexpected"): http.StatusInternalServerError,
	}
	for err, code := range cases {
		r := newEngine(func(c *gin.Context) { c.Error(err); c.Abort() })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
		assert.Equal(t, code, w.Code, err.Error())
	}
}

func TestCSRF(t *testing.T) {
	r := newEngine(CSRFMiddleware(false))

	t.Run("Should require the header for cookie authenticated writes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/t", nil)
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "tok"})
		req.AddCookie(&http.Cookie{Name: CSRFTokenCookieName, Value: "abc"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)

		req.Header.Set(CSRFTokenHeaderName, "abc")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should skip bearer authenticated writes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/t", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
