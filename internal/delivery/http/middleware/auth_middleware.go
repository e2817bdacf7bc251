package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/auth"
	"herbal-market-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	AuthCookieName         = "auth_token"
	PaymentSignatureHeader = "X-Payment-Signature"
)

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

// Authenticate verifies the bearer token (header first, then the auth_token
// cookie) and stores the subject and email. It does not touch the store.
func Authenticate(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, verifier) {
			c.Next()
		}
	}
}

func authenticate(c *gin.Context, verifier auth.TokenVerifier) bool {
	token := bearerToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required", gin.H{"kind": apperror.KindUnauthorized})
		c.Abort()
		return false
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		security.DefaultLogger().LogTokenInvalid(c.Request.Context(), c.ClientIP(), requestIDOf(c), err.Error())
		response.Error(c, http.StatusUnauthorized, "Invalid token", gin.H{"kind": apperror.KindUnauthorized})
		c.Abort()
		return false
	}

	c.Set(string(domain.KeyUserID), claims.Subject)
	c.Set(string(domain.KeyUserEmail), claims.Email)
	return true
}

// ResolvePrincipal loads the registered principal of the authenticated subject.
// The role always comes from the store, never from token claims.
func ResolvePrincipal(identity domain.IdentityUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolvePrincipal(c, identity) {
			c.Next()
		}
	}
}

func resolvePrincipal(c *gin.Context, identity domain.IdentityUsecase) bool {
	p, err := identity.Current(c.Request.Context(), c.GetString(string(domain.KeyUserID)))
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			err = apperror.Unauthorized("User is not registered")
		}
		c.Error(err)
		c.Abort()
		return false
	}
	c.Set(string(domain.KeyPrincipal), p)
	return true
}

// PaymentSignature resolves the payment gateway callback principal when the
// request carries the shared webhook secret. Otherwise the request falls
// through to token authentication.
func PaymentSignature(secret string, verifier auth.TokenVerifier, identity domain.IdentityUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		signature := c.GetHeader(PaymentSignatureHeader)
		if signature != "" {
			if secret == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(secret)) != 1 {
				security.DefaultLogger().LogTokenInvalid(c.Request.Context(), c.ClientIP(), requestIDOf(c), "payment signature mismatch")
				response.Error(c, http.StatusUnauthorized, "Invalid payment signature", gin.H{"kind": apperror.KindUnauthorized})
				c.Abort()
				return
			}
			c.Set(string(domain.KeyPrincipal), &domain.Principal{ID: domain.PaymentCallbackID, Role: domain.RoleSystem})
			c.Next()
			return
		}

		if authenticate(c, verifier) && resolvePrincipal(c, identity) {
			c.Next()
		}
	}
}

// PrincipalFrom returns the resolved principal, or nil for a guest.
func PrincipalFrom(c *gin.Context) *domain.Principal {
	v, ok := c.Get(string(domain.KeyPrincipal))
	if !ok {
		return nil
	}
	p, _ := v.(*domain.Principal)
	return p
}

// RequireRoles gates a route group with the access guard.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		decision := access.Guard(roles, p)
		if decision.Allowed {
			c.Next()
			return
		}

		role := domain.RoleOf(p)
		if role == domain.RoleGuest {
			c.Error(apperror.Unauthorized(decision.Reason))
		} else {
			security.DefaultLogger().LogAccessDenied(c.Request.Context(), p.ID, string(role), c.FullPath(), decision.Reason)
			c.Error(apperror.Forbidden(decision.Reason))
		}
		c.Abort()
	}
}
