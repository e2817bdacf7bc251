package access_test

import (
	"testing"

	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	planter := &domain.Principal{ID: "p1", Role: domain.RolePlanter}
	user := &domain.Principal{ID: "u1", Role: domain.RoleUser}
	admin := &domain.Principal{ID: "a1", Role: domain.RoleAdmin}

	t.Run("Should allow a listed role", func(t *testing.T) {
		d := access.Guard(access.Providers, planter)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
	})

	t.Run("Should deny an unlisted role with a reason", func(t *testing.T) {
		d := access.Guard(access.Providers, user)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "role user is not allowed")
	})

	t.Run("Should always allow admins", func(t *testing.T) {
		assert.True(t, access.Guard(access.Providers, admin).Allowed)
		assert.True(t, access.Guard(access.Payments, admin).Allowed)
	})

	t.Run("Should deny guests as unauthenticated", func(t *testing.T) {
		d := access.Guard(access.Members, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, "authentication required", d.Reason)
	})

	t.Run("Should allow guests only where guest is listed", func(t *testing.T) {
		assert.True(t, access.Guard([]domain.Role{domain.RoleGuest}, nil).Allowed)
	})

	t.Run("Should keep the system role out of member routes", func(t *testing.T) {
		system := &domain.Principal{ID: domain.PaymentCallbackID, Role: domain.RoleSystem}
		assert.False(t, access.Guard(access.Members, system).Allowed)
		assert.True(t, access.Guard(access.Payments, system).Allowed)
	})
}
