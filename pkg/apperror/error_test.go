package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"herbal-market-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	t.Run("Should map each kind to its HTTP status", func(t *testing.T) {
		cases := []struct {
			err  *apperror.AppError
			code int
			kind apperror.Kind
		}{
			{apperror.Validation("bad"), http.StatusBadRequest, apperror.KindValidation},
			{apperror.InvalidQuantity("bad"), http.StatusBadRequest, apperror.KindInvalidQuantity},
			{apperror.NotFound("missing"), http.StatusNotFound, apperror.KindNotFound},
			{apperror.Forbidden("no"), http.StatusForbidden, apperror.KindForbidden},
			{apperror.IllegalTransition("no"), http.StatusConflict, apperror.KindIllegalTransition},
			{apperror.Unavailable("no"), http.StatusConflict, apperror.KindUnavailable},
			{apperror.ChannelNotReady("wait"), http.StatusConflict, apperror.KindChannelNotReady},
			{apperror.Store(errors.New("down")), http.StatusServiceUnavailable, apperror.KindStore},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.kind, tc.err.Kind)
		}
	})

	t.Run("Should match kinds through wrapping", func(t *testing.T) {
		err := fmt.Errorf("transition: %w", apperror.IllegalTransition("confirmed -> shipped"))
		assert.True(t, apperror.Is(err, apperror.KindIllegalTransition))
		assert.False(t, apperror.Is(err, apperror.KindForbidden))
		assert.Equal(t, apperror.KindIllegalTransition, apperror.KindOf(err))
	})

	t.Run("Should keep the store cause reachable but hidden from the message", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := apperror.Store(cause)
		assert.ErrorIs(t, err, cause)
		assert.NotContains(t, err.Error(), "connection reset")
	})

	t.Run("Should report untyped errors as internal", func(t *testing.T) {
		assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))
	})
}
