package v1

import (
	"strconv"
	"strings"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// bindError turns a request binding failure into a validation error with
// user-facing field messages.
func bindError(err error) error {
	return apperror.Validation(strings.Join(validation.FormatValidationErrors(err), "; "))
}

// pageParams reads page and pageSize query parameters. Bad values fall back
// to the defaults applied by domain.NormalizePage.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	return page, pageSize
}

func statusFilter(c *gin.Context) (domain.FulfillmentStatus, error) {
	status := domain.FulfillmentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return "", apperror.Validation("Unknown fulfillment status: " + string(status))
	}
	return status, nil
}
