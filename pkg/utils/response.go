package utils

import (
	"errors"
	"net/http"
	"strconv"

	"corralx-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes a uniform JSON error body.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// HandleServiceError maps the service-layer sentinel errors onto HTTP
// statuses. Anything unrecognized is a 500; the detailed error is logged
// server-side and not leaked to the client.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrNotParticipant):
		return RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrReviewAlreadySubmitted):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrSelfPurchase),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrOrderNotPending),
		errors.Is(err, models.ErrReceiptUnavailable),
		errors.Is(err, models.ErrReviewNotAllowed),
		errors.Is(err, models.ErrRatingRequired):
		return RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		c.Logger().Errorf("unhandled service error: %v", err)
		return RespondWithError(c, http.StatusInternalServerError, "internal server error")
	}
}

// ExtractProfileID reads the acting profile id that the auth middleware put
// into the request context. Every lifecycle operation receives this value
// explicitly; nothing below the handler reads ambient auth state.
func ExtractProfileID(c echo.Context) (int64, error) {
	profileID, ok := c.Get("profileID").(int64)
	if !ok || profileID <= 0 {
		return 0, RespondWithError(c, http.StatusUnauthorized, "missing or invalid authentication")
	}
	return profileID, nil
}

// GetPageLimit parses pagination query params with sane defaults.
func GetPageLimit(c echo.Context) (int, int) {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
