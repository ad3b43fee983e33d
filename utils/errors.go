package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func NewAPIErrorWithDetails(code int, message, details string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

var (
	ErrInvalidRequest  = NewAPIError(http.StatusBadRequest, "Invalid request")
	ErrUnauthorized    = NewAPIError(http.StatusUnauthorized, "Unauthorized")
	ErrForbidden       = NewAPIError(http.StatusForbidden, "Forbidden")
	ErrNotFound        = NewAPIError(http.StatusNotFound, "Resource not found")
	ErrTooManyRequests = NewAPIError(http.StatusTooManyRequests, "Too many requests")
	ErrInternalServer  = NewAPIError(http.StatusInternalServerError, "Internal server error")
)

var (
	ErrShopNotFound    = NewAPIError(http.StatusNotFound, "Shop not found")
	ErrVoucherNotFound = NewAPIError(http.StatusNotFound, "Voucher not found")
	ErrOrderNotFound   = NewAPIError(http.StatusNotFound, "Order not found")
	ErrUserNotFound    = NewAPIError(http.StatusNotFound, "User not found")
)

// Business rejections on the seckill path. These are expected outcomes and
// returned to the caller as typed results, never logged as errors.
var (
	ErrSaleNotStarted   = NewAPIError(http.StatusBadRequest, "Sale has not started")
	ErrSaleEnded        = NewAPIError(http.StatusBadRequest, "Sale has ended")
	ErrOutOfStock       = NewAPIError(http.StatusConflict, "Out of stock")
	ErrAlreadyPurchased = NewAPIError(http.StatusConflict, "Voucher already purchased")
	ErrOrderInProgress  = NewAPIError(http.StatusConflict, "Another order for this user is in progress")
)

// ErrStockDepleted is the conditional decrement affecting zero rows: the
// advisory pre-check saw stock but the authoritative guard did not. Callers
// see it as out-of-stock; internally it is kept distinct so the late
// discovery can be observed.
var ErrStockDepleted = NewAPIError(http.StatusConflict, "Out of stock")

var (
	ErrInvalidPhone = NewAPIError(http.StatusBadRequest, "Invalid phone number")
	ErrInvalidCode  = NewAPIError(http.StatusBadRequest, "Invalid verification code")
)

var (
	ErrDatabaseQuery       = NewAPIError(http.StatusInternalServerError, "Database query failed")
	ErrDatabaseTransaction = NewAPIError(http.StatusInternalServerError, "Database transaction failed")
	ErrCacheUnavailable    = NewAPIError(http.StatusServiceUnavailable, "Cache unavailable")
)

func WrapError(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

func WrapAPIError(err error, apiErr *APIError) error {
	return fmt.Errorf("%s: %w", apiErr.Message, err)
}

// IsBusinessRejection reports whether err is one of the expected seckill
// rejections rather than an infrastructure fault.
func IsBusinessRejection(err error) bool {
	for _, rejection := range []*APIError{
		ErrSaleNotStarted,
		ErrSaleEnded,
		ErrOutOfStock,
		ErrStockDepleted,
		ErrAlreadyPurchased,
		ErrOrderInProgress,
	} {
		if errors.Is(err, rejection) {
			return true
		}
	}
	return false
}

func GetHTTPStatusFromError(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return http.StatusInternalServerError
}
