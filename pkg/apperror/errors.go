package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidEmail() *AppError {
	return New("AUTH_001", "The email address is invalid", http.StatusBadRequest)
}

func ErrWrongPassword() *AppError {
	return New("AUTH_002", "The password is incorrect", http.StatusUnauthorized)
}

func ErrUserDisabled() *AppError {
	return New("AUTH_003", "This account has been disabled", http.StatusForbidden)
}

func ErrOperationNotAllowed() *AppError {
	return New("AUTH_004", "Sign-in with email and password is not enabled", http.StatusForbidden)
}

func ErrEmailAlreadyInUse() *AppError {
	return New("AUTH_005", "An account with this email address already exists", http.StatusConflict)
}

func ErrUserNotFound() *AppError {
	return New("AUTH_006", "User with this email address not found", http.StatusNotFound)
}

func ErrRequiresRecentLogin() *AppError {
	return New("AUTH_007", "Recent sign-in required for this operation", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_008", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAuthUnknown(err error) *AppError {
	return Wrap("AUTH_000", "An unknown authentication error occurred", http.StatusInternalServerError, err)
}

// ---- Settlement (TXN) ----

func ErrInvalidAmount() *AppError {
	return New("TXN_001", "Invalid amount", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("TXN_002", "Insufficient funds", http.StatusUnprocessableEntity)
}

func ErrInvalidRate() *AppError {
	return New("TXN_003", "Invalid exchange rate", http.StatusBadRequest)
}

// ---- Watchlists (WL) ----

func ErrWatchlistNotFound() *AppError {
	return New("WL_001", "Watchlist not found", http.StatusNotFound)
}

func ErrWatchlistNameTaken() *AppError {
	return New("WL_002", "A watchlist with this name already exists", http.StatusConflict)
}

func ErrRateNotPinned() *AppError {
	return New("WL_003", "Rate is not pinned to this watchlist", http.StatusNotFound)
}

// ---- Rate source (RATE) ----

func ErrRateSourceUnavailable(err error) *AppError {
	return Wrap("RATE_001", "Exchange rate service is unavailable", http.StatusBadGateway, err)
}

func ErrFetchSuperseded() *AppError {
	return New("RATE_002", "Rate history fetch superseded by a newer request", http.StatusConflict)
}

func ErrUnknownCurrency(code string) *AppError {
	return New("RATE_003", fmt.Sprintf("Unknown currency code %q", code), http.StatusNotFound)
}

// ---- Persistence (STORE) ----

func ErrLedgerNotFound() *AppError {
	return New("STORE_001", "Ledger document not found", http.StatusNotFound)
}

func ErrLedgerDecode(err error) *AppError {
	return Wrap("STORE_002", "Ledger document is malformed", http.StatusInternalServerError, err)
}

func ErrWriteFailed(err error) *AppError {
	return Wrap("STORE_003", "Failed to persist ledger state", http.StatusServiceUnavailable, err)
}

// ---- Rate Limiting (LIM) ----

func ErrRateLimitExceeded() *AppError {
	return New("LIM_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request-validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
