package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Every error returned by this package wraps one of these so
// callers can classify it with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrInsufficientResource = errors.New("insufficient resource")
	ErrOutOfStock           = errors.New("out of stock")
	ErrValidation           = errors.New("validation error")
)

var (
	ErrAlreadyPaused      = fmt.Errorf("%w: session is already paused", ErrInvalidState)
	ErrNotPaused          = fmt.Errorf("%w: session is not paused", ErrInvalidState)
	ErrTableUnavailable   = fmt.Errorf("%w: table is not available", ErrInvalidState)
	ErrSessionNotActive   = fmt.Errorf("%w: session is not active", ErrInvalidState)
	ErrPackageCycle       = fmt.Errorf("%w: package parent chain contains a cycle", ErrInvalidState)
	ErrAlreadySettled     = fmt.Errorf("%w: session already has a receipt", ErrInvalidState)
	ErrInsufficientStock  = fmt.Errorf("%w: insufficient stock", ErrInsufficientResource)
	ErrInsufficientPoints = fmt.Errorf("%w: insufficient points", ErrInsufficientResource)
)

// StockError reports which menu item is short and by how much.
type StockError struct {
	MenuID    uint   `json:"menu_id"`
	MenuName  string `json:"menu_name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (menu %d): requested %d, available %d",
		e.MenuName, e.MenuID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// PointsError reports a redemption larger than the member balance.
type PointsError struct {
	MemberID  uint `json:"member_id"`
	Requested int  `json:"requested"`
	Available int  `json:"available"`
}

func (e *PointsError) Error() string {
	return fmt.Sprintf("insufficient points for member %d: requested %d, available %d",
		e.MemberID, e.Requested, e.Available)
}

func (e *PointsError) Unwrap() error { return ErrInsufficientPoints }

// notFound converts gorm's record-not-found into ErrNotFound and wraps other
// errors with the failed action.
func notFound(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
	}
	return fmt.Errorf("failed to load %s %v: %w", what, id, err)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
