package fault

import (
	"errors"
	"fmt"
)

// Классы ошибок ядра. Каждая операция оборачивает конкретную причину
// через %w в один из этих sentinel-ов, HTTP-слой маппит их на статусы.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrTransport        = errors.New("device transport error")
	ErrValidation       = errors.New("validation error")
	ErrPrecondition     = errors.New("integrity precondition failed")
)

// Denied — PermissionDenied с пояснением.
func Denied(msg string) error { return fmt.Errorf("%w: %s", ErrPermissionDenied, msg) }

// NotFoundf — NotFound с форматированным пояснением.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf — Conflict с форматированным пояснением.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Transport — TransportError, сохраняет исходную причину в тексте.
func Transport(err error) error { return fmt.Errorf("%w: %v", ErrTransport, err) }

// Invalidf — ValidationError с форматированным пояснением.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Preconditionf — IntegrityPrecondition с форматированным пояснением.
func Preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
