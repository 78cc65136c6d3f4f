package domain

import "errors"

// Sentinel errors shared by the usecases and mapped to transport status codes
// by the HTTP and gRPC adapters.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidMarket        = errors.New("invalid market")
	ErrInvalidTier          = errors.New("invalid tier")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrUnsupportedMarket    = errors.New("unsupported market")
	ErrConflict             = errors.New("already exists")
)
