package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyReviewed  = errors.New("report already reviewed")
	ErrDecisionInFlight = errors.New("decision already in flight")
	ErrAlreadyResolved  = errors.New("claim already resolved")
)
