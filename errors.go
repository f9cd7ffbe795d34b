package main

import "errors"

var (
	ErrMissingColumn      = errors.New("missing required column")
	ErrInvalidOrderNumber = errors.New("invalid order number")
	ErrDuplicateOrder     = errors.New("duplicate order number")
	ErrDownloadFailed     = errors.New("download failed")
	ErrOrderRejected      = errors.New("order rejected by form validation")
	ErrElementNotFound    = errors.New("element not found")
)
