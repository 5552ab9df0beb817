package domain

import "errors"

var (
	ErrNoAlgorithmsSelected   = errors.New("no algorithms selected")
	ErrNoCapabilitiesSelected = errors.New("no antenna types selected")
	ErrMalformedImport        = errors.New("malformed import: expected an object with a \"scenarios\" list")
	ErrInvalidScenario        = errors.New("invalid scenario")
	ErrUnknownPattern         = errors.New("unknown obstacle pattern")
	ErrBatchInProgress        = errors.New("a batch is already running")
	ErrRunNotFound            = errors.New("run not found")
)
