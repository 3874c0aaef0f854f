package domain

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidDesign           = errors.New("invalid design spec")
	ErrMissingMandatoryControl = errors.New("missing mandatory control")
	ErrGeometryPackIncomplete  = errors.New("geometry pack incomplete")
	ErrControlImageFailure     = errors.New("control image failure")
	ErrRateLimited             = errors.New("rate limited")
	ErrBackendFailure          = errors.New("backend failure")
	ErrFidelityBelowThreshold  = errors.New("fidelity below threshold")
	ErrDriftBelowThreshold     = errors.New("drift below threshold")
	ErrRunAborted              = errors.New("run aborted")
)
