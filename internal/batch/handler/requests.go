package handler

import (
	dErrors "satpay/pkg/domain-errors"
)

// ParseRequest is the body for POST /v1/batch/parse and /v1/batch/validate.
type ParseRequest struct {
	CSV string `json:"csv"`
}

func (r *ParseRequest) Validate() error {
	if r == nil || r.CSV == "" {
		return dErrors.New(dErrors.CodeValidation, "csv is required")
	}
	return nil
}

// EstimateRequest is the body for POST /v1/batch/estimate and /v1/batch/execute.
// AvailableSats is the spendable balance of the sending wallet; the pipeline
// refuses to start when it cannot cover amounts plus estimated fees.
type EstimateRequest struct {
	CSV           string `json:"csv"`
	AvailableSats int64  `json:"available_sats"`
}

func (r *EstimateRequest) Validate() error {
	if r == nil || r.CSV == "" {
		return dErrors.New(dErrors.CodeValidation, "csv is required")
	}
	if r.AvailableSats < 0 {
		return dErrors.New(dErrors.CodeValidation, "available_sats must not be negative")
	}
	return nil
}
