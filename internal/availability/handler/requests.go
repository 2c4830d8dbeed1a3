package handler

import (
	"fmt"
	"strings"

	"discovery/internal/catalog"
	dErrors "discovery/pkg/domain-errors"
)

const (
	maxItems          = 500
	maxScholarRoomLen = 32
	maxFeatures       = 16
)

// ResolveRequest is the HTTP request body for POST /v1/availability/resolve.
type ResolveRequest struct {
	Items       []catalog.Item `json:"items"`
	ScholarRoom string         `json:"scholarRoom,omitempty"`
	Features    []string       `json:"features,omitempty"`
}

func (r *ResolveRequest) Normalize() {
	r.ScholarRoom = strings.TrimSpace(r.ScholarRoom)
	for i := range r.Features {
		r.Features[i] = strings.TrimSpace(r.Features[i])
	}
}

// Validate implements httputil.Validatable.
func (r *ResolveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "items is required")
	}
	if len(r.Items) > maxItems {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("items must contain at most %d entries", maxItems))
	}
	if len(r.ScholarRoom) > maxScholarRoomLen {
		return dErrors.New(dErrors.CodeValidation, "scholarRoom is too long")
	}
	if len(r.Features) > maxFeatures {
		return dErrors.New(dErrors.CodeValidation, "too many features")
	}
	for i, it := range r.Items {
		if strings.TrimSpace(it.ID) == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("items[%d].id is required", i))
		}
	}
	return nil
}
