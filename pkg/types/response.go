package types

import "github.com/caterbase/caterbase-backend/pkg/pagination"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ListEnvelope wraps paged collections; Pagination carries the page
// descriptor alongside the rows.
type ListEnvelope struct {
	Data       any             `json:"data"`
	Pagination pagination.Page `json:"pagination"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
