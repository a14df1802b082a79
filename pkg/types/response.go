package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// PagedEnvelope wraps offset-paginated collections.
type PagedEnvelope struct {
	Data  any   `json:"data"`
	Total int64 `json:"total"`
}
