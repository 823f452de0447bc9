package types

// SuccessEnvelope wraps every successful API response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a failed request. Code carries the stable
// machine-readable error code and Details optional field-level context.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error API response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
