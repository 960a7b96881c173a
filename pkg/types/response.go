package types

// ErrorBody is the JSON error shape of the EcoEats backend: a human readable
// detail plus the typed code and, when allowed, field level details.
type ErrorBody struct {
	Detail  string `json:"detail"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
