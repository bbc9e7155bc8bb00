package types

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// MessageBody is returned by operations that have no resource to echo back.
type MessageBody struct {
	Message string `json:"message"`
}
