package dto

// ===========================================================================
// Response DTOs
// Standard response envelope for the dashboard API. The widget endpoints
// (/api/conversations, /api/messages) intentionally bypass this and return
// raw rows - that shape is the embed contract.
// ===========================================================================

// Response is the standard envelope for all dashboard API responses
type Response struct {
	// Success whether the request succeeded
	Success bool `json:"success"`

	// Data payload on success
	Data interface{} `json:"data,omitempty"`

	// Error error details on failure
	Error *APIError `json:"error,omitempty"`
}

// APIError standard error shape
type APIError struct {
	// Code machine-readable code (e.g. "NOT_FOUND", "INVALID_REQUEST")
	Code string `json:"code"`

	// Message human-readable detail
	Message string `json:"message"`
}

// Success builds a success response
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// Error builds an error response
func Error(code, message string) Response {
	return Response{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	}
}
