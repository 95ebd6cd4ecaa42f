package response

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// Response is the unified envelope for every API reply.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}
