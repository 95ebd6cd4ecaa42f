/*
Package response - unified API response handling.

Design:
1. HTTP status mapping lives at the API layer; domain and application
   layers never see status codes.
2. Error responses never expose internals (stacks, wrapped messages).
   Internal errors log the real cause and return "internal server error".
3. Every response carries the request ID for log correlation.

Stack extraction: prefer the stack captured at the error's creation
point (shared.Stacker); fall back to capturing the handling point here.
*/
package response

import (
	stdErrors "errors"
	"runtime"

	"marketplace/domain/shared"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestID exposes the request ID to other API packages.
func GetRequestID(c *gin.Context) string {
	return getRequestID(c)
}

func captureStack(skip int) []string {
	var pcs [16]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		frame, more := frames.Next()
		if frame.Function != "" {
			stack = append(stack, frame.Function)
		}
		if !more {
			break
		}
	}
	return stack
}

// HandleError handles framework-level failures such as parameter
// binding, returning the given status directly.
func HandleError(c *gin.Context, err error, message string, code int) {
	requestID := getRequestID(c)

	logger.Error(message,
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Int("status", code),
		zap.Error(err))

	c.JSON(code, &Response{
		Success:   false,
		Error:     string(errors.CodeBadRequest),
		Message:   message,
		Code:      code,
		RequestID: requestID,
	})
}

// HandleAppError translates a business error into its HTTP shape: the
// domain sentinel is mapped to an application code, the code to a
// status, and the full chain is logged with the creation-point stack.
func HandleAppError(c *gin.Context, err error) {
	requestID := getRequestID(c)

	appErr := errors.MapDomainError(err)
	httpStatus := appErr.HTTPStatusCode()
	stack := extractStack(err)

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("error_code", string(appErr.Code)),
		zap.Int("http_status", httpStatus),
		zap.Strings("stack", stack),
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}
	// Client-side failures (not found, ownership, stale version) are
	// expected traffic; only server faults log at error.
	if httpStatus >= 500 {
		logger.Error(appErr.Message, fields...)
	} else {
		logger.Warn(appErr.Message, fields...)
	}

	userMessage := appErr.Message
	if appErr.Code == errors.CodeInternal {
		userMessage = "internal server error"
	}

	c.JSON(httpStatus, &Response{
		Success:   false,
		Error:     string(appErr.Code),
		Message:   userMessage,
		Code:      httpStatus,
		RequestID: requestID,
	})
}

func extractStack(err error) []string {
	var stacker shared.Stacker
	if stdErrors.As(err, &stacker) {
		if stack := stacker.Stack(); len(stack) > 0 {
			return stack
		}
	}
	return captureStack(4)
}
