package serverutils

// ApiResponse is the success envelope returned by every handler.
type ApiResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// ApiError is the failure envelope. Code mirrors the HTTP status.
type ApiError struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func SuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) ApiError {
	return ApiError{
		Success: false,
		Code:    code,
		Message: message,
	}
}
