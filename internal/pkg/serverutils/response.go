package serverutils

type SuccessResponseBody[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type ErrorResponseBody struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) *SuccessResponseBody[T] {
	return &SuccessResponseBody[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) *ErrorResponseBody {
	return &ErrorResponseBody{
		Success: false,
		Code:    code,
		Message: message,
	}
}
