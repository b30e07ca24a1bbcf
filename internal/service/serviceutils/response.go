package serviceutils

import (
	"github.com/labstack/echo/v4"
)

type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ResponseSuccess(c echo.Context, code int, msg string, data interface{}) error {
	return c.JSON(code, GenericResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func ResponseError(c echo.Context, code int, msg string, err error) error {
	return ResponseErrorData(c, code, msg, err, nil)
}

// ResponseErrorData is ResponseError with a payload, such as the row errors
// of a rejected import.
func ResponseErrorData(c echo.Context, code int, msg string, err error, data interface{}) error {
	resp := GenericResponse{
		Success: false,
		Message: msg,
		Data:    data,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(code, resp)
}
