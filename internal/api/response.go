package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhle/planner/internal/planner"
)

// Response is the envelope of every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// statusFor maps an error kind onto an HTTP status. An already satisfied
// completion is not a failure of the request, so it stays 200.
func statusFor(k planner.Kind) int {
	switch k {
	case planner.KindNone, planner.KindAlreadySatisfied:
		return http.StatusOK
	case planner.KindAuthRequired:
		return http.StatusUnauthorized
	case planner.KindNotFound:
		return http.StatusNotFound
	case planner.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func success(c echo.Context, code int, msg string, data any) error {
	return c.JSON(code, Response{Success: true, Message: msg, Data: data})
}

// result writes data on success, or the classified error. data is still
// returned for already satisfied completions so clients see the unchanged
// item.
func result(c echo.Context, data any, err error) error {
	if err == nil {
		return success(c, http.StatusOK, "", data)
	}

	r := planner.ResultOf(err)
	resp := Response{Success: false, Message: r.Message, Error: r.Kind.String()}
	if r.Kind == planner.KindAlreadySatisfied {
		resp.Data = data
	}
	return c.JSON(statusFor(r.Kind), resp)
}

func badRequest(c echo.Context, msg string, err error) error {
	resp := Response{Success: false, Message: msg, Error: planner.KindInvalid.String()}
	if err != nil {
		resp.Message = msg + ": " + err.Error()
	}
	return c.JSON(http.StatusBadRequest, resp)
}
