package server

import (
	"errors"
	"fmt"
	"net/http"

	stderrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"

	"github.com/labstack/echo/v4"
)

// apiResponse is the envelope every /api route answers with.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondOK(c echo.Context, message string) error {
	if err := c.JSON(http.StatusOK, apiResponse{Success: true, Message: message}); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// ErrorHandlingMiddleware renders StandardErrors as the JSON envelope. echo
// HTTP errors pass through to the server's HTTPErrorHandler.
func ErrorHandlingMiddleware(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			return HandleError(c, log, err)
		}
	}
}

func HandleError(c echo.Context, log logger.Logger, err error) error {
	if err == nil {
		return nil
	}

	stdErr := stderrors.AsStandardError(err)
	logError(c, log, stdErr)

	if err := c.JSON(stdErr.HTTPStatus(), apiResponse{Success: false, Message: stdErr.Message}); err != nil {
		return fmt.Errorf("failed to write error response: %w", err)
	}
	return nil
}

func logError(c echo.Context, log logger.Logger, err *stderrors.StandardError) {
	fields := map[string]interface{}{
		"code":   string(err.Code),
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
		"status": err.HTTPStatus(),
	}
	if err.Details != "" {
		fields["details"] = err.Details
	}
	for k, v := range err.Metadata {
		fields[k] = v
	}

	switch err.HTTPStatus() {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests:
		log.Info("request rejected", fields)
	default:
		log.Error("request failed", fields)
	}
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := echo.ErrInternalServerError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		he = httpErr
	} else {
		s.logger.Error("unhandled error", map[string]interface{}{"error": err, "path": c.Request().URL.Path})
	}

	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, apiResponse{Success: false, Message: message})
}
