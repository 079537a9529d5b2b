package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	stderrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/validation"

	"github.com/labstack/echo/v4"
)

var loginSchema = validation.MustCompileSchema(`{
	"type": "object",
	"required": ["password"],
	"properties": {
		"password": {"type": "string"}
	}
}`)

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("failed to read login body: %w", err)
	}

	if result := loginSchema.ValidateJSON(body); !result.Valid {
		return stderrors.NewAuthError(fmt.Sprintf("malformed login body: %v", result.GetErrorMessages()))
	}

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return stderrors.NewAuthError("malformed login body")
	}

	out, err := s.sessions.Login(c.Response(), c.Request(), req.Password)
	if err != nil {
		return err
	}
	return respondOK(c, out.Message)
}

func (s *Server) handleLogout(c echo.Context) error {
	out, err := s.sessions.Logout(c.Response(), c.Request())
	if err != nil {
		return err
	}
	return respondOK(c, out.Message)
}

// requireAuth redirects anonymous clients to the login page.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.sessions.IsAuthenticated(c.Request()) {
			return c.Redirect(http.StatusFound, s.sessions.LoginPath())
		}
		return next(c)
	}
}
