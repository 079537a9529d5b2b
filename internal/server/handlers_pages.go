package server

import (
	"net/http"
	"net/url"
	"path"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

const (
	adminPage = "/admin.html"
	loginPage = "/login.html"
)

func (s *Server) registerPageRoutes() {
	s.echo.GET(adminPage, s.handleAdminPage, s.requireAuth)
	s.echo.GET(loginPage, s.handleLoginPage)
	s.echo.GET("/*", s.handleStatic)
}

func (s *Server) handleAdminPage(c echo.Context) error {
	return s.serveFile(c, adminPage)
}

func (s *Server) handleLoginPage(c echo.Context) error {
	return s.serveFile(c, loginPage)
}

// handleStatic serves everything else from the static directory. Any path
// that resolves to the admin page still goes through the guard.
func (s *Server) handleStatic(c echo.Context) error {
	p, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid path").SetInternal(err)
	}
	name := path.Clean("/" + p)

	if name == adminPage {
		return s.requireAuth(s.handleAdminPage)(c)
	}
	return s.serveFile(c, name)
}

func (s *Server) serveFile(c echo.Context, name string) error {
	return c.File(filepath.Join(s.config.Server.StaticDir, filepath.FromSlash(name)))
}
