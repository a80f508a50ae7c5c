package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORS returns the permissive CORS policy the webview needs to call the
// listener from its own origin. Only real preflights (OPTIONS with both
// Origin and Access-Control-Request-Method) are answered locally; any other
// OPTIONS request falls through to the proxy handler.
func CORS() echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		Skipper: func(c echo.Context) bool {
			req := c.Request()
			return req.Method == http.MethodOptions && !isPreflight(req)
		},
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderContentType},
	})
}

func isPreflight(req *http.Request) bool {
	return req.Header.Get(echo.HeaderOrigin) != "" &&
		req.Header.Get(echo.HeaderAccessControlRequestMethod) != ""
}
