package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avolkhin/storefront/internal/handlers"
	auth "github.com/avolkhin/storefront/internal/middleware/auth"
	"github.com/avolkhin/storefront/internal/token"
)

type Deps struct {
	Tokens         *token.Service
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	SearchHandler  *handlers.SearchHandler
	WeatherHandler *handlers.WeatherHandler
}

func Register(e *echo.Echo, d *Deps) {
	// Uncaught faults surface as a 500 carrying the error text. A
	// debugging aid kept from the original deployment, not a hardened
	// behavior.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if _, ok := err.(*echo.HTTPError); !ok {
			err = echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	required := auth.Require(d.Tokens)
	optional := auth.Optional(d.Tokens)

	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/validateToken", d.AuthHandler.ValidateToken, required)

	products := e.Group("/api/products")
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Handle)
	}
	products.GET("", d.ProductHandler.List, optional)
	products.GET("/:id", d.ProductHandler.GetByID, optional)
	products.POST("", d.ProductHandler.Create, required)
	products.PUT("/:id", d.ProductHandler.Update, required)
	products.DELETE("/:id", d.ProductHandler.Delete, required)

	e.GET("/api/external/weather", d.WeatherHandler.Get)
	e.GET("/WeatherForecast", d.WeatherHandler.Get)
}
