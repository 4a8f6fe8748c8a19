package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avolkhin/storefront/internal/search"
	"github.com/avolkhin/storefront/internal/util"
)

// SearchHandler serves full-text queries over the public catalog.
type SearchHandler struct {
	Search *search.Service
}

func (h *SearchHandler) Handle(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	pageSize := parseIntDefault(c.QueryParam("pageSize"), util.DefaultPageSize)
	from, size := util.Calculate(page, pageSize)

	total, items, err := h.Search.Search(c.Request().Context(), q, from, size)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, productPage{Total: total, Page: page, PageSize: size, Items: items})
}
