package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avolkhin/storefront/internal/events"
	"github.com/avolkhin/storefront/internal/logging"
	auth "github.com/avolkhin/storefront/internal/middleware/auth"
	"github.com/avolkhin/storefront/internal/models"
	"github.com/avolkhin/storefront/internal/search"
	"github.com/avolkhin/storefront/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Search   *search.Service
}

type productRequest struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	IsPublic bool    `json:"isPublic"`
}

type productPage struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Items    []models.Product `json:"items"`
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// visible scopes a query to what the requester may see: public products
// plus the requester's own.
func visible(db *gorm.DB, requester uint) *gorm.DB {
	return db.Where("is_public = ? OR owner_id = ?", true, requester)
}

func (h *ProductHandler) syncIndex(c echo.Context, p *models.Product) {
	if err := h.Search.Sync(c.Request().Context(), p); err != nil {
		logging.FromContext(c.Request().Context()).Error("search index sync failed", "error", err)
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	requester := auth.RequesterID(c)
	page := parseIntDefault(c.QueryParam("page"), 1)
	pageSize := parseIntDefault(c.QueryParam("pageSize"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, pageSize)

	category := c.QueryParam("category")
	filtered := func() *gorm.DB {
		q := visible(h.DB.Model(&models.Product{}), requester)
		if category != "" {
			q = q.Where("category = ?", category)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return fmt.Errorf("counting products: %w", err)
	}

	var items []models.Product
	if err := filtered().Preload("Owner").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return fmt.Errorf("listing products: %w", err)
	}

	return c.JSON(http.StatusOK, productPage{Total: total, Page: page, PageSize: limit, Items: items})
}

func (h *ProductHandler) GetByID(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.Preload("Owner").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return fmt.Errorf("loading product %d: %w", id, err)
	}

	if !product.IsPublic && product.OwnerID != auth.RequesterID(c) {
		return echo.NewHTTPError(http.StatusForbidden)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	requester := auth.RequesterID(c)
	if requester == auth.AnonymousID {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price invalid")
	}

	product := models.Product{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		IsPublic: req.IsPublic,
		OwnerID:  requester,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return fmt.Errorf("creating product: %w", err)
	}

	var owner models.User
	if err := h.DB.First(&owner, requester).Error; err == nil {
		product.Owner = &owner
	}

	h.publish(c, "product_created", &product)
	h.syncIndex(c, &product)

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ID != 0 && req.ID != uint(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "id mismatch")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price invalid")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return fmt.Errorf("loading product %d: %w", id, err)
	}

	if product.OwnerID != auth.RequesterID(c) {
		return echo.NewHTTPError(http.StatusForbidden)
	}

	product.Name = req.Name
	product.Category = req.Category
	product.Price = req.Price
	product.IsPublic = req.IsPublic
	if err := h.DB.Save(&product).Error; err != nil {
		return fmt.Errorf("updating product %d: %w", id, err)
	}

	h.publish(c, "product_updated", &product)
	h.syncIndex(c, &product)

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return fmt.Errorf("loading product %d: %w", id, err)
	}

	if product.OwnerID != auth.RequesterID(c) {
		return echo.NewHTTPError(http.StatusForbidden)
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}

	h.publish(c, "product_deleted", &product)
	if err := h.Search.Remove(c.Request().Context(), product.ID); err != nil {
		logging.FromContext(c.Request().Context()).Error("search index remove failed", "error", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) publish(c echo.Context, eventType string, p *models.Product) {
	event := map[string]interface{}{
		"type":      eventType,
		"productID": p.ID,
		"name":      p.Name,
		"ownerID":   p.OwnerID,
	}
	if err := h.Producer.PublishEvent(c.Request().Context(), events.TopicProducts, fmt.Sprint(p.OwnerID), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("event publish failed", "error", err)
	}
}
