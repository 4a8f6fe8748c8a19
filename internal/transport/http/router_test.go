package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avolkhin/storefront/internal/handlers"
	"github.com/avolkhin/storefront/internal/models"
	"github.com/avolkhin/storefront/internal/token"
)

func newServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}))

	tokens := token.New([]byte("test-secret"), time.Hour)

	e := echo.New()
	Register(e, &Deps{
		Tokens:         tokens,
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens},
		ProductHandler: &handlers.ProductHandler{DB: db},
		WeatherHandler: handlers.NewWeatherHandler("http://127.0.0.1:0"),
	})
	return e, db
}

func call(e *echo.Echo, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()

	rec := call(e, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestValidateTokenRoute(t *testing.T) {
	e, _ := newServer(t)
	tok := register(t, e, "alice", "pw1")

	require.Equal(t, http.StatusOK, call(e, http.MethodPost, "/api/auth/validateToken", tok, nil).Code)
	require.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/api/auth/validateToken", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/api/auth/validateToken", "garbage", nil).Code)
}

// Register alice and bob; alice creates a private product; bob can
// neither see nor touch it.
func TestOwnershipScenario(t *testing.T) {
	e, _ := newServer(t)
	alice := register(t, e, "alice", "pw1")
	bob := register(t, e, "bob", "pw2")

	rec := call(e, http.MethodPost, "/api/products", alice, map[string]interface{}{
		"name": "X", "price": 10.0, "isPublic": false,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/api/products/%d", created.ID)

	var page struct {
		Total int64            `json:"total"`
		Items []models.Product `json:"items"`
	}
	rec = call(e, http.MethodGet, "/api/products", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Zero(t, page.Total)

	rec = call(e, http.MethodGet, "/api/products", alice, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, "X", page.Items[0].Name)

	require.Equal(t, http.StatusForbidden, call(e, http.MethodGet, path, bob, nil).Code)
	require.Equal(t, http.StatusForbidden, call(e, http.MethodDelete, path, bob, nil).Code)
	require.Equal(t, http.StatusForbidden, call(e, http.MethodPut, path, bob, map[string]interface{}{
		"name": "hijacked", "price": 1.0,
	}).Code)

	// writes require a token at the router level
	require.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/api/products", "", map[string]interface{}{
		"name": "Y", "price": 1.0,
	}).Code)
	require.Equal(t, http.StatusUnauthorized, call(e, http.MethodDelete, path, "", nil).Code)

	require.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, path, alice, nil).Code)
	require.Equal(t, http.StatusNotFound, call(e, http.MethodGet, path, alice, nil).Code)
}

func TestHealthRoutes(t *testing.T) {
	e, _ := newServer(t)
	require.Equal(t, http.StatusOK, call(e, http.MethodGet, "/health/live", "", nil).Code)
	require.Equal(t, http.StatusOK, call(e, http.MethodGet, "/health/ready", "", nil).Code)
}
