package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avolkhin/storefront/internal/hash"
	auth "github.com/avolkhin/storefront/internal/middleware/auth"
	"github.com/avolkhin/storefront/internal/models"
	"github.com/avolkhin/storefront/internal/token"
)

type testEnv struct {
	DB     *gorm.DB
	Tokens *token.Service
	Auth   *AuthHandler
	P      *ProductHandler
	e      *echo.Echo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory db")
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}))

	tokens := token.New([]byte("test-secret"), time.Hour)

	return &testEnv{
		DB:     db,
		Tokens: tokens,
		Auth:   &AuthHandler{DB: db, Tokens: tokens},
		P:      &ProductHandler{DB: db},
		e:      echo.New(),
	}
}

// doJSON builds a request context the way the router would, optionally
// carrying an authenticated identity.
func (env *testEnv) doJSON(method, target string, body interface{}, user *models.User) (*httptest.ResponseRecorder, echo.Context) {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if user != nil {
		c.Set(auth.ContextUserID, user.ID)
		c.Set(auth.ContextUsername, user.Username)
	}
	return rec, c
}

func (env *testEnv) createUser(t *testing.T, username, password string) *models.User {
	t.Helper()

	passwordHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := models.User{Username: username, PasswordHash: passwordHash}
	require.NoError(t, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) createProduct(t *testing.T, owner *models.User, name string, price float64, public bool) *models.Product {
	t.Helper()

	product := models.Product{Name: name, Price: price, IsPublic: public, OwnerID: owner.ID}
	require.NoError(t, env.DB.Create(&product).Error)
	return &product
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
	return he
}
