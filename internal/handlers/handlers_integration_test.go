package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
)

// setupApp builds a Fiber app against an in-memory SQLite database, with
// authentication wired the same way main does it.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo, nil) // nil RabbitMQ client
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	productHandler := handlers.NewProductHandler(productService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)

	return app
}

// doJSON issues a JSON request with an optional bearer token.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	resp.Body.Close()
}

// loginTestUser registers a fresh account and returns its token.
func loginTestUser(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "manager",
		"email":    "manager@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "manager",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func TestProductLifecycle(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)

	// Create
	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name":        "Cheeseburger",
		"description": "Double patty",
		"price":       19.9,
		"category":    "Lanche",
		"stock":       10,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)

	// Round-trip
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	decodeBody(t, resp, &fetched)
	assert.Equal(t, created, fetched)

	// Patch: only the price changes
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/products/"+created.ID, token, map[string]interface{}{
		"price": 21.5,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var patched models.Product
	decodeBody(t, resp, &patched)
	assert.Equal(t, 21.5, patched.Price)
	assert.Equal(t, "Cheeseburger", patched.Name)
	assert.Equal(t, 10, patched.Stock)

	// Reserve 4 of 10 -> 6
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/"+created.ID+"/reserve", token, map[string]int{"qty": 4})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Reserve 6 of 6 -> 0
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/"+created.ID+"/reserve", token, map[string]int{"qty": 6})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Reserve 1 of 0 -> conflict, stock stays 0
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/"+created.ID+"/reserve", token, map[string]int{"qty": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	decodeBody(t, resp, &fetched)
	assert.Equal(t, 0, fetched.Stock)

	// Soft delete
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Still addressable by ID after the soft delete
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)

	// Excluded from the active listing, present in the inactive one
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products?active=true", token, nil)
	var listed []models.Product
	decodeBody(t, resp, &listed)
	assert.Empty(t, listed)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products?active=false", token, nil)
	decodeBody(t, resp, &listed)
	assert.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	// Reactivate
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/"+created.ID+"/activate", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products?active=true", token, nil)
	decodeBody(t, resp, &listed)
	assert.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestReserveInactiveProduct(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name": "Sundae", "price": 8.0, "category": "Sobremesa", "stock": 5,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decodeBody(t, resp, &created)

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Reserving an inactive product is a conflict, not a not-found.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/"+created.ID+"/reserve", token, map[string]int{"qty": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	var fetched models.Product
	decodeBody(t, resp, &fetched)
	assert.Equal(t, 5, fetched.Stock)
}

func TestReserveValidationAndNotFound(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name": "Coffee", "price": 5.0, "category": "Bebida", "stock": 3,
	})
	var created models.Product
	decodeBody(t, resp, &created)

	// Non-positive quantity is a client error, not a conflict.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/"+created.ID+"/reserve", token, map[string]int{"qty": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/"+created.ID+"/reserve", token, map[string]int{"qty": -2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Reserving an unknown ID reports the single conflict kind.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/unknown/reserve", token, map[string]int{"qty": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Plain lookups of an unknown ID stay 404.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/products/unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateProductValidation(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)

	// Negative price
	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name": "Bad Price", "price": -1.0, "category": "Lanche", "stock": 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown category
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name": "Bad Category", "price": 1.0, "category": "Pizza", "stock": 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Duplicate name
	body := map[string]interface{}{"name": "Unique Burger", "price": 10.0, "category": "Lanche", "stock": 1}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products", token, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decodeBody(t, resp, &created)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/products", token, body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// A patch carrying a negative stock is rejected and nothing changes.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/products/"+created.ID, token, map[string]interface{}{
		"stock": -7,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	var fetched models.Product
	decodeBody(t, resp, &fetched)
	assert.Equal(t, 1, fetched.Stock)
}

func TestInventorySummary(t *testing.T) {
	app := setupApp(t)
	token := loginTestUser(t, app)

	for _, p := range []map[string]interface{}{
		{"name": "Burger", "price": 10.0, "category": "Lanche", "stock": 5},
		{"name": "Fries", "price": 4.0, "category": "Acompanhamento", "stock": 10},
	} {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/products", token, p)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, app, http.MethodGet, "/api/v1/products/summary", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summary services.InventorySummary
	decodeBody(t, resp, &summary)
	assert.Equal(t, 2, summary.TotalProducts)
	assert.Equal(t, 2, summary.ActiveProducts)
	assert.Equal(t, 15, summary.TotalStock)
	assert.Equal(t, 90.0, summary.TotalValuation)
	assert.Equal(t, 1, summary.ByCategory[models.CategoryLunch].Count)
}

func TestProductEndpointsRequireAuth(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/products/some-id/reserve", "", map[string]int{"qty": 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

// TestMain suppresses handler logging for cleaner test output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}
