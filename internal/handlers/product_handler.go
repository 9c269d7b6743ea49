package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// The summary route must come before /:id so it is not captured as an ID.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/summary", h.HandleSummary)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Patch("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
	productRoutes.Post("/:id/reserve", h.HandleReserveStock)
	productRoutes.Post("/:id/activate", h.HandleActivateProduct)
}

// ProductCreateRequest is the request body for creating a product.
type ProductCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// ReserveRequest is the request body for a stock reservation.
type ReserveRequest struct {
	Qty int `json:"qty"`
}

// HandleListProducts retrieves products, optionally filtered by category
// and/or active state.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	var filter repositories.ProductFilter

	if raw := c.Query("category"); raw != "" {
		category := models.Category(raw)
		if !category.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": fmt.Sprintf("Unknown category %q", raw),
			})
		}
		filter.Category = &category
	}
	if raw := c.Query("active"); raw != "" {
		if raw != "true" && raw != "false" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Query parameter 'active' must be true or false",
			})
		}
		active := raw == "true"
		filter.Active = &active
	}

	products, err := h.service.ListProducts(c.Context(), filter)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID, in any
// activation state.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(c.Context(), productID)
	if err != nil {
		return h.errorResponse(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductCreateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return h.validationResponse(c, err)
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    models.Category(req.Category),
		Stock:       req.Stock,
	}
	if err := h.service.CreateProduct(c.Context(), &product); err != nil {
		return h.errorResponse(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update. Fields absent from the body
// keep their current value; the active flag cannot be changed here.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")

	var patch services.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		log.Printf("Error parsing update request body for product %s: %v", productID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	updated, err := h.service.UpdateProduct(c.Context(), productID, patch)
	if err != nil {
		return h.errorResponse(c, err, "Could not update product")
	}
	return c.JSON(updated)
}

// HandleDeleteProduct soft-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(c.Context(), productID); err != nil {
		return h.errorResponse(c, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleReserveStock reserves stock for a product. A failed precondition is
// a conflict, reported distinctly from not-found.
func (h *ProductHandler) HandleReserveStock(c *fiber.Ctx) error {
	productID := c.Params("id")

	var req ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing reserve request body for product %s: %v", productID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.ReserveStock(c.Context(), productID, req.Qty); err != nil {
		return h.errorResponse(c, err, "Could not reserve stock")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleActivateProduct reactivates a soft-deleted product.
func (h *ProductHandler) HandleActivateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.ActivateProduct(c.Context(), productID)
	if err != nil {
		return h.errorResponse(c, err, "Could not activate product")
	}
	return c.JSON(product)
}

// HandleSummary returns inventory statistics for the whole catalog.
func (h *ProductHandler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		log.Printf("Error computing inventory summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not compute summary",
			"error":   err.Error(),
		})
	}
	return c.JSON(summary)
}

// errorResponse maps domain errors onto HTTP statuses. Conflicts (409) are
// kept distinct from not-found (404) and from bad input (400).
func (h *ProductHandler) errorResponse(c *fiber.Ctx, err error, message string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, repositories.ErrProductNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, repositories.ErrInsufficientStock),
		errors.Is(err, repositories.ErrDuplicateName):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrNegativePrice),
		errors.Is(err, services.ErrNegativeStock),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, repositories.ErrMissingID):
		status = fiber.StatusBadRequest
	default:
		log.Printf("%s: %v", message, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// validationResponse reports validator failures field by field.
func (h *ProductHandler) validationResponse(c *fiber.Ctx, err error) error {
	validationErrors := err.(validator.ValidationErrors)
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
