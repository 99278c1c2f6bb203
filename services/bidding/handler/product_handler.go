package handler

import (
	"context"
	"net/http"

	"property-bidding/internal/auth"
	"property-bidding/internal/biddingerrors"
	catalog "property-bidding/internal/catalogService"
	model "property-bidding/internal/models"
	"property-bidding/services/bidding/helpers"
	"property-bidding/utils"

	"github.com/gin-gonic/gin"
)

type CatalogServiceInterface interface {
	CreateProduct(ctx context.Context, caller auth.Identity, input catalog.NewProduct) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	FeaturedProduct(ctx context.Context) (model.Product, error)
}

type ProductHandler struct {
	service CatalogServiceInterface
}

func NewProductHandler(service CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// CreateProductHandler handles POST /products
func (h *ProductHandler) CreateProductHandler(c *gin.Context) {
	identity, ok := helpers.IdentityFromContext(c)
	if !ok {
		helpers.RespondError(c, "CreateProductHandler", biddingerrors.ErrUnauthorized, nil)
		return
	}

	var req helpers.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateProductHandler", err)
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), identity, catalog.NewProduct{
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Image:       req.Image,
	})
	if err != nil {
		helpers.RespondError(c, "CreateProductHandler", err, map[string]any{"caller_id": identity.AccountID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.CreateProductResponse{ProductID: product.ProductID}, "product created successfully")
	helpers.LogSuccess("CreateProductHandler", "product created successfully", map[string]any{
		"product_id": product.ProductID,
		"created_by": product.CreatedBy,
	})
}

// ListProductsHandler handles GET /products
func (h *ProductHandler) ListProductsHandler(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListProductsHandler", err, nil)
		return
	}

	if products == nil {
		products = []model.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
}

// GetProductHandler handles GET /products/:id
func (h *ProductHandler) GetProductHandler(c *gin.Context) {
	productID := c.Param("id")
	product, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "GetProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, product, "product retrieved successfully")
}

// FeaturedProductHandler handles GET /featured
func (h *ProductHandler) FeaturedProductHandler(c *gin.Context) {
	product, err := h.service.FeaturedProduct(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "FeaturedProductHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, product, "featured product retrieved successfully")
}
