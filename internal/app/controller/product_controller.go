package controller

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spsports/sps-backend/internal/app/service"
	apperrors "github.com/spsports/sps-backend/internal/errors"
	"github.com/spsports/sps-backend/internal/middleware"
	"github.com/spsports/sps-backend/internal/storage"
	"github.com/spsports/sps-backend/pkg/logger"
)

const productImagesField = "images"

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// formFiles returns the files posted under field, or nil for non-multipart requests.
func formFiles(c *gin.Context, field string) []*multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

func parseFloatQuery(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseIntQuery(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, errors.New(key + " must be a non-negative integer")
	}
	return &v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// respondProductError maps catalog service errors to responses.
func respondProductError(c *gin.Context, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrInvalidProduct):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrInvalidPriceRange):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "minPrice cannot exceed maxPrice")
	case errors.Is(err, storage.ErrFileTooLarge):
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
	case errors.Is(err, storage.ErrContentTypeBlocked):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG, WEBP and GIF images are allowed")
	case errors.Is(err, service.ErrUploadUnavailable):
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.UploadFailed, "Image uploads are not available")
	case errors.Is(err, service.ErrProductImageUpload):
		log.Error("Product image upload failed", err)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "Failed to upload product image")
	default:
		log.Error("Failed to "+action, err)
		apperrors.RespondWithPersistenceError(c, apperrors.InternalDatabaseError, err, "product")
	}
}

// ListProducts returns one page of the filtered catalog
// GET /api/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.ProductListOptions{
		Category:   strings.TrimSpace(c.Query("category")),
		Categories: splitList(c.Query("categories")),
		Color:      strings.TrimSpace(c.Query("color")),
	}

	var err error
	if opts.MinPrice, err = parseFloatQuery(c, "minPrice"); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "minPrice must be a number")
		return
	}
	if opts.MaxPrice, err = parseFloatQuery(c, "maxPrice"); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "maxPrice must be a number")
		return
	}

	page, err := parseIntQuery(c, "page")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}
	if opts.Skip, err = parseIntQuery(c, "skip"); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}
	if page != nil {
		opts.Page = *page
	}
	if limit != nil {
		opts.Limit = *limit
	}

	result, err := ctrl.productService.ListProducts(c.Request.Context(), opts)
	if err != nil {
		respondProductError(c, log, err, "list products")
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(result.Products),
		"total": result.TotalProducts,
	})

	c.JSON(http.StatusOK, result)
}

// GetProduct returns a product by ID
// GET /api/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondProductError(c, log, err, "fetch product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product. Accepts JSON or multipart with image files
// under "images" and already hosted URLs under "imageUrls".
// POST /api/products/AddProduct
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.ProductInput
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), req, formFiles(c, productImagesField))
	if err != nil {
		respondProductError(c, log, err, "create product")
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct applies a partial update
// PATCH /api/products/update/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.ProductPatch
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, req, formFiles(c, productImagesField))
	if err != nil {
		respondProductError(c, log, err, "update product")
		return
	}

	log.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product and returns it
// DELETE /api/products/delete/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondProductError(c, log, err, "delete product")
		return
	}

	log.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
		"product": product,
	})
}

// GetSizes returns the size labels for a category
// GET /api/products/sizes/:category
func (ctrl *ProductController) GetSizes(c *gin.Context) {
	category := c.Param("category")
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"sizes":    ctrl.productService.GetSizes(category),
	})
}

// GetSizeChart returns every category of the size table with its sizes
// GET /api/products/sizes
func (ctrl *ProductController) GetSizeChart(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.productService.SizeChart())
}

// ListCategories returns the categories present in the catalog
// GET /api/products/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.productService.ListCategories(c.Request.Context())
	if err != nil {
		log.Error("Failed to list categories", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}
