package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strings"

	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/app/repository"
	"github.com/spsports/sps-backend/internal/storage"
	"github.com/spsports/sps-backend/pkg/logger"
	"github.com/spsports/sps-backend/pkg/sizing"
	"gorm.io/gorm"
)

const (
	DefaultProductLimit = 12
	MaxProductLimit     = 100
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidPriceRange  = errors.New("minPrice cannot exceed maxPrice")
	ErrUploadUnavailable  = errors.New("file uploads are not configured")
	ErrProductImageUpload = errors.New("failed to upload product image")
)

// ProductListOptions selects and pages the catalog. Skip takes precedence
// over Page when both are given.
type ProductListOptions struct {
	Category   string
	Categories []string
	Color      string
	MinPrice   *float64
	MaxPrice   *float64
	Page       int
	Skip       *int
	Limit      int
}

type ProductPage struct {
	Products      []model.Product `json:"products"`
	TotalPages    int             `json:"totalPages"`
	TotalProducts int64           `json:"totalProducts"`
	CurrentPage   int             `json:"currentPage"`
}

type ProductInput struct {
	Name        string   `json:"name" form:"name" binding:"required"`
	Category    string   `json:"category" form:"category" binding:"required"`
	Description string   `json:"description" form:"description"`
	Price       float64  `json:"price" form:"price" binding:"required,gt=0"`
	Images      []string `json:"images" form:"imageUrls"`
	Rating      float64  `json:"rating" form:"rating" binding:"gte=0,lte=5"`
	Color       string   `json:"color" form:"color"`
}

// ProductPatch holds the fields of a partial update; nil means unchanged.
type ProductPatch struct {
	Name        *string   `json:"name" form:"name"`
	Category    *string   `json:"category" form:"category"`
	Description *string   `json:"description" form:"description"`
	Price       *float64  `json:"price" form:"price" binding:"omitempty,gt=0"`
	Images      *[]string `json:"images" form:"-"`
	Rating      *float64  `json:"rating" form:"rating" binding:"omitempty,gte=0,lte=5"`
	Color       *string   `json:"color" form:"color"`
}

type ProductService interface {
	ListProducts(ctx context.Context, opts ProductListOptions) (*ProductPage, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, input ProductInput, images []*multipart.FileHeader) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, patch ProductPatch, images []*multipart.FileHeader) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) (*model.Product, error)
	GetSizes(category string) []string
	SizeChart() SizeChart
	ListCategories(ctx context.Context) ([]string, error)
}

type productService struct {
	productRepo repository.ProductRepository
	sizes       sizing.Table
	uploader    storage.Uploader
}

// NewProductService wires the catalog. uploader may be nil, in which case
// requests carrying image files are rejected.
func NewProductService(productRepo repository.ProductRepository, sizes sizing.Table, uploader storage.Uploader) ProductService {
	return &productService{
		productRepo: productRepo,
		sizes:       sizes,
		uploader:    uploader,
	}
}

func (s *productService) ListProducts(ctx context.Context, opts ProductListOptions) (*ProductPage, error) {
	if opts.MinPrice != nil && opts.MaxPrice != nil && *opts.MinPrice > *opts.MaxPrice {
		return nil, ErrInvalidPriceRange
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultProductLimit
	}
	if limit > MaxProductLimit {
		limit = MaxProductLimit
	}

	var offset, page int
	if opts.Skip != nil && *opts.Skip >= 0 {
		offset = *opts.Skip
		page = offset/limit + 1
	} else {
		page = opts.Page
		if page < 1 {
			page = 1
		}
		offset = (page - 1) * limit
	}

	products, total, err := s.productRepo.FindWithFilter(ctx, repository.ProductFilter{
		Category:   opts.Category,
		Categories: opts.Categories,
		Color:      opts.Color,
		MinPrice:   opts.MinPrice,
		MaxPrice:   opts.MaxPrice,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}

	return &ProductPage{
		Products:      products,
		TotalPages:    int(math.Ceil(float64(total) / float64(limit))),
		TotalProducts: total,
		CurrentPage:   page,
	}, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func validateProduct(p *model.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case strings.TrimSpace(p.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	case p.Price <= 0:
		return fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
	case p.Rating < 0 || p.Rating > 5:
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidProduct)
	}
	return nil
}

func (s *productService) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.uploader == nil {
		return nil, ErrUploadUnavailable
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := s.uploader.Upload(ctx, storage.FolderProducts, file)
		if err != nil {
			logger.Error("Failed to upload product image", err, map[string]interface{}{
				"filename": file.Filename,
			})
			return nil, fmt.Errorf("%w: %w", ErrProductImageUpload, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput, images []*multipart.FileHeader) (*model.Product, error) {
	product := &model.Product{
		Name:        strings.TrimSpace(input.Name),
		Category:    strings.TrimSpace(input.Category),
		Description: input.Description,
		Price:       input.Price,
		Images:      model.StringList(input.Images).Clone(),
		Rating:      input.Rating,
		Color:       strings.TrimSpace(input.Color),
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}
	product.Images = append(product.Images, urls...)
	product.Sizes = s.sizes.Lookup(product.Category)

	if err := s.productRepo.Create(ctx, product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"category":   product.Category,
		"sizes":      len(product.Sizes),
		"images":     len(product.Images),
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch, images []*multipart.FileHeader) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	categoryChanged := false
	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		categoryChanged = category != product.Category
		product.Category = category
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Images != nil {
		product.Images = model.StringList(*patch.Images).Clone()
	}
	if patch.Rating != nil {
		product.Rating = *patch.Rating
	}
	if patch.Color != nil {
		product.Color = strings.TrimSpace(*patch.Color)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}
	product.Images = append(product.Images, urls...)

	if categoryChanged {
		product.Sizes = s.sizes.Lookup(product.Category)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id":       id,
		"category_changed": categoryChanged,
	})
	return product, nil
}

// DeleteProduct removes the product and returns it as it was. Orders keep
// their own item snapshots.
func (s *productService) DeleteProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return product, nil
}

func (s *productService) GetSizes(category string) []string {
	return s.sizes.Lookup(category)
}

// SizeChartEntry is one category row of the size chart.
type SizeChartEntry struct {
	Category string   `json:"category"`
	Sizes    []string `json:"sizes"`
}

// SizeChart lists every known category with its sizes. Fallback is the
// generic list shown for products whose category has no row.
type SizeChart struct {
	Categories []SizeChartEntry `json:"categories"`
	Fallback   []string         `json:"fallback"`
}

func (s *productService) SizeChart() SizeChart {
	categories := s.sizes.Categories()
	chart := SizeChart{
		Categories: make([]SizeChartEntry, 0, len(categories)),
		Fallback:   s.sizes.Fallback(),
	}
	for _, category := range categories {
		chart.Categories = append(chart.Categories, SizeChartEntry{
			Category: category,
			Sizes:    s.sizes.Lookup(category),
		})
	}
	return chart
}

func (s *productService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}
