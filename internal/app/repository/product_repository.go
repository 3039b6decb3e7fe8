package repository

import (
	"context"
	"strings"

	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Category   string   // case-insensitive substring
	Categories []string // OR of case-insensitive substrings
	Color      string   // case-insensitive exact
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int
	Offset     int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
	})

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":     product.Name,
			"category": product.Category,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func containsPattern(s string) string {
	return "%" + escapeLike(strings.ToLower(strings.TrimSpace(s))) + "%"
}

const categoryLike = `LOWER(products.category) LIKE ? ESCAPE '\'`

func (r *productRepository) applyFilter(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if strings.TrimSpace(filter.Category) != "" {
		query = query.Where(categoryLike, containsPattern(filter.Category))
	}

	var patterns []string
	for _, c := range filter.Categories {
		if strings.TrimSpace(c) != "" {
			patterns = append(patterns, containsPattern(c))
		}
	}
	if len(patterns) > 0 {
		group := r.db.Session(&gorm.Session{NewDB: true}).Where(categoryLike, patterns[0])
		for _, p := range patterns[1:] {
			group = group.Or(categoryLike, p)
		}
		query = query.Where(group)
	}

	if color := strings.TrimSpace(filter.Color); color != "" {
		query = query.Where("LOWER(products.color) = ?", strings.ToLower(color))
	}
	if filter.MinPrice != nil {
		query = query.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}
	return query
}

// FindWithFilter returns one page of matching products and the total match count.
func (r *productRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category":   filter.Category,
		"categories": filter.Categories,
		"color":      filter.Color,
		"min_price":  filter.MinPrice,
		"max_price":  filter.MaxPrice,
		"limit":      filter.Limit,
		"offset":     filter.Offset,
	})

	newQuery := func() *gorm.DB {
		return r.applyFilter(r.db.WithContext(ctx).Model(&model.Product{}), filter)
	}

	var total int64
	if err := newQuery().Count(&total).Error; err != nil {
		logger.Error("Failed to count products in database", err)
		return nil, 0, err
	}

	query := newQuery().
		Order("products.created_at DESC").
		Order("products.id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter in database", err)
		return nil, 0, err
	}

	logger.Debug("Products found with filter in database", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return &product, nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]string, error) {
	logger.Debug("Listing product categories in database")

	var categories []string
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		logger.Error("Failed to list product categories in database", err)
		return nil, err
	}

	logger.Debug("Product categories listed in database", map[string]interface{}{
		"count": len(categories),
	})
	return categories, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	result := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
