package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/app/repository"
	"github.com/spsports/sps-backend/internal/app/service"
	"github.com/spsports/sps-backend/internal/db"
	"github.com/spsports/sps-backend/pkg/sizing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	calls int
}

func (s *stubUploader) Upload(_ context.Context, folder string, file *multipart.FileHeader) (string, error) {
	s.calls++
	return "https://cdn.example.com/" + folder + "/" + file.Filename, nil
}

func setupProductControllerTest(t *testing.T) (*gin.Engine, *stubUploader) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	uploader := &stubUploader{}
	productService := service.NewProductService(repository.NewProductRepository(testDB), sizing.DefaultTable(), uploader)
	ctrl := NewProductController(productService)

	router := gin.New()
	router.GET("/products", ctrl.ListProducts)
	router.GET("/products/categories", ctrl.ListCategories)
	router.GET("/products/sizes", ctrl.GetSizeChart)
	router.GET("/products/sizes/:category", ctrl.GetSizes)
	router.GET("/products/:id", ctrl.GetProduct)
	router.POST("/products/AddProduct", ctrl.CreateProduct)
	router.PATCH("/products/update/:id", ctrl.UpdateProduct)
	router.DELETE("/products/delete/:id", ctrl.DeleteProduct)
	return router, uploader
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewBuffer(data)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createProduct(t *testing.T, router *gin.Engine, body gin.H) model.Product {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/products/AddProduct", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	return product
}

func TestProductController_CreateProduct_JSON(t *testing.T) {
	router, _ := setupProductControllerTest(t)

	product := createProduct(t, router, gin.H{
		"name":     "Home Kit 2025",
		"category": "football shirts",
		"price":    3500,
		"color":    "Green",
	})
	assert.NotZero(t, product.ID)
	assert.Equal(t, model.StringList{"XS", "S", "M", "L", "XL", "XXL"}, product.Sizes)
	assert.Equal(t, model.StringList{}, product.Images)
}

func TestProductController_CreateProduct_Multipart(t *testing.T) {
	router, uploader := setupProductControllerTest(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Match Ball"))
	require.NoError(t, mw.WriteField("category", "Footballs"))
	require.NoError(t, mw.WriteField("price", "4500"))
	require.NoError(t, mw.WriteField("imageUrls", "https://cdn.example.com/products/hosted.jpg"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images"; filename="ball.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/AddProduct", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var product model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, model.StringList{
		"https://cdn.example.com/products/hosted.jpg",
		"https://cdn.example.com/products/ball.jpg",
	}, product.Images)
	assert.Equal(t, model.StringList{"3", "4", "5"}, product.Sizes)
}

func TestProductController_CreateProduct_Validation(t *testing.T) {
	router, _ := setupProductControllerTest(t)

	w := doJSON(router, http.MethodPost, "/products/AddProduct", gin.H{"name": "Cap", "price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "VALIDATION_INVALID_INPUT", response.Error)
	assert.Contains(t, response.Fields, "category")
	assert.Contains(t, response.Fields, "price")
}

func TestProductController_ListProducts(t *testing.T) {
	router, _ := setupProductControllerTest(t)

	createProduct(t, router, gin.H{"name": "Home Kit", "category": "Football Shirts", "price": 3500, "color": "Green"})
	createProduct(t, router, gin.H{"name": "Test Whites", "category": "Cricket Shirts", "price": 2800, "color": "White"})
	createProduct(t, router, gin.H{"name": "Boots", "category": "Football Boots", "price": 9000, "color": "Black"})

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantTotal int
	}{
		{"all", "", http.StatusOK, 3},
		{"category substring", "?category=FOOTBALL", http.StatusOK, 2},
		{"categories list", "?categories=cricket,boots", http.StatusOK, 2},
		{"color exact", "?color=white", http.StatusOK, 1},
		{"max price only", "?maxPrice=3000", http.StatusOK, 1},
		{"price range", "?minPrice=3000&maxPrice=9000", http.StatusOK, 2},
		{"inverted range", "?minPrice=9000&maxPrice=100", http.StatusBadRequest, 0},
		{"bad number", "?minPrice=cheap", http.StatusBadRequest, 0},
		{"negative page", "?page=-1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodGet, "/products"+tt.query, nil)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var page service.ProductPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			assert.Equal(t, int64(tt.wantTotal), page.TotalProducts)
			assert.Len(t, page.Products, tt.wantTotal)
		})
	}

	t.Run("pagination", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/products?page=2&limit=2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var page service.ProductPage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Len(t, page.Products, 1)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 2, page.CurrentPage)
	})
}

func TestProductController_GetUpdateDelete(t *testing.T) {
	router, _ := setupProductControllerTest(t)
	product := createProduct(t, router, gin.H{"name": "Cap", "category": "Caps", "price": 800})
	path := func(prefix string) string { return fmt.Sprintf("%s%d", prefix, product.ID) }

	w := doJSON(router, http.MethodGet, path("/products/"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPatch, path("/products/update/"), gin.H{"category": "Gloves", "price": 950})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 950.0, updated.Price)
	assert.Equal(t, model.StringList{"S", "M", "L", "XL"}, updated.Sizes)

	w = doJSON(router, http.MethodDelete, path("/products/delete/"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted struct {
		Product model.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleted))
	assert.Equal(t, product.ID, deleted.Product.ID)

	w = doJSON(router, http.MethodGet, path("/products/"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductController_SizesAndCategories(t *testing.T) {
	router, _ := setupProductControllerTest(t)
	createProduct(t, router, gin.H{"name": "Cap", "category": "Caps", "price": 800})

	w := doJSON(router, http.MethodGet, "/products/sizes/cricket%20bats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sizes struct {
		Sizes []string `json:"sizes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sizes))
	assert.Equal(t, []string{"Size 4", "Size 5", "Size 6", "Harrow", "Short Handle", "Long Handle"}, sizes.Sizes)

	w = doJSON(router, http.MethodGet, "/products/sizes/kites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sizes))
	assert.Equal(t, []string{}, sizes.Sizes)

	w = doJSON(router, http.MethodGet, "/products/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories struct {
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categories))
	assert.Equal(t, []string{"Caps"}, categories.Categories)
}

func TestProductController_GetSizeChart(t *testing.T) {
	router, _ := setupProductControllerTest(t)

	w := doJSON(router, http.MethodGet, "/products/sizes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var chart struct {
		Categories []struct {
			Category string   `json:"category"`
			Sizes    []string `json:"sizes"`
		} `json:"categories"`
		Fallback []string `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	require.Len(t, chart.Categories, 12)
	assert.Equal(t, "Accessories", chart.Categories[0].Category)
	assert.Equal(t, []string{"S", "M", "L", "XL"}, chart.Fallback)

	var bats []string
	for _, entry := range chart.Categories {
		if entry.Category == "Cricket Bats" {
			bats = entry.Sizes
		}
	}
	assert.Equal(t, []string{"Size 4", "Size 5", "Size 6", "Harrow", "Short Handle", "Long Handle"}, bats)
}
