package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spsports/sps-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPresigner struct {
	folder string
}

func (s *stubPresigner) GeneratePresignedURL(_ context.Context, filename, contentType, folder string) (*storage.PresignedURLResponse, error) {
	if err := storage.ValidateContentType(contentType); err != nil {
		return nil, err
	}
	s.folder = folder
	key := folder + "/" + filename
	return &storage.PresignedURLResponse{
		UploadURL: "https://bucket.example.com/" + key + "?X-Amz-Signature=abc",
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
	}, nil
}

func setupUploadControllerTest(presigner Presigner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/upload/presigned-url", NewUploadController(presigner).GeneratePresignedURL)
	return router
}

func TestUploadController_GeneratePresignedURL(t *testing.T) {
	presigner := &stubPresigner{}
	router := setupUploadControllerTest(presigner)

	w := doJSON(router, http.MethodPost, "/upload/presigned-url", gin.H{"filename": "kit.jpg", "contentType": "image/jpeg"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp storage.PresignedURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "products/kit.jpg", resp.Key)
	assert.Equal(t, storage.FolderProducts, presigner.folder)
}

func TestUploadController_Rejections(t *testing.T) {
	router := setupUploadControllerTest(&stubPresigner{})

	tests := []struct {
		name     string
		body     gin.H
		wantCode int
	}{
		{"missing filename", gin.H{"contentType": "image/png"}, http.StatusBadRequest},
		{"unknown folder", gin.H{"filename": "a.png", "contentType": "image/png", "folder": "secrets"}, http.StatusBadRequest},
		{"blocked type", gin.H{"filename": "a.pdf", "contentType": "application/pdf"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/upload/presigned-url", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	w := doJSON(setupUploadControllerTest(nil), http.MethodPost, "/upload/presigned-url", gin.H{"filename": "a.png", "contentType": "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
