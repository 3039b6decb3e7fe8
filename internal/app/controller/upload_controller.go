package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/spsports/sps-backend/internal/errors"
	"github.com/spsports/sps-backend/internal/middleware"
	"github.com/spsports/sps-backend/internal/storage"
)

// Presigner issues direct-to-bucket upload URLs.
type Presigner interface {
	GeneratePresignedURL(ctx context.Context, filename, contentType, folder string) (*storage.PresignedURLResponse, error)
}

type UploadController struct {
	storage Presigner
}

func NewUploadController(storage Presigner) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Folder      string `json:"folder"` // defaults to products
}

var uploadFolders = map[string]bool{
	storage.FolderProducts:      true,
	storage.FolderPaymentProofs: true,
}

// GeneratePresignedURL returns a presigned PUT URL for a browser upload
// POST /api/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.storage == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.UploadFailed, "Uploads are not available")
		return
	}

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	folder := req.Folder
	if folder == "" {
		folder = storage.FolderProducts
	}
	if !uploadFolders[folder] {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unknown upload folder")
		return
	}

	response, err := ctrl.storage.GeneratePresignedURL(c.Request.Context(), req.Filename, req.ContentType, folder)
	if err != nil {
		if errors.Is(err, storage.ErrContentTypeBlocked) {
			log.Warn("Invalid content type", map[string]interface{}{
				"content_type": req.ContentType,
			})
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG, WEBP and GIF images are allowed")
			return
		}
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename": req.Filename,
			"folder":   folder,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to generate upload URL")
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"key": response.Key,
	})

	c.JSON(http.StatusOK, response)
}
