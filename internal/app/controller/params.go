package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/spsports/sps-backend/internal/errors"
	"github.com/spsports/sps-backend/internal/middleware"
)

func init() {
	apperrors.UseJSONFieldNames()
}

// parseIDParam reads a numeric path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
