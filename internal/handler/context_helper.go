package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/middleware"
	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
	"github.com/noah-isme/ferias-api/pkg/response"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// bindJSON decodes the body into dest, writing a 400 on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// queryDate parses key as YYYY-MM-DD. A missing value yields nil.
func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "invalid %s, expected YYYY-MM-DD", key)
	}
	return &parsed, nil
}

// withCacheMeta writes data with the cache_hit flag reported in meta.
func withCacheMeta(c *gin.Context, data interface{}, hit bool, start time.Time) {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{"cache_hit": hit, "processing_time_ms": time.Since(start).Milliseconds()}
	}
	response.JSON(c, http.StatusOK, data, nil, meta)
}
