package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

type responseMeta struct {
	started  time.Time
	cacheHit *bool
}

// WithResponseMeta starts the per-request metadata that cached endpoints report
// under "meta" in the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now()})
		c.Next()
	}
}

// SetCacheHit marks whether the payload came from Redis.
func SetCacheHit(c *gin.Context, hit bool) {
	if meta := current(c); meta != nil {
		meta.cacheHit = &hit
	}
}

// ExtractMeta renders the metadata collected so far, or nil when
// WithResponseMeta is not installed on the route.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := current(c)
	if meta == nil {
		return nil
	}
	out := map[string]interface{}{
		"processing_time_ms": time.Since(meta.started).Milliseconds(),
	}
	if meta.cacheHit != nil {
		out["cache_hit"] = *meta.cacheHit
	}
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	return out
}

func current(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(*responseMeta); ok {
			return meta
		}
	}
	return nil
}
